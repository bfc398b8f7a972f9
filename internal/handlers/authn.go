package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/logging"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// Authenticator validates access tokens.
type Authenticator interface {
	Authenticate(accessToken string) (auth.Claims, error)
}

type userIDKey struct{}

// viewerID returns the authenticated user, or "" on public routes.
func viewerID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(accessCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth rejects requests without a valid access token and stores the caller's ID on the context.
func requireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" {
				respondError(ctx, w, apperr.Unauthenticated("unauthorized request"))
				return
			}
			claims, err := authn.Authenticate(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					respondError(ctx, w, apperr.Unauthenticated("access token expired"))
					return
				}
				respondError(ctx, w, apperr.Unauthenticated("invalid access token"))
				return
			}

			ctx = context.WithValue(ctx, userIDKey{}, claims.UserID())
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(zap.String("user_id", claims.UserID())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
