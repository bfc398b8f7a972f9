package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
	Uploads  Uploads
	// SecureCookies marks the token cookies Secure.
	SecureCookies bool
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (h UserHandler) setTokenCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{Name: accessCookie, Value: tokens.AccessToken, Path: "/", Expires: tokens.AccessExpiresAt,
		HttpOnly: true, Secure: h.SecureCookies, SameSite: http.SameSiteLaxMode})
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: tokens.RefreshToken, Path: "/", Expires: tokens.RefreshExpiresAt,
		HttpOnly: true, Secure: h.SecureCookies, SameSite: http.SameSiteLaxMode})
}

func (h UserHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1,
			HttpOnly: true, Secure: h.SecureCookies, SameSite: http.SameSiteLaxMode})
	}
}

// Register handles POST /users/register (JSON or multipart with avatar and coverImage files).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.RegisterInput
	files, err := h.Uploads.decodeForm(w, r, &in, "avatar", "coverImage")
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.AvatarPath, in.CoverPath = files.first("avatar"), files.first("coverImage")

	user, err := h.Commands.Register(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := h.Commands.Login(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	h.setTokenCookies(w, session.Tokens)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:         session.User,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Commands.Logout(ctx, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	h.clearTokenCookies(w)
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Refresh handles POST /users/refresh-token. The token comes from the body or the refresh cookie.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	if strings.TrimSpace(in.RefreshToken) == "" {
		if c, err := r.Cookie(refreshCookie); err == nil {
			in.RefreshToken = c.Value
		}
	}

	session, err := h.Commands.Refresh(ctx, in.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	h.setTokenCookies(w, session.Tokens)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:         session.User,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, "access token refreshed")
}

// ChangePassword handles POST /users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Commands.ChangePassword(ctx, viewerID(ctx), in); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Commands.CurrentUser(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.UpdateAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := h.Commands.UpdateAccount(ctx, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user, "account details updated successfully")
}

// UpdateBio handles PATCH /users/update-bio.
func (h UserHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.UpdateBioInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := h.Commands.UpdateBio(ctx, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user, "bio updated successfully")
}

// UpdateAvatar handles PATCH /users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Commands.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.Commands.UpdateCoverImage)
}

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string,
	replace func(ctx context.Context, userID, localPath string) (models.User, error)) {
	ctx := r.Context()
	if !isMultipart(r) {
		respondError(ctx, w, apperr.Invalid("%s must be sent as multipart/form-data", field))
		return
	}
	var ignored struct{}
	files, err := h.Uploads.decodeForm(w, r, &ignored, field)
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := replace(ctx, viewerID(ctx), files.first(field))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user, field+" updated successfully")
}

// Channel handles GET /users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		respondError(ctx, w, apperr.Invalid("username is missing"))
		return
	}
	profile, err := h.Engine.ChannelProfile(ctx, username, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// WatchHistory handles GET /users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.Engine.WatchHistory(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// ClearWatchHistory handles DELETE /users/history.
func (h UserHandler) ClearWatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Commands.ClearWatchHistory(ctx, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "watch history cleared")
}

// ByID handles GET /users/{userId}.
func (h UserHandler) ByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Commands.UserByID(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Summary(), "user fetched successfully")
}
