package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/videohub/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the refresh token is not the user's active one.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// SessionStore persists the single active refresh token on the user record.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
}

// Manager issues, rotates and revokes token pairs.
type Manager struct {
	tokens *TokenIssuer
	store  SessionStore
}

// NewManager constructs a Manager persisting refresh tokens in store.
func NewManager(tokens *TokenIssuer, store SessionStore) *Manager {
	if tokens == nil || store == nil {
		panic("auth: token issuer and session store must not be nil")
	}
	return &Manager{tokens: tokens, store: store}
}

// Issue signs a new token pair for user and makes its refresh token the active one.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	access, accessExp, err := m.tokens.sign(tokenAccess, user.ID, user.Username, m.tokens.accessTTL, m.tokens.accessSecret)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, refreshExp, err := m.tokens.sign(tokenRefresh, user.ID, "", m.tokens.refreshTTL, m.tokens.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges the active refresh token for a new pair. The old token stops working.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, models.User, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, models.User{}, ErrSessionNotFound
	}

	claims, err := m.tokens.ParseRefresh(refreshToken)
	if errors.Is(err, ErrTokenExpired) {
		return models.SessionTokens{}, models.User{}, ErrRefreshTokenExpired
	}
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	user, err := m.store.FindByID(ctx, claims.UserID())
	if err != nil {
		return models.SessionTokens{}, models.User{}, fmt.Errorf("load session user: %w", err)
	}
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, models.User{}, ErrSessionNotFound
	}

	tokens, err := m.Issue(ctx, user)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}
	return tokens, user, nil
}

// Revoke clears the user's active refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.SetRefreshToken(ctx, userID, "")
}

// Authenticate verifies an access token and returns its claims.
func (m *Manager) Authenticate(accessToken string) (Claims, error) {
	return m.tokens.ParseAccess(accessToken)
}
