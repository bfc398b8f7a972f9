package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) (*Manager, *TokenIssuer, repositories.UserRepository) {
	t.Helper()
	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", accessTTL, refreshTTL)
	require.NoError(t, err)
	users := repositories.NewMemoryStore().Users
	require.NoError(t, users.Create(context.Background(), models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}))
	return NewManager(issuer, users), issuer, users
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, _, users := newTestManager(t, time.Minute, time.Hour)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	stored, err := users.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, tokens.RefreshToken, stored.RefreshToken)

	claims, err := manager.Authenticate(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice", claims.Username)

	refreshed, user, err := manager.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	_, _, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound, "rotated token must stop working")
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _, _ := newTestManager(t, time.Minute, time.Hour)
	_, err := manager.Issue(context.Background(), models.User{})
	assert.Error(t, err)
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, issuer, _ := newTestManager(t, time.Minute, time.Hour)
	ctx := context.Background()

	_, _, err := manager.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	tokens, err := manager.Issue(ctx, models.User{ID: "user-1"})
	require.NoError(t, err)

	_, _, err = manager.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not refresh")

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
	issuer.now = time.Now

	require.NoError(t, manager.Revoke(ctx, "user-1"))
	_, _, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenIssuerRejectsForeignSecret(t *testing.T) {
	issuer, err := NewTokenIssuer("a", "b", time.Minute, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("c", "d", time.Minute, time.Hour)
	require.NoError(t, err)

	signed, _, err := other.sign(tokenAccess, "user-1", "alice", time.Minute, other.accessSecret)
	require.NoError(t, err)

	_, err = issuer.ParseAccess(signed)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}
