package repositories

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Search matches username or full name case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	// Update rewrites the profile columns (everything except refresh token and watch history).
	Update(ctx context.Context, user models.User) error
	SetRefreshToken(ctx context.Context, id, token string) error
	// AppendWatchHistory records a watch and reports whether it is the user's first of videoID.
	// The check and the append are one atomic step.
	AppendWatchHistory(ctx context.Context, id, videoID string, now time.Time) (bool, error)
	ClearWatchHistory(ctx context.Context, id string, now time.Time) error
}
