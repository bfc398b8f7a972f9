package repositories

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/models"
)

// CommentRepository stores comments on videos and tweets.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
	// ListByTarget returns the target's comments, newest first.
	ListByTarget(ctx context.Context, target models.Target) ([]models.Comment, error)
	// DeleteByTarget removes every comment on the target and returns their IDs.
	DeleteByTarget(ctx context.Context, target models.Target) ([]string, error)
}

// LikeRepository stores likes. Add and Remove are conditional on the (likedBy, target) key.
type LikeRepository interface {
	// Add inserts the like unless one already exists and reports whether it was created.
	Add(ctx context.Context, like models.Like) (bool, error)
	Remove(ctx context.Context, likedBy string, target models.Target) (bool, error)
	Exists(ctx context.Context, likedBy string, target models.Target) (bool, error)
	// LikedAmong returns the subset of ids of the given kind the user has liked.
	LikedAmong(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (map[string]bool, error)
	CountByTargets(ctx context.Context, kind models.TargetKind, ids []string) (map[string]int64, error)
	// ListByUser returns the user's likes of one kind, most recently updated first.
	ListByUser(ctx context.Context, likedBy string, kind models.TargetKind) ([]models.Like, error)
	RemoveByUserTargets(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (int64, error)
	RemoveByTargets(ctx context.Context, kind models.TargetKind, ids []string) (int64, error)
}

// SubscriptionRepository stores subscriber to channel edges.
type SubscriptionRepository interface {
	// Add inserts the edge unless it already exists and reports whether it was created.
	Add(ctx context.Context, sub models.Subscription) (bool, error)
	Remove(ctx context.Context, subscriberID, channelID string) (bool, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	// ListBySubscriber returns the subscriber's edges, most recent first.
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
	CountByChannels(ctx context.Context, channelIDs []string) (map[string]int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// PlaylistRepository stores playlists. Names are unique per owner.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	FindByOwnerAndName(ctx context.Context, ownerID, name string) (models.Playlist, error)
	// ListByOwner returns the owner's playlists, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	// PrependVideo adds videoID at the front unless already present and reports whether it was added.
	// Membership changes stamp the playlist's updatedAt with now.
	PrependVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error)
	RemoveVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error)
	RemoveVideoEverywhere(ctx context.Context, videoID string, now time.Time) (int64, error)
}
