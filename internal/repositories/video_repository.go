package repositories

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/models"
)

// Sortable video fields.
const (
	VideoSortCreatedAt = "createdAt"
	VideoSortUpdatedAt = "updatedAt"
	VideoSortTitle     = "title"
	VideoSortViews     = "views"
	VideoSortDuration  = "duration"
)

// VideoSortFields lists the fields List accepts in VideoFilter.SortBy.
var VideoSortFields = []string{VideoSortCreatedAt, VideoSortUpdatedAt, VideoSortTitle, VideoSortViews, VideoSortDuration}

// VideoFilter narrows, orders and pages a video listing.
type VideoFilter struct {
	// Query is a case-insensitive substring matched against title or description.
	Query     string
	OwnerID   string
	Category  string
	Published *bool
	SortBy    string
	SortDesc  bool
	Offset    int
	Limit     int
}

// VideoTotals aggregates a channel's uploads.
type VideoTotals struct {
	Videos int64
	Views  int64
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string, now time.Time) error
	// List returns one page of matches and the total match count.
	List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error)
	// ListByOwners returns videos of the given owners, newest first.
	ListByOwners(ctx context.Context, ownerIDs []string, publishedOnly bool) ([]models.Video, error)
	TotalsByOwner(ctx context.Context, ownerID string) (VideoTotals, error)
}

// ValidVideoSort reports whether field is an accepted sort key.
func ValidVideoSort(field string) bool {
	for _, f := range VideoSortFields {
		if f == field {
			return true
		}
	}
	return false
}
