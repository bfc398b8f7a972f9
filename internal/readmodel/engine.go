// Package readmodel answers the social-graph queries: profiles, feeds, playlists,
// comments and tweets joined to their owners and counters.
//
// Joins are explicit batched lookups. A query collects the referenced IDs, fetches
// them with one FindByIDs call, indexes the result and projects. References that no
// longer resolve are dropped from the output instead of failing the query.
package readmodel

import (
	"math"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// Pagination defaults shared by every paged listing.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Engine is a read-only view over the repositories.
type Engine struct {
	users     repositories.UserRepository
	videos    repositories.VideoRepository
	comments  repositories.CommentRepository
	likes     repositories.LikeRepository
	subs      repositories.SubscriptionRepository
	playlists repositories.PlaylistRepository
	tweets    repositories.TweetRepository

	now func() time.Time
}

// NewEngine builds an Engine over store.
func NewEngine(store repositories.Store) *Engine {
	return &Engine{
		users:     store.Users,
		videos:    store.Videos,
		comments:  store.Comments,
		likes:     store.Likes,
		subs:      store.Subscriptions,
		playlists: store.Playlists,
		tweets:    store.Tweets,
		now:       time.Now,
	}
}

// VideoWithOwner is a video joined to its owner's public identity.
type VideoWithOwner struct {
	models.Video
	OwnerDetails models.UserSummary `json:"ownerDetails"`
}

// Paging is the page arithmetic echoed back to clients.
type Paging struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Limit       int  `json:"limit"`
	HasMore     bool `json:"hasMore"`
}

// normalizePage applies defaults and the limit cap, returning the row offset.
// A page whose offset does not fit in an int is invalid.
func normalizePage(page, limit int) (int, int, int, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		return 0, 0, 0, apperr.Invalid("page %d is out of range", page)
	}
	return page, limit, (page - 1) * limit, nil
}

func paging(page, limit int, total int64) Paging {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Paging{CurrentPage: page, TotalPages: pages, Limit: limit, HasMore: page < pages}
}

func indexUsers(users []models.User) map[string]models.User {
	out := make(map[string]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func indexVideos(videos []models.Video) map[string]models.Video {
	out := make(map[string]models.Video, len(videos))
	for _, v := range videos {
		out[v.ID] = v
	}
	return out
}

// withOwners joins videos to their owners, dropping videos whose owner is gone.
func withOwners(videos []models.Video, owners map[string]models.User) []VideoWithOwner {
	out := make([]VideoWithOwner, 0, len(videos))
	for _, v := range videos {
		owner, ok := owners[v.OwnerID]
		if !ok {
			continue
		}
		out = append(out, VideoWithOwner{Video: v, OwnerDetails: owner.Summary()})
	}
	return out
}

func videoOwnerIDs(videos []models.Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.OwnerID)
	}
	return ids
}
