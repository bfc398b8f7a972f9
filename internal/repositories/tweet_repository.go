package repositories

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/models"
)

// Sortable tweet fields.
const (
	TweetSortCreatedAt = "createdAt"
	TweetSortUpdatedAt = "updatedAt"
	TweetSortViews     = "viewCount"
)

// TweetFilter narrows, orders and pages a tweet listing.
type TweetFilter struct {
	OwnerID  string
	Query    string
	SortBy   string
	SortDesc bool
	Offset   int
	// Limit of zero returns every match.
	Limit int
}

// TweetRepository stores tweets with their poll, reactions and retweets.
// Reads return fully hydrated tweets. Every change that takes a now stamps the tweet's updatedAt
// when it modified something.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	List(ctx context.Context, filter TweetFilter) ([]models.Tweet, int64, error)
	// Update rewrites content, media, mentions and hashtags. The poll is managed by ReplacePoll.
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string, now time.Time) error

	// ReplacePoll swaps the tweet's poll, including recorded votes; nil removes it.
	ReplacePoll(ctx context.Context, tweetID string, poll *models.Poll) error
	// AddVote records the voter unless they already voted in this poll.
	AddVote(ctx context.Context, tweetID, voterID string, option int, now time.Time) (bool, error)
	SetPollActive(ctx context.Context, tweetID string, active bool, now time.Time) error
	DeactivateExpiredPolls(ctx context.Context, now time.Time) (int64, error)

	FindReaction(ctx context.Context, tweetID, userID string) (models.Reaction, error)
	PutReaction(ctx context.Context, tweetID string, reaction models.Reaction, now time.Time) error
	RemoveReaction(ctx context.Context, tweetID, userID string, now time.Time) (bool, error)

	AddRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error)
	RemoveRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error)
}

// ValidTweetSort reports whether field is an accepted sort key.
func ValidTweetSort(field string) bool {
	switch field {
	case TweetSortCreatedAt, TweetSortUpdatedAt, TweetSortViews:
		return true
	}
	return false
}
