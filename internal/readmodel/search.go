package readmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// SearchResults groups matches across videos, channels and tweets.
type SearchResults struct {
	Videos   []VideoWithOwner     `json:"videos"`
	Channels []models.UserSummary `json:"channels"`
	Tweets   []TweetView          `json:"tweets"`
}

// Search matches published videos, channels and tweets, each capped at limit.
func (e *Engine) Search(ctx context.Context, query string, limit int) (SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResults{}, apperr.Invalid("search query is missing")
	}
	_, limit, _, _ = normalizePage(1, limit)

	published := true
	videos, _, err := e.videos.List(ctx, repositories.VideoFilter{
		Query:     query,
		Published: &published,
		SortBy:    repositories.VideoSortViews,
		SortDesc:  true,
		Limit:     limit,
	})
	if err != nil {
		return SearchResults{}, fmt.Errorf("search videos: %w", err)
	}
	resolvedVideos, err := e.attachOwners(ctx, videos)
	if err != nil {
		return SearchResults{}, err
	}

	users, err := e.users.Search(ctx, query, limit)
	if err != nil {
		return SearchResults{}, fmt.Errorf("search channels: %w", err)
	}
	channels := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		channels = append(channels, u.Summary())
	}

	tweets, _, err := e.tweets.List(ctx, repositories.TweetFilter{
		Query:    query,
		SortBy:   repositories.TweetSortCreatedAt,
		SortDesc: true,
		Limit:    limit,
	})
	if err != nil {
		return SearchResults{}, fmt.Errorf("search tweets: %w", err)
	}
	resolvedTweets, err := e.resolveTweets(ctx, tweets)
	if err != nil {
		return SearchResults{}, err
	}

	return SearchResults{Videos: resolvedVideos, Channels: channels, Tweets: resolvedTweets}, nil
}
