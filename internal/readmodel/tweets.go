package readmodel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// ReactionView is a reaction with the reacting user's identity.
type ReactionView struct {
	Type models.ReactionType `json:"type"`
	User models.UserSummary  `json:"user"`
}

// TweetView is a tweet joined to its owner, reacting users and counters.
type TweetView struct {
	models.Tweet
	OwnerDetails    models.UserSummary `json:"ownerDetails"`
	ReactionDetails []ReactionView     `json:"reactionDetails"`
	ReactionCount   int                `json:"reactionCount"`
	RetweetCount    int                `json:"retweetCount"`
	LikesCount      int64              `json:"likesCount"`
}

// TweetQuery selects one page of the global feed.
type TweetQuery struct {
	Query    string
	OwnerID  string
	SortBy   string
	SortType string
	Page     int
	Limit    int
}

// TweetPage is one page of tweets.
type TweetPage struct {
	Tweets      []TweetView `json:"tweets"`
	TotalTweets int64       `json:"totalTweets"`
	Paging
}

// TweetReactions lists the reactions of a tweet with per-type tallies.
type TweetReactions struct {
	Reactions []ReactionView              `json:"reactions"`
	Counts    map[models.ReactionType]int `json:"counts"`
	Total     int                         `json:"total"`
}

// PollOptionResult is one option of a poll with its tally.
type PollOptionResult struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollResults summarises a poll for a viewer.
type PollResults struct {
	Question   string             `json:"question"`
	Options    []PollOptionResult `json:"options"`
	TotalVotes int                `json:"totalVotes"`
	IsActive   bool               `json:"isActive"`
	EndTime    *time.Time         `json:"endTime,omitempty"`
	// UserVote is the viewer's option index, or -1.
	UserVote int `json:"userVote"`
}

// Tweet resolves one tweet.
func (e *Engine) Tweet(ctx context.Context, tweetID string) (TweetView, error) {
	tweet, err := e.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return TweetView{}, lookup(err, "find tweet", "tweet does not exist")
	}
	views, err := e.resolveTweets(ctx, []models.Tweet{tweet})
	if err != nil {
		return TweetView{}, err
	}
	if len(views) == 0 {
		return TweetView{}, apperr.NotFound("tweet does not exist")
	}
	return views[0], nil
}

// UserTweets lists a user's tweets, newest first.
func (e *Engine) UserTweets(ctx context.Context, userID string) ([]TweetView, error) {
	if _, err := e.users.FindByID(ctx, userID); err != nil {
		return nil, lookup(err, "find user", "user does not exist")
	}
	tweets, _, err := e.tweets.List(ctx, repositories.TweetFilter{
		OwnerID:  userID,
		SortBy:   repositories.TweetSortCreatedAt,
		SortDesc: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list user tweets: %w", err)
	}
	return e.resolveTweets(ctx, tweets)
}

// Tweets pages the global feed.
func (e *Engine) Tweets(ctx context.Context, q TweetQuery) (TweetPage, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = repositories.TweetSortCreatedAt
	}
	if !repositories.ValidTweetSort(sortBy) {
		return TweetPage{}, apperr.Invalid("cannot sort by %q", q.SortBy)
	}
	desc, err := sortDescending(q.SortType)
	if err != nil {
		return TweetPage{}, err
	}

	page, limit, offset, err := normalizePage(q.Page, q.Limit)
	if err != nil {
		return TweetPage{}, err
	}
	tweets, total, err := e.tweets.List(ctx, repositories.TweetFilter{
		OwnerID:  q.OwnerID,
		Query:    strings.TrimSpace(q.Query),
		SortBy:   sortBy,
		SortDesc: desc,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return TweetPage{}, fmt.Errorf("list tweets: %w", err)
	}
	views, err := e.resolveTweets(ctx, tweets)
	if err != nil {
		return TweetPage{}, err
	}
	return TweetPage{Tweets: views, TotalTweets: total, Paging: paging(page, limit, total)}, nil
}

// TweetReactions resolves the reacting users of a tweet.
func (e *Engine) TweetReactions(ctx context.Context, tweetID string) (TweetReactions, error) {
	tweet, err := e.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return TweetReactions{}, lookup(err, "find tweet", "tweet does not exist")
	}
	return e.ResolveReactions(ctx, tweet.Reactions)
}

// ResolveReactions joins reactions to their users and tallies them per type.
func (e *Engine) ResolveReactions(ctx context.Context, reactions []models.Reaction) (TweetReactions, error) {
	ids := make([]string, 0, len(reactions))
	for _, r := range reactions {
		ids = append(ids, r.UserID)
	}
	var users []models.User
	if len(ids) > 0 {
		var err error
		if users, err = e.users.FindByIDs(ctx, ids); err != nil {
			return TweetReactions{}, fmt.Errorf("load reacting users: %w", err)
		}
	}
	resolved := resolveReactions(reactions, indexUsers(users))

	counts := make(map[models.ReactionType]int, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}
	for _, r := range resolved {
		counts[r.Type]++
	}
	return TweetReactions{Reactions: resolved, Counts: counts, Total: len(resolved)}, nil
}

// PollResults tallies the tweet's poll for viewerID. An expired poll reads as inactive.
func (e *Engine) PollResults(ctx context.Context, tweetID, viewerID string) (PollResults, error) {
	tweet, err := e.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return PollResults{}, lookup(err, "find tweet", "tweet does not exist")
	}
	if tweet.Poll == nil {
		return PollResults{}, apperr.NotFound("tweet has no poll")
	}
	return SummarisePoll(*tweet.Poll, viewerID, e.now()), nil
}

// SummarisePoll builds the viewer's poll summary at time now.
func SummarisePoll(poll models.Poll, viewerID string, now time.Time) PollResults {
	options := make([]PollOptionResult, 0, len(poll.Options))
	for _, opt := range poll.Options {
		options = append(options, PollOptionResult{Text: opt.Text, Votes: len(opt.Votes)})
	}
	vote := -1
	if viewerID != "" {
		vote = poll.VoteOf(viewerID)
	}
	return PollResults{
		Question:   poll.Question,
		Options:    options,
		TotalVotes: poll.TotalVotes(),
		IsActive:   poll.IsActive && !poll.Expired(now),
		EndTime:    poll.EndTime,
		UserVote:   vote,
	}
}

func resolveReactions(reactions []models.Reaction, users map[string]models.User) []ReactionView {
	out := make([]ReactionView, 0, len(reactions))
	for _, r := range reactions {
		u, ok := users[r.UserID]
		if !ok {
			continue
		}
		out = append(out, ReactionView{Type: r.Type, User: u.Summary()})
	}
	return out
}

// resolveTweets joins tweets to owners and reacting users in one lookup and counts likes in another.
func (e *Engine) resolveTweets(ctx context.Context, tweets []models.Tweet) ([]TweetView, error) {
	if len(tweets) == 0 {
		return []TweetView{}, nil
	}

	var userIDs []string
	tweetIDs := make([]string, 0, len(tweets))
	for _, t := range tweets {
		tweetIDs = append(tweetIDs, t.ID)
		userIDs = append(userIDs, t.OwnerID)
		for _, r := range t.Reactions {
			userIDs = append(userIDs, r.UserID)
		}
	}
	users, err := e.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load tweet users: %w", err)
	}
	likes, err := e.likes.CountByTargets(ctx, models.TargetTweet, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("count tweet likes: %w", err)
	}
	userByID := indexUsers(users)

	out := make([]TweetView, 0, len(tweets))
	for _, t := range tweets {
		owner, ok := userByID[t.OwnerID]
		if !ok {
			continue
		}
		out = append(out, TweetView{
			Tweet:           t,
			OwnerDetails:    owner.Summary(),
			ReactionDetails: resolveReactions(t.Reactions, userByID),
			ReactionCount:   len(t.Reactions),
			RetweetCount:    len(t.Retweets),
			LikesCount:      likes[t.ID],
		})
	}
	return out, nil
}
