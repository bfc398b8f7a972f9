package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// React applies a reaction: the same type again removes it, a different type replaces it.
// It returns the tweet's reactions after the write.
func (m *Maintainer) React(ctx context.Context, userID, tweetID string, reaction models.ReactionType) ([]models.Reaction, error) {
	if !reaction.Valid() {
		return nil, apperr.Invalid("unknown reaction type %q", reaction)
	}
	if _, err := m.tweets.FindByID(ctx, tweetID); err != nil {
		return nil, missing(err, "find tweet", "tweet does not exist")
	}

	current, err := m.tweets.FindReaction(ctx, tweetID, userID)
	switch {
	case err == nil && current.Type == reaction:
		if _, err := m.tweets.RemoveReaction(ctx, tweetID, userID, m.now()); err != nil {
			return nil, fmt.Errorf("remove reaction: %w", err)
		}
	case err == nil || errors.Is(err, repositories.ErrNotFound):
		if err := m.tweets.PutReaction(ctx, tweetID, models.Reaction{UserID: userID, Type: reaction}, m.now()); err != nil {
			return nil, fmt.Errorf("put reaction: %w", err)
		}
	default:
		return nil, fmt.Errorf("find reaction: %w", err)
	}

	tweet, err := m.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return nil, missing(err, "reload tweet", "tweet does not exist")
	}
	return tweet.Reactions, nil
}

// Vote records userID's choice. Each user votes once per poll; there is no unvote.
// A poll past its end time is deactivated by the vote that discovers it.
func (m *Maintainer) Vote(ctx context.Context, userID, tweetID string, option int) (models.Poll, error) {
	tweet, err := m.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Poll{}, missing(err, "find tweet", "tweet does not exist")
	}
	poll := tweet.Poll
	if poll == nil {
		return models.Poll{}, apperr.Invalid("tweet has no poll")
	}
	if !poll.IsActive {
		return models.Poll{}, apperr.Invalid("poll is closed")
	}
	now := m.now()
	if poll.Expired(now) {
		if err := m.tweets.SetPollActive(ctx, tweetID, false, now); err != nil {
			return models.Poll{}, fmt.Errorf("deactivate poll: %w", err)
		}
		return models.Poll{}, apperr.Invalid("poll has ended")
	}
	if option < 0 || option >= len(poll.Options) {
		return models.Poll{}, apperr.Invalid("option index %d is out of range", option)
	}

	added, err := m.tweets.AddVote(ctx, tweetID, userID, option, now)
	if err != nil {
		return models.Poll{}, missing(err, "add vote", "tweet has no poll")
	}
	if !added {
		return models.Poll{}, apperr.Invalid("you have already voted in this poll")
	}

	tweet, err = m.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Poll{}, missing(err, "reload tweet", "tweet does not exist")
	}
	if tweet.Poll == nil {
		return models.Poll{}, apperr.NotFound("tweet has no poll")
	}
	return *tweet.Poll, nil
}

// ToggleRetweet retweets or un-retweets.
func (m *Maintainer) ToggleRetweet(ctx context.Context, userID, tweetID string) (RetweetResult, error) {
	if _, err := m.tweets.FindByID(ctx, tweetID); err != nil {
		return RetweetResult{}, missing(err, "find tweet", "tweet does not exist")
	}

	retweeted, err := m.tweets.AddRetweet(ctx, tweetID, userID, m.now())
	if err != nil {
		return RetweetResult{}, missing(err, "add retweet", "tweet does not exist")
	}
	if !retweeted {
		if _, err := m.tweets.RemoveRetweet(ctx, tweetID, userID, m.now()); err != nil {
			return RetweetResult{}, missing(err, "remove retweet", "tweet does not exist")
		}
	}

	tweet, err := m.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return RetweetResult{}, missing(err, "reload tweet", "tweet does not exist")
	}
	return RetweetResult{Retweeted: retweeted, RetweetCount: len(tweet.Retweets)}, nil
}

// ExpirePolls deactivates every active poll whose end time is at or before now.
func (m *Maintainer) ExpirePolls(ctx context.Context, now time.Time) (int64, error) {
	n, err := m.tweets.DeactivateExpiredPolls(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired polls: %w", err)
	}
	if n > 0 {
		m.logger.Info("expired polls closed", zap.Int64("count", n))
	}
	return n, nil
}
