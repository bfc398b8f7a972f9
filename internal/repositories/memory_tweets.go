package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/videohub/backend/internal/models"
)

// memoryTweets implements TweetRepository.
type memoryTweets struct{ db *memoryDB }

func cloneTweet(t models.Tweet) models.Tweet {
	out := t
	out.Media = append([]models.Media{}, t.Media...)
	out.Reactions = append([]models.Reaction{}, t.Reactions...)
	out.Retweets = cloneStrings(t.Retweets)
	out.Mentions = cloneStrings(t.Mentions)
	out.Hashtags = cloneStrings(t.Hashtags)
	out.Poll = clonePoll(t.Poll)
	return out
}

func clonePoll(p *models.Poll) *models.Poll {
	if p == nil {
		return nil
	}
	out := *p
	out.Options = make([]models.PollOption, len(p.Options))
	for i, opt := range p.Options {
		out.Options[i] = models.PollOption{Text: opt.Text, Votes: cloneStrings(opt.Votes)}
	}
	if p.EndTime != nil {
		end := *p.EndTime
		out.EndTime = &end
	}
	return &out
}

func (r memoryTweets) Create(ctx context.Context, tweet models.Tweet) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tweets[tweet.ID]; ok {
		return ErrConflict
	}
	r.db.tweets[tweet.ID] = cloneTweet(tweet)
	r.db.stamp(tweet.ID)
	return nil
}

func (r memoryTweets) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tweets[id]
	if !ok {
		return models.Tweet{}, ErrNotFound
	}
	return cloneTweet(t), nil
}

func (r memoryTweets) List(ctx context.Context, filter TweetFilter) ([]models.Tweet, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matches []models.Tweet
	for _, t := range r.db.tweets {
		if filter.OwnerID != "" && t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Query != "" && !containsFold(t.Content, filter.Query) {
			continue
		}
		matches = append(matches, cloneTweet(t))
	}

	sortBy := filter.SortBy
	if !ValidTweetSort(sortBy) {
		sortBy = TweetSortCreatedAt
	}
	sort.SliceStable(matches, func(i, j int) bool {
		var c int
		switch sortBy {
		case TweetSortUpdatedAt:
			c = matches[i].UpdatedAt.Compare(matches[j].UpdatedAt)
		case TweetSortViews:
			c = compareInt64(matches[i].ViewCount, matches[j].ViewCount)
		default:
			c = matches[i].CreatedAt.Compare(matches[j].CreatedAt)
		}
		if c == 0 {
			c = compareInt64(r.db.seq[matches[i].ID], r.db.seq[matches[j].ID])
		}
		if filter.SortDesc {
			return c > 0
		}
		return c < 0
	})

	return page(matches, filter.Offset, filter.Limit), int64(len(matches)), nil
}

func (r memoryTweets) mutate(id string, fn func(*models.Tweet) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tweets[id]
	if !ok {
		return ErrNotFound
	}
	t = cloneTweet(t)
	if err := fn(&t); err != nil {
		return err
	}
	r.db.tweets[id] = t
	return nil
}

func (r memoryTweets) Update(ctx context.Context, tweet models.Tweet) error {
	return r.mutate(tweet.ID, func(t *models.Tweet) error {
		t.Content = tweet.Content
		t.Media = append([]models.Media{}, tweet.Media...)
		t.Mentions = cloneStrings(tweet.Mentions)
		t.Hashtags = cloneStrings(tweet.Hashtags)
		t.UpdatedAt = tweet.UpdatedAt
		return nil
	})
}

func (r memoryTweets) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tweets[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.tweets, id)
	return nil
}

func (r memoryTweets) IncrementViews(ctx context.Context, id string, now time.Time) error {
	return r.mutate(id, func(t *models.Tweet) error {
		t.ViewCount++
		t.UpdatedAt = now
		return nil
	})
}

func (r memoryTweets) ReplacePoll(ctx context.Context, tweetID string, poll *models.Poll) error {
	return r.mutate(tweetID, func(t *models.Tweet) error {
		t.Poll = clonePoll(poll)
		return nil
	})
}

func (r memoryTweets) AddVote(ctx context.Context, tweetID, voterID string, option int, now time.Time) (bool, error) {
	created := false
	err := r.mutate(tweetID, func(t *models.Tweet) error {
		if t.Poll == nil {
			return ErrNotFound
		}
		if option < 0 || option >= len(t.Poll.Options) {
			return fmt.Errorf("poll option %d out of range", option)
		}
		if t.Poll.VoteOf(voterID) >= 0 {
			return nil
		}
		t.Poll.Options[option].Votes = append(t.Poll.Options[option].Votes, voterID)
		t.UpdatedAt = now
		created = true
		return nil
	})
	return created, err
}

func (r memoryTweets) SetPollActive(ctx context.Context, tweetID string, active bool, now time.Time) error {
	return r.mutate(tweetID, func(t *models.Tweet) error {
		if t.Poll == nil {
			return ErrNotFound
		}
		t.Poll.IsActive = active
		t.UpdatedAt = now
		return nil
	})
}

func (r memoryTweets) DeactivateExpiredPolls(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, t := range r.db.tweets {
		if t.Poll == nil || !t.Poll.IsActive || !t.Poll.Expired(now) {
			continue
		}
		t = cloneTweet(t)
		t.Poll.IsActive = false
		t.UpdatedAt = now
		r.db.tweets[id] = t
		n++
	}
	return n, nil
}

func (r memoryTweets) FindReaction(ctx context.Context, tweetID, userID string) (models.Reaction, error) {
	t, err := r.FindByID(ctx, tweetID)
	if err != nil {
		return models.Reaction{}, err
	}
	for _, reaction := range t.Reactions {
		if reaction.UserID == userID {
			return reaction, nil
		}
	}
	return models.Reaction{}, ErrNotFound
}

func (r memoryTweets) PutReaction(ctx context.Context, tweetID string, reaction models.Reaction, now time.Time) error {
	return r.mutate(tweetID, func(t *models.Tweet) error {
		t.UpdatedAt = now
		for i := range t.Reactions {
			if t.Reactions[i].UserID == reaction.UserID {
				t.Reactions[i].Type = reaction.Type
				return nil
			}
		}
		t.Reactions = append(t.Reactions, reaction)
		return nil
	})
}

func (r memoryTweets) RemoveReaction(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	removed := false
	err := r.mutate(tweetID, func(t *models.Tweet) error {
		kept := t.Reactions[:0]
		for _, reaction := range t.Reactions {
			if reaction.UserID == userID {
				removed = true
				continue
			}
			kept = append(kept, reaction)
		}
		t.Reactions = kept
		if removed {
			t.UpdatedAt = now
		}
		return nil
	})
	return removed, err
}

func (r memoryTweets) AddRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	added := false
	err := r.mutate(tweetID, func(t *models.Tweet) error {
		for _, id := range t.Retweets {
			if id == userID {
				return nil
			}
		}
		t.Retweets = append(t.Retweets, userID)
		t.UpdatedAt = now
		added = true
		return nil
	})
	return added, err
}

func (r memoryTweets) RemoveRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	removed := false
	err := r.mutate(tweetID, func(t *models.Tweet) error {
		var ok bool
		t.Retweets, ok = without(t.Retweets, userID)
		removed = ok
		if ok {
			t.UpdatedAt = now
		}
		return nil
	})
	return removed, err
}
