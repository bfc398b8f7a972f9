package commands

import (
	"context"
	"strings"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// PollInput attaches a poll to a tweet. ExpiresIn is in seconds; zero means no end time.
type PollInput struct {
	Question  string   `json:"question" validate:"required,notblank,max=280"`
	Options   []string `json:"options" validate:"min=2,max=10,dive,required,notblank,max=100"`
	ExpiresIn int64    `json:"expiresIn" validate:"gte=0,lte=2592000"`
}

// CreateTweetInput posts a tweet. MediaPaths point at already-received local files.
type CreateTweetInput struct {
	Content       string     `json:"content" validate:"required,notblank,max=500"`
	Poll          *PollInput `json:"poll" validate:"omitempty"`
	ParentTweetID string     `json:"parentTweet" validate:"omitempty,uuid"`
	MediaPaths    []string   `json:"-" validate:"max=4"`
}

// UpdateTweetInput edits a tweet. Nil fields are left alone. Non-empty MediaPaths
// replace every attachment; RemovePoll drops the poll and its votes.
type UpdateTweetInput struct {
	Content    *string    `json:"content" validate:"omitempty,notblank,max=500"`
	Poll       *PollInput `json:"poll" validate:"omitempty"`
	RemovePoll bool       `json:"removePoll"`
	MediaPaths []string   `json:"-" validate:"max=4"`
}

func (s *Service) buildPoll(in *PollInput) *models.Poll {
	if in == nil {
		return nil
	}
	poll := &models.Poll{Question: strings.TrimSpace(in.Question), IsActive: true}
	for _, text := range in.Options {
		poll.Options = append(poll.Options, models.PollOption{Text: strings.TrimSpace(text), Votes: []string{}})
	}
	if in.ExpiresIn > 0 {
		end := s.now().Add(time.Duration(in.ExpiresIn) * time.Second)
		poll.EndTime = &end
	}
	return poll
}

// resolveMentions maps @usernames in content onto existing user IDs.
func (s *Service) resolveMentions(ctx context.Context, content string) ([]string, error) {
	names := mentionedUsernames(content)
	if len(names) == 0 {
		return []string{}, nil
	}
	users, err := s.store.Users.FindByUsernames(ctx, names)
	if err != nil {
		return nil, apperr.Internal("failed to resolve mentions", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// uploadMedia stores every attachment, discarding earlier uploads if a later one fails.
func (s *Service) uploadMedia(ctx context.Context, paths []string) ([]models.Media, error) {
	media := make([]models.Media, 0, len(paths))
	for _, p := range paths {
		asset, err := s.upload(ctx, p, "tweet media")
		if err != nil {
			for _, m := range media {
				s.discard(ctx, m.ExternalID)
			}
			return nil, err
		}
		media = append(media, models.Media{Type: mediaType(p), URL: asset.URL, ExternalID: asset.ExternalID})
	}
	return media, nil
}

func mediaIDs(media []models.Media) []string {
	ids := make([]string, 0, len(media))
	for _, m := range media {
		ids = append(ids, m.ExternalID)
	}
	return ids
}

// CreateTweet posts a tweet with derived hashtags and mentions.
func (s *Service) CreateTweet(ctx context.Context, ownerID string, in CreateTweetInput) (readmodel.TweetView, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.check(in); err != nil {
		return readmodel.TweetView{}, err
	}
	if in.ParentTweetID != "" {
		if _, err := s.store.Tweets.FindByID(ctx, in.ParentTweetID); err != nil {
			return readmodel.TweetView{}, translate(err, "create tweet", "parent tweet does not exist")
		}
	}
	mentions, err := s.resolveMentions(ctx, in.Content)
	if err != nil {
		return readmodel.TweetView{}, err
	}
	media, err := s.uploadMedia(ctx, in.MediaPaths)
	if err != nil {
		return readmodel.TweetView{}, err
	}

	now := s.now()
	tweet := models.Tweet{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Content:       in.Content,
		Media:         media,
		Poll:          s.buildPoll(in.Poll),
		Reactions:     []models.Reaction{},
		Retweets:      []string{},
		Mentions:      mentions,
		Hashtags:      hashtags(in.Content),
		ParentTweetID: in.ParentTweetID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Tweets.Create(ctx, tweet); err != nil {
		s.discard(ctx, mediaIDs(media)...)
		return readmodel.TweetView{}, apperr.Internal("failed to create tweet", err)
	}
	return s.engine.Tweet(ctx, tweet.ID)
}

func (s *Service) ownedTweet(ctx context.Context, tweetID, actorID string) (models.Tweet, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return models.Tweet{}, err
	}
	tweet, err := s.store.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, translate(err, "load tweet", "tweet does not exist")
	}
	return tweet, requireOwner(tweet.OwnerID, actorID, "tweet")
}

// UpdateTweet edits content, poll and media of the caller's tweet.
func (s *Service) UpdateTweet(ctx context.Context, tweetID, actorID string, in UpdateTweetInput) (readmodel.TweetView, error) {
	if err := s.check(in); err != nil {
		return readmodel.TweetView{}, err
	}
	if in.Content == nil && in.Poll == nil && !in.RemovePoll && len(in.MediaPaths) == 0 {
		return readmodel.TweetView{}, apperr.Invalid("nothing to update")
	}
	if in.Poll != nil && in.RemovePoll {
		return readmodel.TweetView{}, apperr.Invalid("poll and removePoll are mutually exclusive")
	}
	tweet, err := s.ownedTweet(ctx, tweetID, actorID)
	if err != nil {
		return readmodel.TweetView{}, err
	}

	if in.Content != nil {
		tweet.Content = strings.TrimSpace(*in.Content)
		tweet.Hashtags = hashtags(tweet.Content)
		if tweet.Mentions, err = s.resolveMentions(ctx, tweet.Content); err != nil {
			return readmodel.TweetView{}, err
		}
	}

	var replaced []string
	if len(in.MediaPaths) > 0 {
		media, err := s.uploadMedia(ctx, in.MediaPaths)
		if err != nil {
			return readmodel.TweetView{}, err
		}
		replaced = mediaIDs(tweet.Media)
		tweet.Media = media
	}

	tweet.UpdatedAt = s.now()
	if err := s.store.Tweets.Update(ctx, tweet); err != nil {
		if len(in.MediaPaths) > 0 {
			s.discard(ctx, mediaIDs(tweet.Media)...)
		}
		return readmodel.TweetView{}, translate(err, "update tweet", "tweet does not exist")
	}
	s.discard(ctx, replaced...)

	if in.Poll != nil || in.RemovePoll {
		if err := s.store.Tweets.ReplacePoll(ctx, tweetID, s.buildPoll(in.Poll)); err != nil {
			return readmodel.TweetView{}, translate(err, "update poll", "tweet does not exist")
		}
	}
	return s.engine.Tweet(ctx, tweetID)
}

// DeleteTweet removes the caller's tweet, its likes, comments and media.
func (s *Service) DeleteTweet(ctx context.Context, tweetID, actorID string) error {
	tweet, err := s.ownedTweet(ctx, tweetID, actorID)
	if err != nil {
		return err
	}
	if err := s.store.Tweets.Delete(ctx, tweetID); err != nil {
		return translate(err, "delete tweet", "tweet does not exist")
	}
	s.cascadeFailed(ctx, "tweet", tweetID, s.engagement.PurgeTweet(ctx, tweetID))
	s.discard(ctx, mediaIDs(tweet.Media)...)
	return nil
}

// ViewTweet counts a view and returns the tweet.
func (s *Service) ViewTweet(ctx context.Context, tweetID string) (readmodel.TweetView, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return readmodel.TweetView{}, err
	}
	if err := s.store.Tweets.IncrementViews(ctx, tweetID, s.now()); err != nil {
		return readmodel.TweetView{}, translate(err, "record tweet view", "tweet does not exist")
	}
	return s.engine.Tweet(ctx, tweetID)
}
