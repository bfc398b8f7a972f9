package commands

import (
	"context"

	"github.com/videohub/backend/internal/engagement"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// ToggleVideoLike likes or unlikes a video.
func (s *Service) ToggleVideoLike(ctx context.Context, userID, videoID string) (engagement.LikeResult, error) {
	if err := requireID(videoID, "video"); err != nil {
		return engagement.LikeResult{}, err
	}
	res, err := s.engagement.ToggleVideoLike(ctx, userID, videoID)
	return res, translate(err, "toggle video like", "video does not exist")
}

// ToggleCommentLike likes or unlikes a comment.
func (s *Service) ToggleCommentLike(ctx context.Context, userID, commentID string) (engagement.LikeResult, error) {
	if err := requireID(commentID, "comment"); err != nil {
		return engagement.LikeResult{}, err
	}
	res, err := s.engagement.ToggleCommentLike(ctx, userID, commentID)
	return res, translate(err, "toggle comment like", "comment does not exist")
}

// ToggleTweetLike likes or unlikes a tweet.
func (s *Service) ToggleTweetLike(ctx context.Context, userID, tweetID string) (engagement.LikeResult, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return engagement.LikeResult{}, err
	}
	res, err := s.engagement.ToggleTweetLike(ctx, userID, tweetID)
	return res, translate(err, "toggle tweet like", "tweet does not exist")
}

// ToggleSubscription subscribes to or unsubscribes from a channel.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (engagement.SubscriptionResult, error) {
	if err := requireID(channelID, "channel"); err != nil {
		return engagement.SubscriptionResult{}, err
	}
	res, err := s.engagement.ToggleSubscription(ctx, subscriberID, channelID)
	return res, translate(err, "toggle subscription", "channel does not exist")
}

// ReactInput names the reaction to apply.
type ReactInput struct {
	Type string `json:"type" validate:"required,oneof=like love haha wow sad angry"`
}

// React applies a reaction and returns the tweet's resolved reactions.
func (s *Service) React(ctx context.Context, userID, tweetID string, in ReactInput) (readmodel.TweetReactions, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return readmodel.TweetReactions{}, err
	}
	if err := s.check(in); err != nil {
		return readmodel.TweetReactions{}, err
	}
	reactions, err := s.engagement.React(ctx, userID, tweetID, models.ReactionType(in.Type))
	if err != nil {
		return readmodel.TweetReactions{}, translate(err, "react to tweet", "tweet does not exist")
	}
	resolved, err := s.engine.ResolveReactions(ctx, reactions)
	return resolved, translate(err, "resolve reactions", "tweet does not exist")
}

// VoteInput selects a poll option by index.
type VoteInput struct {
	OptionIndex *int `json:"optionIndex" validate:"required,gte=0"`
}

// Vote records the caller's poll choice and returns the updated results.
func (s *Service) Vote(ctx context.Context, userID, tweetID string, in VoteInput) (readmodel.PollResults, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return readmodel.PollResults{}, err
	}
	if err := s.check(in); err != nil {
		return readmodel.PollResults{}, err
	}
	poll, err := s.engagement.Vote(ctx, userID, tweetID, *in.OptionIndex)
	if err != nil {
		return readmodel.PollResults{}, translate(err, "vote", "tweet does not exist")
	}
	return readmodel.SummarisePoll(poll, userID, s.now()), nil
}

// ToggleRetweet retweets or un-retweets.
func (s *Service) ToggleRetweet(ctx context.Context, userID, tweetID string) (engagement.RetweetResult, error) {
	if err := requireID(tweetID, "tweet"); err != nil {
		return engagement.RetweetResult{}, err
	}
	res, err := s.engagement.ToggleRetweet(ctx, userID, tweetID)
	return res, translate(err, "toggle retweet", "tweet does not exist")
}
