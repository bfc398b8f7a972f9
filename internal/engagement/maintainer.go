// Package engagement keeps derived state consistent with the records it is derived
// from: like toggles and the "Liked Videos" mirror playlist, subscriptions, tweet
// reactions, poll votes, retweets and the cascades that follow a deletion.
//
// Every toggle is built on a conditional insert that reports whether it created the
// row; when it did not, the toggle deletes instead. Two concurrent toggles can
// therefore never leave duplicate rows behind.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

const likedVideosDescription = "Videos you liked"

// Maintainer applies engagement writes and their denormalized side effects.
type Maintainer struct {
	users     repositories.UserRepository
	videos    repositories.VideoRepository
	comments  repositories.CommentRepository
	likes     repositories.LikeRepository
	subs      repositories.SubscriptionRepository
	playlists repositories.PlaylistRepository
	tweets    repositories.TweetRepository

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewMaintainer builds a Maintainer over store.
func NewMaintainer(store repositories.Store, logger *zap.Logger) *Maintainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maintainer{
		users:     store.Users,
		videos:    store.Videos,
		comments:  store.Comments,
		likes:     store.Likes,
		subs:      store.Subscriptions,
		playlists: store.Playlists,
		tweets:    store.Tweets,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// LikeResult is the state of a like after a toggle.
type LikeResult struct {
	IsLiked    bool  `json:"isLiked"`
	TotalLikes int64 `json:"totalLikes"`
}

// SubscriptionResult is the state of a subscription after a toggle.
type SubscriptionResult struct {
	Subscribed      bool  `json:"subscribed"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// RetweetResult is the state of a retweet after a toggle.
type RetweetResult struct {
	Retweeted    bool `json:"retweeted"`
	RetweetCount int  `json:"retweetCount"`
}

func missing(err error, action, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("%s", message)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// toggleLike inserts the like or, when it already exists, removes it.
func (m *Maintainer) toggleLike(ctx context.Context, userID string, target models.Target) (bool, error) {
	now := m.now()
	created, err := m.likes.Add(ctx, models.Like{ID: m.newID(), LikedBy: userID, Target: target, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return false, fmt.Errorf("add like: %w", err)
	}
	if created {
		return true, nil
	}
	if _, err := m.likes.Remove(ctx, userID, target); err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	return false, nil
}

func (m *Maintainer) countLikes(ctx context.Context, target models.Target) (int64, error) {
	counts, err := m.likes.CountByTargets(ctx, target.Kind, []string{target.ID})
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return counts[target.ID], nil
}

// ToggleVideoLike likes or unlikes a video and mirrors the change into the user's Liked Videos playlist.
// Another owner's unpublished video does not exist as far as userID is concerned.
func (m *Maintainer) ToggleVideoLike(ctx context.Context, userID, videoID string) (LikeResult, error) {
	video, err := m.videos.FindByID(ctx, videoID)
	if err != nil {
		return LikeResult{}, missing(err, "find video", "video does not exist")
	}
	if !video.VisibleTo(userID) {
		return LikeResult{}, apperr.NotFound("video does not exist")
	}

	target := models.VideoTarget(videoID)
	liked, err := m.toggleLike(ctx, userID, target)
	if err != nil {
		return LikeResult{}, err
	}
	if liked {
		err = m.mirrorLike(ctx, userID, videoID)
	} else {
		err = m.mirrorUnlike(ctx, userID, videoID)
	}
	if err != nil {
		return LikeResult{}, err
	}

	total, err := m.countLikes(ctx, target)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{IsLiked: liked, TotalLikes: total}, nil
}

// mirrorLike creates the mirror seeded with videoID, or prepends videoID when the mirror exists.
func (m *Maintainer) mirrorLike(ctx context.Context, userID, videoID string) error {
	now := m.now()
	err := m.playlists.Create(ctx, models.Playlist{
		ID:          m.newID(),
		OwnerID:     userID,
		Name:        models.LikedVideosPlaylist,
		Description: likedVideosDescription,
		Videos:      []string{videoID},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrConflict) {
		return fmt.Errorf("create liked videos playlist: %w", err)
	}

	mirror, err := m.playlists.FindByOwnerAndName(ctx, userID, models.LikedVideosPlaylist)
	if err != nil {
		return fmt.Errorf("find liked videos playlist: %w", err)
	}
	if _, err := m.playlists.PrependVideo(ctx, mirror.ID, videoID, now); err != nil {
		return fmt.Errorf("add to liked videos playlist: %w", err)
	}
	return nil
}

func (m *Maintainer) mirrorUnlike(ctx context.Context, userID, videoID string) error {
	mirror, err := m.playlists.FindByOwnerAndName(ctx, userID, models.LikedVideosPlaylist)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find liked videos playlist: %w", err)
	}
	if _, err := m.playlists.RemoveVideo(ctx, mirror.ID, videoID, m.now()); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("remove from liked videos playlist: %w", err)
	}
	return nil
}

// ToggleCommentLike likes or unlikes a comment.
func (m *Maintainer) ToggleCommentLike(ctx context.Context, userID, commentID string) (LikeResult, error) {
	if _, err := m.comments.FindByID(ctx, commentID); err != nil {
		return LikeResult{}, missing(err, "find comment", "comment does not exist")
	}
	return m.toggleAndCount(ctx, userID, models.CommentTarget(commentID))
}

// ToggleTweetLike likes or unlikes a tweet.
func (m *Maintainer) ToggleTweetLike(ctx context.Context, userID, tweetID string) (LikeResult, error) {
	if _, err := m.tweets.FindByID(ctx, tweetID); err != nil {
		return LikeResult{}, missing(err, "find tweet", "tweet does not exist")
	}
	return m.toggleAndCount(ctx, userID, models.TweetTarget(tweetID))
}

func (m *Maintainer) toggleAndCount(ctx context.Context, userID string, target models.Target) (LikeResult, error) {
	liked, err := m.toggleLike(ctx, userID, target)
	if err != nil {
		return LikeResult{}, err
	}
	total, err := m.countLikes(ctx, target)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{IsLiked: liked, TotalLikes: total}, nil
}

// ToggleSubscription subscribes to or unsubscribes from a channel.
func (m *Maintainer) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (SubscriptionResult, error) {
	if subscriberID == channelID {
		return SubscriptionResult{}, apperr.Invalid("you cannot subscribe to your own channel")
	}
	if _, err := m.users.FindByID(ctx, channelID); err != nil {
		return SubscriptionResult{}, missing(err, "find channel", "channel does not exist")
	}

	now := m.now()
	subscribed, err := m.subs.Add(ctx, models.Subscription{
		ID: m.newID(), SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("add subscription: %w", err)
	}
	if !subscribed {
		if _, err := m.subs.Remove(ctx, subscriberID, channelID); err != nil {
			return SubscriptionResult{}, fmt.Errorf("remove subscription: %w", err)
		}
	}

	counts, err := m.subs.CountByChannels(ctx, []string{channelID})
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("count subscribers: %w", err)
	}
	return SubscriptionResult{Subscribed: subscribed, SubscriberCount: counts[channelID]}, nil
}
