package readmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// ChannelProfile is a user's public channel page as seen by a viewer.
type ChannelProfile struct {
	ID                       string    `json:"id"`
	Username                 string    `json:"username"`
	FullName                 string    `json:"fullName"`
	Email                    string    `json:"email"`
	Avatar                   string    `json:"avatar"`
	CoverImage               string    `json:"coverImage"`
	Bio                      string    `json:"bio"`
	CreatedAt                time.Time `json:"createdAt"`
	SubscriberCount          int64     `json:"subscriberCount"`
	ChannelSubscribedToCount int64     `json:"channelSubscribedToCount"`
	IsSubscribed             bool      `json:"isSubscribed"`
}

// SubscriberCount is the subscriber total of one channel.
type SubscriberCount struct {
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// SubscribedChannel is a channel the user follows with its live subscriber count.
type SubscribedChannel struct {
	models.UserSummary
	SubscribersCount int64     `json:"subscribersCount"`
	SubscribedAt     time.Time `json:"subscribedAt"`
}

// ChannelStats aggregates a channel's dashboard counters.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// lookup maps a repository miss onto a NotFound error with the given message.
func lookup(err error, action, missing string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("%s", missing)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// ChannelProfile resolves the channel by username and counts both sides of its subscriptions.
func (e *Engine) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return ChannelProfile{}, apperr.Invalid("username is missing")
	}

	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return ChannelProfile{}, lookup(err, "find channel", "channel does not exist")
	}

	counts, err := e.subs.CountByChannels(ctx, []string{user.ID})
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}
	following, err := e.subs.CountBySubscriber(ctx, user.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscriptions: %w", err)
	}
	subscribed := false
	if viewerID != "" {
		if subscribed, err = e.subs.Exists(ctx, viewerID, user.ID); err != nil {
			return ChannelProfile{}, fmt.Errorf("check subscription: %w", err)
		}
	}

	return ChannelProfile{
		ID:                       user.ID,
		Username:                 user.Username,
		FullName:                 user.FullName,
		Email:                    user.Email,
		Avatar:                   user.Avatar,
		CoverImage:               user.CoverImage,
		Bio:                      user.Bio,
		CreatedAt:                user.CreatedAt,
		SubscriberCount:          counts[user.ID],
		ChannelSubscribedToCount: following,
		IsSubscribed:             subscribed,
	}, nil
}

// ChannelSubscriberCount counts the subscribers of an existing channel.
func (e *Engine) ChannelSubscriberCount(ctx context.Context, channelID string) (SubscriberCount, error) {
	if _, err := e.users.FindByID(ctx, channelID); err != nil {
		return SubscriberCount{}, lookup(err, "find channel", "channel does not exist")
	}
	counts, err := e.subs.CountByChannels(ctx, []string{channelID})
	if err != nil {
		return SubscriberCount{}, fmt.Errorf("count subscribers: %w", err)
	}
	return SubscriberCount{TotalSubscribers: counts[channelID]}, nil
}

// SubscribedChannels lists the channels subscriberID follows, most recent subscription first.
func (e *Engine) SubscribedChannels(ctx context.Context, subscriberID string) ([]SubscribedChannel, error) {
	subs, err := e.subs.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return []SubscribedChannel{}, nil
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChannelID)
	}
	channels, err := e.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	byID := indexUsers(channels)
	counts, err := e.subs.CountByChannels(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}

	out := make([]SubscribedChannel, 0, len(subs))
	for _, s := range subs {
		channel, ok := byID[s.ChannelID]
		if !ok {
			continue
		}
		out = append(out, SubscribedChannel{
			UserSummary:      channel.Summary(),
			SubscribersCount: counts[s.ChannelID],
			SubscribedAt:     s.CreatedAt,
		})
	}
	return out, nil
}

// SubscribedChannelsVideos is the subscription feed: published videos of followed channels, newest first.
func (e *Engine) SubscribedChannelsVideos(ctx context.Context, userID string) ([]VideoWithOwner, error) {
	subs, err := e.subs.ListBySubscriber(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return []VideoWithOwner{}, nil
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChannelID)
	}

	videos, err := e.videos.ListByOwners(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("list channel videos: %w", err)
	}
	return e.attachOwners(ctx, videos)
}

// ChannelStats totals uploads, views, subscribers and video likes of a channel.
func (e *Engine) ChannelStats(ctx context.Context, channelID string) (ChannelStats, error) {
	if _, err := e.users.FindByID(ctx, channelID); err != nil {
		return ChannelStats{}, lookup(err, "find channel", "channel does not exist")
	}

	totals, err := e.videos.TotalsByOwner(ctx, channelID)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("video totals: %w", err)
	}
	subs, err := e.subs.CountByChannels(ctx, []string{channelID})
	if err != nil {
		return ChannelStats{}, fmt.Errorf("count subscribers: %w", err)
	}

	videos, err := e.videos.ListByOwners(ctx, []string{channelID}, false)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("list channel videos: %w", err)
	}
	var likes int64
	if len(videos) > 0 {
		ids := make([]string, 0, len(videos))
		for _, v := range videos {
			ids = append(ids, v.ID)
		}
		counts, err := e.likes.CountByTargets(ctx, models.TargetVideo, ids)
		if err != nil {
			return ChannelStats{}, fmt.Errorf("count video likes: %w", err)
		}
		for _, n := range counts {
			likes += n
		}
	}

	return ChannelStats{
		TotalVideos:      totals.Videos,
		TotalViews:       totals.Views,
		TotalSubscribers: subs[channelID],
		TotalLikes:       likes,
	}, nil
}

// ChannelVideos lists every video of the channel, unpublished included, newest first.
func (e *Engine) ChannelVideos(ctx context.Context, channelID string) ([]VideoWithOwner, error) {
	videos, err := e.videos.ListByOwners(ctx, []string{channelID}, false)
	if err != nil {
		return nil, fmt.Errorf("list channel videos: %w", err)
	}
	return e.attachOwners(ctx, videos)
}
