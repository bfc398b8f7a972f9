package handlers

import (
	"net/http"

	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/readmodel"
)

// SubscriptionHandler implements subscription toggles and subscription views.
type SubscriptionHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
}

// Toggle handles POST /subscriptions/channel/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := h.Commands.ToggleSubscription(ctx, viewerID(ctx), channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "unsubscribed successfully"
	if result.Subscribed {
		message = "subscribed successfully"
	}
	respondJSON(ctx, w, http.StatusOK, result, message)
}

// SubscriberCount handles GET /subscriptions/channel/{channelId}.
func (h SubscriptionHandler) SubscriberCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	count, err := h.Engine.ChannelSubscriberCount(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, count, "subscriber count fetched successfully")
}

// Subscribed handles GET /subscriptions/subscribed/{subscriberId}.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	channels, err := h.Engine.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}

// Feed handles GET /subscriptions/videos.
func (h SubscriptionHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videos, err := h.Engine.SubscribedChannelsVideos(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, videos, "subscription feed fetched successfully")
}
