package handlers

import (
	"context"
	"net/http"

	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/engagement"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// LikeHandler implements like toggles and like lookups.
type LikeHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
}

type toggleFunc func(ctx context.Context, userID, targetID string) (engagement.LikeResult, error)

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param string, fn toggleFunc) {
	ctx := r.Context()
	id, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := fn(ctx, viewerID(ctx), id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "unliked successfully"
	if result.IsLiked {
		message = "liked successfully"
	}
	respondJSON(ctx, w, http.StatusOK, result, message)
}

// ToggleVideo handles POST /likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", h.Commands.ToggleVideoLike)
}

// ToggleComment handles POST /likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", h.Commands.ToggleCommentLike)
}

// ToggleTweet handles POST /likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", h.Commands.ToggleTweetLike)
}

// LikedVideos handles GET /likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videos, err := h.Engine.LikedVideos(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}

// CheckVideo handles GET /likes/check/v/{videoId}.
func (h LikeHandler) CheckVideo(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, "videoId", models.TargetVideo)
}

// CheckComment handles GET /likes/check/c/{commentId}.
func (h LikeHandler) CheckComment(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, "commentId", models.TargetComment)
}

func (h LikeHandler) check(w http.ResponseWriter, r *http.Request, param string, kind models.TargetKind) {
	ctx := r.Context()
	id, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	status, err := h.Engine.LikeStatus(ctx, viewerID(ctx), models.Target{Kind: kind, ID: id})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, status, "like status fetched successfully")
}
