package handlers

import (
	"net/http"

	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// CommentHandler implements comment endpoints for videos and tweets.
type CommentHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
}

// VideoComments handles GET /comments/{videoId}.
func (h CommentHandler) VideoComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	comments, err := h.Engine.VideoComments(ctx, videoID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// TweetComments handles GET /comments/tweets/{tweetId}/comment.
func (h CommentHandler) TweetComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	comments, err := h.Engine.TweetComments(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// AddToVideo handles POST /comments/{videoId}.
func (h CommentHandler) AddToVideo(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, models.TargetVideo, "videoId")
}

// AddToTweet handles POST /comments/tweets/{tweetId}/comment.
func (h CommentHandler) AddToTweet(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, models.TargetTweet, "tweetId")
}

func (h CommentHandler) add(w http.ResponseWriter, r *http.Request, kind models.TargetKind, param string) {
	ctx := r.Context()
	id, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Commands.AddComment(ctx, viewerID(ctx), models.Target{Kind: kind, ID: id}, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// UpdateVideoComment handles PATCH /comments/c/{commentId}.
func (h CommentHandler) UpdateVideoComment(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, models.TargetVideo)
}

// UpdateTweetComment handles PATCH /comments/tweet-comments/{commentId}.
func (h CommentHandler) UpdateTweetComment(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, models.TargetTweet)
}

func (h CommentHandler) update(w http.ResponseWriter, r *http.Request, kind models.TargetKind) {
	ctx := r.Context()
	commentID, err := pathID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Commands.UpdateComment(ctx, commentID, kind, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// DeleteVideoComment handles DELETE /comments/c/{commentId}.
func (h CommentHandler) DeleteVideoComment(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, models.TargetVideo)
}

// DeleteTweetComment handles DELETE /comments/tweet-comments/{commentId}.
func (h CommentHandler) DeleteTweetComment(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, models.TargetTweet)
}

func (h CommentHandler) delete(w http.ResponseWriter, r *http.Request, kind models.TargetKind) {
	ctx := r.Context()
	commentID, err := pathID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Commands.DeleteComment(ctx, commentID, kind, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}
