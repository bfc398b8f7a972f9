package handlers

import (
	"net/http"
	"strings"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/readmodel"
)

// VideoHandler implements video listing, playback and publishing endpoints.
type VideoHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
	Uploads  Uploads
}

func videoQuery(r *http.Request) (readmodel.VideoQuery, error) {
	page, limit, err := pageParams(r)
	if err != nil {
		return readmodel.VideoQuery{}, err
	}
	q := r.URL.Query()
	return readmodel.VideoQuery{
		Query:    strings.TrimSpace(q.Get("query")),
		OwnerID:  strings.TrimSpace(q.Get("userId")),
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		Page:     page,
		Limit:    limit,
	}, nil
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request, q readmodel.VideoQuery, message string) {
	ctx := r.Context()
	result, err := h.Engine.Videos(ctx, q)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result, message)
}

// All handles GET /videos/all.
func (h VideoHandler) All(w http.ResponseWriter, r *http.Request) {
	q, err := videoQuery(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.list(w, r, q, "videos fetched successfully")
}

// Search handles GET /videos/search. A query is required.
func (h VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := videoQuery(r)
	if err == nil && q.Query == "" {
		err = apperr.Invalid("query is required")
	}
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.list(w, r, q, "search results fetched successfully")
}

// ByUser handles GET /videos/user/{userId}. Owners also see their unpublished videos.
func (h VideoHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "userId")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	q, err := videoQuery(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	q.OwnerID = ownerID
	q.IncludeUnpublished = ownerID == viewerID(r.Context())
	h.list(w, r, q, "user videos fetched successfully")
}

// Publish handles POST /videos/upload-video (multipart with videoFile and thumbnail).
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !isMultipart(r) {
		respondError(ctx, w, apperr.Invalid("video must be sent as multipart/form-data"))
		return
	}
	var in commands.PublishVideoInput
	files, err := h.Uploads.decodeForm(w, r, &in, "videoFile", "thumbnail")
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.VideoPath, in.ThumbnailPath = files.first("videoFile"), files.first("thumbnail")

	video, err := h.Commands.PublishVideo(ctx, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Watch handles GET /videos/user-video/{videoId} and records the view.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	detail, err := h.Commands.WatchVideo(ctx, videoID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /videos/update-video/{videoId} (JSON or multipart with an optional thumbnail).
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.UpdateVideoInput
	files, err := h.Uploads.decodeForm(w, r, &in, "thumbnail")
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.ThumbnailPath = files.first("thumbnail")

	video, err := h.Commands.UpdateVideo(ctx, videoID, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /videos/delete-video/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Commands.DeleteVideo(ctx, videoID, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	video, err := h.Commands.TogglePublish(ctx, videoID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video, "publish status toggled")
}
