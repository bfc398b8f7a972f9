package handlers

import (
	"net/http"

	"github.com/videohub/backend/internal/readmodel"
)

// DashboardHandler serves channel statistics and combined search.
type DashboardHandler struct {
	Engine *readmodel.Engine
}

// Stats handles GET /dashboard/stats/{channelId}.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	stats, err := h.Engine.ChannelStats(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, stats, "channel stats fetched successfully")
}

// Videos handles GET /dashboard/videos: the caller's own videos, unpublished included.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videos, err := h.Engine.ChannelVideos(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, videos, "channel videos fetched successfully")
}

// Search handles GET /search/all?query=&limit=.
func (h DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	results, err := h.Engine.Search(ctx, r.URL.Query().Get("query"), limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, results, "search results fetched successfully")
}
