package handlers

import (
	"net/http"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/readmodel"
)

// PlaylistHandler implements playlist endpoints, including the Liked Videos mirror.
type PlaylistHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
}

// Create handles POST /playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.CreatePlaylistInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Commands.CreatePlaylist(ctx, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// ByUser handles GET /playlist/user/{userId}.
func (h PlaylistHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	playlists, err := h.Engine.UserPlaylists(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// LikedVideos handles GET /playlist/liked-videos.
func (h PlaylistHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.Engine.LikedVideosPlaylist(ctx, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "liked videos playlist fetched successfully"
	if !result.Exists {
		message = "no liked videos yet"
	}
	respondJSON(ctx, w, http.StatusOK, result, message)
}

// Get handles GET /playlist/{playlistId}?order=recent.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	order := r.URL.Query().Get("order")
	if order != readmodel.OrderPlaylist && order != readmodel.OrderRecent {
		respondError(ctx, w, apperr.Invalid("order must be %q or omitted", readmodel.OrderRecent))
		return
	}
	playlist, err := h.Engine.Playlist(ctx, playlistID, order)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// Update handles PATCH /playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.UpdatePlaylistInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Commands.UpdatePlaylist(ctx, playlistID, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Commands.DeletePlaylist(ctx, playlistID, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles PATCH /playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, playlistID, err := playlistVideoParams(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Commands.AddVideoToPlaylist(ctx, playlistID, videoID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles PATCH /playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, playlistID, err := playlistVideoParams(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Commands.RemoveVideoFromPlaylist(ctx, playlistID, videoID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

func playlistVideoParams(r *http.Request) (videoID, playlistID string, err error) {
	if videoID, err = pathID(r, "videoId"); err != nil {
		return "", "", err
	}
	if playlistID, err = pathID(r, "playlistId"); err != nil {
		return "", "", err
	}
	return videoID, playlistID, nil
}
