package readmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// Playlist orderings.
const (
	OrderPlaylist = ""
	OrderRecent   = "recent"
)

// PlaylistView is a playlist with its videos resolved.
type PlaylistView struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Owner        models.UserSummary `json:"owner"`
	Videos       []VideoWithOwner   `json:"videos"`
	TotalVideos  int                `json:"totalVideos"`
	TotalViews   int64              `json:"totalViews"`
	IsLikedVideo bool               `json:"isLikedVideos"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// LikedVideosResult is the user's mirror playlist. Exists is false when the user has never liked a video.
type LikedVideosResult struct {
	Exists   bool          `json:"exists"`
	Playlist *PlaylistView `json:"playlist"`
}

// Playlist resolves one playlist. order is OrderPlaylist (stored order) or OrderRecent.
func (e *Engine) Playlist(ctx context.Context, playlistID, order string) (PlaylistView, error) {
	if order != OrderPlaylist && order != OrderRecent {
		return PlaylistView{}, apperr.Invalid("order must be empty or %q", OrderRecent)
	}
	playlist, err := e.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return PlaylistView{}, lookup(err, "find playlist", "playlist does not exist")
	}
	views, err := e.resolvePlaylists(ctx, []models.Playlist{playlist})
	if err != nil {
		return PlaylistView{}, err
	}
	view := views[0]
	if order == OrderRecent {
		sortByRecency(view.Videos)
	}
	return view, nil
}

// UserPlaylists resolves every playlist of the user, most recently updated first.
func (e *Engine) UserPlaylists(ctx context.Context, userID string) ([]PlaylistView, error) {
	if _, err := e.users.FindByID(ctx, userID); err != nil {
		return nil, lookup(err, "find user", "user does not exist")
	}
	playlists, err := e.playlists.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return e.resolvePlaylists(ctx, playlists)
}

// LikedVideosPlaylist resolves the user's mirror playlist, if any.
func (e *Engine) LikedVideosPlaylist(ctx context.Context, userID string) (LikedVideosResult, error) {
	playlist, err := e.playlists.FindByOwnerAndName(ctx, userID, models.LikedVideosPlaylist)
	if errors.Is(err, repositories.ErrNotFound) {
		return LikedVideosResult{}, nil
	}
	if err != nil {
		return LikedVideosResult{}, fmt.Errorf("find liked videos playlist: %w", err)
	}
	views, err := e.resolvePlaylists(ctx, []models.Playlist{playlist})
	if err != nil {
		return LikedVideosResult{}, err
	}
	return LikedVideosResult{Exists: true, Playlist: &views[0]}, nil
}

// resolvePlaylists joins every playlist to its videos and owner with one lookup per collection.
func (e *Engine) resolvePlaylists(ctx context.Context, playlists []models.Playlist) ([]PlaylistView, error) {
	if len(playlists) == 0 {
		return []PlaylistView{}, nil
	}

	var videoIDs []string
	userIDs := make([]string, 0, len(playlists))
	for _, p := range playlists {
		videoIDs = append(videoIDs, p.Videos...)
		userIDs = append(userIDs, p.OwnerID)
	}

	var videos []models.Video
	if len(videoIDs) > 0 {
		var err error
		if videos, err = e.videos.FindByIDs(ctx, videoIDs); err != nil {
			return nil, fmt.Errorf("load playlist videos: %w", err)
		}
	}
	userIDs = append(userIDs, videoOwnerIDs(videos)...)
	users, err := e.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load playlist users: %w", err)
	}

	videoByID := indexVideos(videos)
	userByID := indexUsers(users)

	out := make([]PlaylistView, 0, len(playlists))
	for _, p := range playlists {
		ordered := make([]models.Video, 0, len(p.Videos))
		for _, id := range p.Videos {
			if v, ok := videoByID[id]; ok {
				ordered = append(ordered, v)
			}
		}
		resolved := withOwners(ordered, userByID)

		var views int64
		for _, v := range resolved {
			views += v.Views
		}
		out = append(out, PlaylistView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Owner:        userByID[p.OwnerID].Summary(),
			Videos:       resolved,
			TotalVideos:  len(resolved),
			TotalViews:   views,
			IsLikedVideo: p.IsLikedMirror(),
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return out, nil
}
