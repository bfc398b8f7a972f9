package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// CreatePlaylistInput names a new playlist.
type CreatePlaylistInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdatePlaylistInput edits a playlist. Nil fields are left alone.
type UpdatePlaylistInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func reservedPlaylistName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), models.LikedVideosPlaylist)
}

// CreatePlaylist creates an empty playlist. Names are unique per owner.
func (s *Service) CreatePlaylist(ctx context.Context, ownerID string, in CreatePlaylistInput) (models.Playlist, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.check(in); err != nil {
		return models.Playlist{}, err
	}
	if reservedPlaylistName(in.Name) {
		return models.Playlist{}, apperr.Invalid("%q is a reserved playlist name", models.LikedVideosPlaylist)
	}

	now := s.now()
	playlist := models.Playlist{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("you already have a playlist named %q", in.Name)
		}
		return models.Playlist{}, apperr.Internal("failed to create playlist", err)
	}
	return playlist, nil
}

// ownedPlaylist loads a playlist and checks the caller owns it.
func (s *Service) ownedPlaylist(ctx context.Context, playlistID, actorID string) (models.Playlist, error) {
	if err := requireID(playlistID, "playlist"); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.store.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, translate(err, "load playlist", "playlist does not exist")
	}
	return playlist, requireOwner(playlist.OwnerID, actorID, "playlist")
}

// UpdatePlaylist renames or re-describes a playlist. The Liked Videos mirror cannot be renamed.
func (s *Service) UpdatePlaylist(ctx context.Context, playlistID, actorID string, in UpdatePlaylistInput) (models.Playlist, error) {
	if in.Name == nil && in.Description == nil {
		return models.Playlist{}, apperr.Invalid("name or description is required")
	}
	if err := s.check(in); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != playlist.Name && (playlist.IsLikedMirror() || reservedPlaylistName(name)) {
			return models.Playlist{}, apperr.Invalid("the %q playlist name is reserved", models.LikedVideosPlaylist)
		}
		playlist.Name = name
	}
	if in.Description != nil {
		playlist.Description = strings.TrimSpace(*in.Description)
	}
	playlist.UpdatedAt = s.now()

	if err := s.store.Playlists.Update(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("you already have a playlist named %q", playlist.Name)
		}
		return models.Playlist{}, translate(err, "update playlist", "playlist does not exist")
	}
	return playlist, nil
}

// AddVideoToPlaylist puts the video at the front of the playlist unless it is already there.
func (s *Service) AddVideoToPlaylist(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	if err := requireID(videoID, "video"); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}
	if playlist.IsLikedMirror() {
		return models.Playlist{}, apperr.Invalid("like the video to add it to %q", models.LikedVideosPlaylist)
	}
	video, err := s.store.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Playlist{}, translate(err, "add video to playlist", "video does not exist")
	}
	if !video.VisibleTo(actorID) {
		return models.Playlist{}, apperr.NotFound("video does not exist")
	}

	if _, err := s.store.Playlists.PrependVideo(ctx, playlistID, videoID, s.now()); err != nil {
		return models.Playlist{}, translate(err, "add video to playlist", "playlist does not exist")
	}
	playlist, err = s.store.Playlists.FindByID(ctx, playlistID)
	return playlist, translate(err, "reload playlist", "playlist does not exist")
}

// RemoveVideoFromPlaylist drops the video. On the Liked Videos mirror this also unlikes it.
func (s *Service) RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	if err := requireID(videoID, "video"); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}
	removed, err := s.engagement.RemoveFromPlaylist(ctx, playlist, videoID)
	if err != nil {
		return models.Playlist{}, translate(err, "remove video from playlist", "playlist does not exist")
	}
	if !removed {
		return models.Playlist{}, apperr.NotFound("video is not in this playlist")
	}
	playlist, err = s.store.Playlists.FindByID(ctx, playlistID)
	return playlist, translate(err, "reload playlist", "playlist does not exist")
}

// DeletePlaylist deletes the caller's playlist. Deleting the mirror unlikes its videos.
func (s *Service) DeletePlaylist(ctx context.Context, playlistID, actorID string) error {
	playlist, err := s.ownedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return err
	}
	return translate(s.engagement.DeletePlaylist(ctx, playlist), "delete playlist", "playlist does not exist")
}
