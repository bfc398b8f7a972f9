package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// RemoveFromPlaylist drops videoID from the playlist. Removing from the Liked Videos
// mirror also unlikes the video.
func (m *Maintainer) RemoveFromPlaylist(ctx context.Context, playlist models.Playlist, videoID string) (bool, error) {
	removed, err := m.playlists.RemoveVideo(ctx, playlist.ID, videoID, m.now())
	if err != nil {
		return false, missing(err, "remove playlist video", "playlist does not exist")
	}
	if playlist.IsLikedMirror() {
		if _, err := m.likes.Remove(ctx, playlist.OwnerID, models.VideoTarget(videoID)); err != nil {
			return removed, fmt.Errorf("remove mirrored like: %w", err)
		}
	}
	return removed, nil
}

// DeletePlaylist deletes the playlist. Deleting the mirror unlikes every video in it.
func (m *Maintainer) DeletePlaylist(ctx context.Context, playlist models.Playlist) error {
	if err := m.playlists.Delete(ctx, playlist.ID); err != nil {
		return missing(err, "delete playlist", "playlist does not exist")
	}
	if playlist.IsLikedMirror() && len(playlist.Videos) > 0 {
		if _, err := m.likes.RemoveByUserTargets(ctx, playlist.OwnerID, models.TargetVideo, playlist.Videos); err != nil {
			return fmt.Errorf("remove mirrored likes: %w", err)
		}
	}
	return nil
}

// PurgeVideo removes everything that references a deleted video: playlist entries,
// likes, comments and the comments' likes. Every step runs; failures are joined.
func (m *Maintainer) PurgeVideo(ctx context.Context, videoID string) error {
	var errs []error
	if _, err := m.playlists.RemoveVideoEverywhere(ctx, videoID, m.now()); err != nil {
		errs = append(errs, fmt.Errorf("remove video from playlists: %w", err))
	}
	if _, err := m.likes.RemoveByTargets(ctx, models.TargetVideo, []string{videoID}); err != nil {
		errs = append(errs, fmt.Errorf("remove video likes: %w", err))
	}
	if err := m.purgeComments(ctx, models.VideoTarget(videoID)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PurgeTweet removes the likes and comments of a deleted tweet.
func (m *Maintainer) PurgeTweet(ctx context.Context, tweetID string) error {
	var errs []error
	if _, err := m.likes.RemoveByTargets(ctx, models.TargetTweet, []string{tweetID}); err != nil {
		errs = append(errs, fmt.Errorf("remove tweet likes: %w", err))
	}
	if err := m.purgeComments(ctx, models.TweetTarget(tweetID)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PurgeComment removes the likes of a deleted comment.
func (m *Maintainer) PurgeComment(ctx context.Context, commentID string) error {
	if _, err := m.likes.RemoveByTargets(ctx, models.TargetComment, []string{commentID}); err != nil {
		return fmt.Errorf("remove comment likes: %w", err)
	}
	return nil
}

func (m *Maintainer) purgeComments(ctx context.Context, target models.Target) error {
	ids, err := m.comments.DeleteByTarget(ctx, target)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("delete %s comments: %w", target.Kind, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := m.likes.RemoveByTargets(ctx, models.TargetComment, ids); err != nil {
		return fmt.Errorf("remove %s comment likes: %w", target.Kind, err)
	}
	return nil
}
