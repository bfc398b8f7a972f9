package commands

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
)

// PublishVideoInput uploads a new video. Both files are required.
type PublishVideoInput struct {
	Title         string `json:"title" validate:"required,notblank,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	Category      string `json:"category" validate:"max=50"`
	VideoPath     string `json:"-"`
	ThumbnailPath string `json:"-"`
}

// UpdateVideoInput edits a video. Nil fields are left alone; a thumbnail path replaces the thumbnail.
type UpdateVideoInput struct {
	Title         *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	Category      *string `json:"category" validate:"omitempty,max=50"`
	ThumbnailPath string  `json:"-"`
}

// PublishVideo stores both files, then writes the video document.
func (s *Service) PublishVideo(ctx context.Context, ownerID string, in PublishVideoInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if err := s.check(in); err != nil {
		return models.Video{}, err
	}
	if in.VideoPath == "" {
		return models.Video{}, apperr.Invalid("video file is required")
	}
	if in.ThumbnailPath == "" {
		return models.Video{}, apperr.Invalid("thumbnail is required")
	}

	ctx, span := logging.StartSpan(ctx, "publish_video")
	defer span.End()

	file, err := s.upload(ctx, in.VideoPath, "video file")
	if err != nil {
		span.Fail(err)
		return models.Video{}, err
	}
	thumb, err := s.upload(ctx, in.ThumbnailPath, "thumbnail")
	if err != nil {
		span.Fail(err)
		s.discard(ctx, file.ExternalID)
		return models.Video{}, err
	}

	duration := file.Duration
	if duration <= 0 && s.prober != nil {
		probed, err := s.prober.Duration(ctx, in.VideoPath)
		if err != nil {
			logging.FromContext(ctx).Warn("could not probe video duration", zap.Error(err))
		} else {
			duration = probed
		}
	}

	now := s.now()
	video := models.Video{
		ID:          s.newID(),
		OwnerID:     ownerID,
		VideoFile:   file.URL,
		VideoFileID: file.ExternalID,
		Thumbnail:   thumb.URL,
		ThumbnailID: thumb.ExternalID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Duration:    duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Videos.Create(ctx, video); err != nil {
		span.Fail(err)
		s.discard(ctx, file.ExternalID, thumb.ExternalID)
		return models.Video{}, apperr.Internal("failed to publish video", err)
	}
	return video, nil
}

// WatchVideo returns the video and records the view. Views count once per viewer;
// the watch history grows on every call.
func (s *Service) WatchVideo(ctx context.Context, videoID, viewerID string) (readmodel.VideoDetail, error) {
	if err := requireID(videoID, "video"); err != nil {
		return readmodel.VideoDetail{}, err
	}
	detail, err := s.engine.Video(ctx, videoID, viewerID)
	if err != nil {
		return readmodel.VideoDetail{}, err
	}

	now := s.now()
	firstView, err := s.store.Users.AppendWatchHistory(ctx, viewerID, videoID, now)
	if err != nil {
		return readmodel.VideoDetail{}, translate(err, "record view", "user does not exist")
	}
	if firstView {
		if err := s.store.Videos.IncrementViews(ctx, videoID, now); err != nil {
			return readmodel.VideoDetail{}, translate(err, "record view", "video does not exist")
		}
		detail.Views++
	}
	return detail, nil
}

// ownedVideo loads a video and checks the caller owns it.
func (s *Service) ownedVideo(ctx context.Context, videoID, actorID string) (models.Video, error) {
	if err := requireID(videoID, "video"); err != nil {
		return models.Video{}, err
	}
	video, err := s.store.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, translate(err, "load video", "video does not exist")
	}
	return video, requireOwner(video.OwnerID, actorID, "video")
}

// UpdateVideo edits details and optionally replaces the thumbnail.
func (s *Service) UpdateVideo(ctx context.Context, videoID, actorID string, in UpdateVideoInput) (models.Video, error) {
	if err := s.check(in); err != nil {
		return models.Video{}, err
	}
	if in.Title == nil && in.Description == nil && in.Category == nil && in.ThumbnailPath == "" {
		return models.Video{}, apperr.Invalid("nothing to update")
	}
	video, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return models.Video{}, err
	}

	if in.Title != nil {
		video.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		video.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		video.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}

	var oldThumb string
	if in.ThumbnailPath != "" {
		thumb, err := s.upload(ctx, in.ThumbnailPath, "thumbnail")
		if err != nil {
			return models.Video{}, err
		}
		oldThumb = video.ThumbnailID
		video.Thumbnail, video.ThumbnailID = thumb.URL, thumb.ExternalID
	}

	video.UpdatedAt = s.now()
	if err := s.store.Videos.Update(ctx, video); err != nil {
		if in.ThumbnailPath != "" {
			s.discard(ctx, video.ThumbnailID)
		}
		return models.Video{}, translate(err, "update video", "video does not exist")
	}
	s.discard(ctx, oldThumb)
	return video, nil
}

// DeleteVideo removes the video, everything that references it and its files.
func (s *Service) DeleteVideo(ctx context.Context, videoID, actorID string) error {
	video, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return err
	}
	if err := s.store.Videos.Delete(ctx, videoID); err != nil {
		return translate(err, "delete video", "video does not exist")
	}
	s.cascadeFailed(ctx, "video", videoID, s.engagement.PurgeVideo(ctx, videoID))
	s.discard(ctx, video.VideoFileID, video.ThumbnailID)
	return nil
}

// TogglePublish flips the published flag.
func (s *Service) TogglePublish(ctx context.Context, videoID, actorID string) (models.Video, error) {
	video, err := s.ownedVideo(ctx, videoID, actorID)
	if err != nil {
		return models.Video{}, err
	}
	video.IsPublished = !video.IsPublished
	video.UpdatedAt = s.now()
	if err := s.store.Videos.Update(ctx, video); err != nil {
		return models.Video{}, translate(err, "toggle publish status", "video does not exist")
	}
	return video, nil
}
