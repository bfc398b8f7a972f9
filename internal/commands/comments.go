package commands

import (
	"context"
	"strings"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// CommentInput is the body of a new or edited comment.
type CommentInput struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

// AddComment attaches a comment to an existing video or tweet.
func (s *Service) AddComment(ctx context.Context, ownerID string, target models.Target, in CommentInput) (models.Comment, error) {
	if !target.Commentable() {
		return models.Comment{}, apperr.Invalid("comments can only be added to videos or tweets")
	}
	if err := requireID(target.ID, string(target.Kind)); err != nil {
		return models.Comment{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := s.check(in); err != nil {
		return models.Comment{}, err
	}

	var err error
	switch target.Kind {
	case models.TargetVideo:
		var video models.Video
		video, err = s.store.Videos.FindByID(ctx, target.ID)
		if err == nil && !video.VisibleTo(ownerID) {
			err = repositories.ErrNotFound
		}
	case models.TargetTweet:
		_, err = s.store.Tweets.FindByID(ctx, target.ID)
	}
	if err != nil {
		return models.Comment{}, translate(err, "add comment", string(target.Kind)+" does not exist")
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Target:    target,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return models.Comment{}, apperr.Internal("failed to add comment", err)
	}
	return comment, nil
}

// ownedComment loads a comment on a target of the given kind and checks ownership.
func (s *Service) ownedComment(ctx context.Context, commentID string, kind models.TargetKind, actorID string) (models.Comment, error) {
	if err := requireID(commentID, "comment"); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.store.Comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, translate(err, "load comment", "comment does not exist")
	}
	if comment.Target.Kind != kind {
		return models.Comment{}, apperr.NotFound("comment does not exist")
	}
	return comment, requireOwner(comment.OwnerID, actorID, "comment")
}

// UpdateComment edits the content of the caller's comment.
func (s *Service) UpdateComment(ctx context.Context, commentID string, kind models.TargetKind, actorID string, in CommentInput) (models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.check(in); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.ownedComment(ctx, commentID, kind, actorID)
	if err != nil {
		return models.Comment{}, err
	}
	comment.Content = in.Content
	comment.UpdatedAt = s.now()
	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return models.Comment{}, translate(err, "update comment", "comment does not exist")
	}
	return comment, nil
}

// DeleteComment removes the caller's comment and its likes.
func (s *Service) DeleteComment(ctx context.Context, commentID string, kind models.TargetKind, actorID string) error {
	if _, err := s.ownedComment(ctx, commentID, kind, actorID); err != nil {
		return err
	}
	if err := s.store.Comments.Delete(ctx, commentID); err != nil {
		return translate(err, "delete comment", "comment does not exist")
	}
	s.cascadeFailed(ctx, "comment", commentID, s.engagement.PurgeComment(ctx, commentID))
	return nil
}
