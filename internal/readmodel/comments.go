package readmodel

import (
	"context"
	"fmt"

	"github.com/videohub/backend/internal/models"
)

// CommentView is a comment joined to its author. Like counters are present on video comments only.
type CommentView struct {
	models.Comment
	OwnerDetails models.UserSummary `json:"ownerDetails"`
	LikesCount   *int64             `json:"likesCount,omitempty"`
	IsLiked      *bool              `json:"isLiked,omitempty"`
}

// VideoComments lists a video's comments newest first with like counters for viewerID.
func (e *Engine) VideoComments(ctx context.Context, videoID, viewerID string) ([]CommentView, error) {
	if _, err := e.videos.FindByID(ctx, videoID); err != nil {
		return nil, lookup(err, "find video", "video does not exist")
	}
	return e.targetComments(ctx, models.VideoTarget(videoID), viewerID, true)
}

// TweetComments lists a tweet's comments newest first.
func (e *Engine) TweetComments(ctx context.Context, tweetID string) ([]CommentView, error) {
	if _, err := e.tweets.FindByID(ctx, tweetID); err != nil {
		return nil, lookup(err, "find tweet", "tweet does not exist")
	}
	return e.targetComments(ctx, models.TweetTarget(tweetID), "", false)
}

func (e *Engine) targetComments(ctx context.Context, target models.Target, viewerID string, withLikes bool) ([]CommentView, error) {
	comments, err := e.comments.ListByTarget(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	ownerIDs := make([]string, 0, len(comments))
	commentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		ownerIDs = append(ownerIDs, c.OwnerID)
		commentIDs = append(commentIDs, c.ID)
	}
	owners, err := e.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("load comment owners: %w", err)
	}
	ownerByID := indexUsers(owners)

	var counts map[string]int64
	var liked map[string]bool
	if withLikes {
		if counts, err = e.likes.CountByTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return nil, fmt.Errorf("count comment likes: %w", err)
		}
		liked = map[string]bool{}
		if viewerID != "" {
			if liked, err = e.likes.LikedAmong(ctx, viewerID, models.TargetComment, commentIDs); err != nil {
				return nil, fmt.Errorf("check comment likes: %w", err)
			}
		}
	}

	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		owner, ok := ownerByID[c.OwnerID]
		if !ok {
			continue
		}
		view := CommentView{Comment: c, OwnerDetails: owner.Summary()}
		if withLikes {
			n := counts[c.ID]
			l := liked[c.ID]
			view.LikesCount = &n
			view.IsLiked = &l
		}
		out = append(out, view)
	}
	return out, nil
}
