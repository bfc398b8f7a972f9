package readmodel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// VideoQuery selects one page of videos.
type VideoQuery struct {
	Query    string
	OwnerID  string
	Category string
	// IncludeUnpublished lifts the public-listing restriction; only an owner's own listing sets it.
	IncludeUnpublished bool
	SortBy             string
	SortType           string
	Page               int
	Limit              int
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Videos      []VideoWithOwner `json:"videos"`
	TotalVideos int64            `json:"totalVideos"`
	Paging
}

// VideoDetail is a single video with its like counters for the viewer.
type VideoDetail struct {
	VideoWithOwner
	LikesCount int64 `json:"likesCount"`
	IsLiked    bool  `json:"isLiked"`
}

// LikedVideo is a liked video with its total like count.
type LikedVideo struct {
	VideoWithOwner
	TotalLikes int64     `json:"totalLikes"`
	LikedAt    time.Time `json:"likedAt"`
}

// LikeStatus reports whether the viewer likes a target.
type LikeStatus struct {
	IsLiked bool `json:"isLiked"`
}

func (e *Engine) attachOwners(ctx context.Context, videos []models.Video) ([]VideoWithOwner, error) {
	if len(videos) == 0 {
		return []VideoWithOwner{}, nil
	}
	owners, err := e.users.FindByIDs(ctx, videoOwnerIDs(videos))
	if err != nil {
		return nil, fmt.Errorf("load video owners: %w", err)
	}
	return withOwners(videos, indexUsers(owners)), nil
}

// Videos filters, sorts and pages the catalogue.
func (e *Engine) Videos(ctx context.Context, q VideoQuery) (VideoPage, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = repositories.VideoSortCreatedAt
	}
	if !repositories.ValidVideoSort(sortBy) {
		return VideoPage{}, apperr.Invalid("cannot sort by %q", q.SortBy)
	}
	desc, err := sortDescending(q.SortType)
	if err != nil {
		return VideoPage{}, err
	}

	page, limit, offset, err := normalizePage(q.Page, q.Limit)
	if err != nil {
		return VideoPage{}, err
	}
	filter := repositories.VideoFilter{
		Query:    strings.TrimSpace(q.Query),
		OwnerID:  q.OwnerID,
		Category: strings.TrimSpace(q.Category),
		SortBy:   sortBy,
		SortDesc: desc,
		Offset:   offset,
		Limit:    limit,
	}
	if !q.IncludeUnpublished {
		published := true
		filter.Published = &published
	}

	videos, total, err := e.videos.List(ctx, filter)
	if err != nil {
		return VideoPage{}, fmt.Errorf("list videos: %w", err)
	}
	resolved, err := e.attachOwners(ctx, videos)
	if err != nil {
		return VideoPage{}, err
	}
	return VideoPage{Videos: resolved, TotalVideos: total, Paging: paging(page, limit, total)}, nil
}

func sortDescending(sortType string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(sortType)) {
	case "", "desc":
		return true, nil
	case "asc":
		return false, nil
	}
	return false, apperr.Invalid("sortType must be asc or desc")
}

// Video returns one video. Unpublished videos are visible to their owner only.
func (e *Engine) Video(ctx context.Context, videoID, viewerID string) (VideoDetail, error) {
	video, err := e.videos.FindByID(ctx, videoID)
	if err != nil {
		return VideoDetail{}, lookup(err, "find video", "video does not exist")
	}
	if !video.VisibleTo(viewerID) {
		return VideoDetail{}, apperr.NotFound("video does not exist")
	}

	owner, err := e.users.FindByID(ctx, video.OwnerID)
	if err != nil {
		return VideoDetail{}, lookup(err, "find video owner", "video does not exist")
	}
	counts, err := e.likes.CountByTargets(ctx, models.TargetVideo, []string{videoID})
	if err != nil {
		return VideoDetail{}, fmt.Errorf("count video likes: %w", err)
	}
	liked := false
	if viewerID != "" {
		if liked, err = e.likes.Exists(ctx, viewerID, models.VideoTarget(videoID)); err != nil {
			return VideoDetail{}, fmt.Errorf("check video like: %w", err)
		}
	}

	return VideoDetail{
		VideoWithOwner: VideoWithOwner{Video: video, OwnerDetails: owner.Summary()},
		LikesCount:     counts[videoID],
		IsLiked:        liked,
	}, nil
}

// WatchHistory resolves the user's history in watch order, duplicates included.
func (e *Engine) WatchHistory(ctx context.Context, userID string) ([]VideoWithOwner, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "find user", "user does not exist")
	}
	if len(user.WatchHistory) == 0 {
		return []VideoWithOwner{}, nil
	}

	videos, err := e.videos.FindByIDs(ctx, user.WatchHistory)
	if err != nil {
		return nil, fmt.Errorf("load watched videos: %w", err)
	}
	byID := indexVideos(videos)

	ordered := make([]models.Video, 0, len(user.WatchHistory))
	for _, id := range user.WatchHistory {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return e.attachOwners(ctx, ordered)
}

// LikedVideos lists the user's liked videos, most recently liked first.
func (e *Engine) LikedVideos(ctx context.Context, userID string) ([]LikedVideo, error) {
	likes, err := e.likes.ListByUser(ctx, userID, models.TargetVideo)
	if err != nil {
		return nil, fmt.Errorf("list video likes: %w", err)
	}
	if len(likes) == 0 {
		return []LikedVideo{}, nil
	}

	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.Target.ID)
	}
	videos, err := e.videos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load liked videos: %w", err)
	}
	owners, err := e.users.FindByIDs(ctx, videoOwnerIDs(videos))
	if err != nil {
		return nil, fmt.Errorf("load video owners: %w", err)
	}
	counts, err := e.likes.CountByTargets(ctx, models.TargetVideo, ids)
	if err != nil {
		return nil, fmt.Errorf("count video likes: %w", err)
	}

	byID := indexVideos(videos)
	ownerByID := indexUsers(owners)
	out := make([]LikedVideo, 0, len(likes))
	for _, l := range likes {
		v, ok := byID[l.Target.ID]
		if !ok {
			continue
		}
		owner, ok := ownerByID[v.OwnerID]
		if !ok {
			continue
		}
		out = append(out, LikedVideo{
			VideoWithOwner: VideoWithOwner{Video: v, OwnerDetails: owner.Summary()},
			TotalLikes:     counts[v.ID],
			LikedAt:        l.UpdatedAt,
		})
	}
	return out, nil
}

// LikeStatus reports whether userID likes the video or comment target.
func (e *Engine) LikeStatus(ctx context.Context, userID string, target models.Target) (LikeStatus, error) {
	if target.Kind != models.TargetVideo && target.Kind != models.TargetComment {
		return LikeStatus{}, apperr.Invalid("like status is available for videos and comments")
	}
	if target.ID == "" {
		return LikeStatus{}, apperr.Invalid("%s id is missing", target.Kind)
	}
	liked, err := e.likes.Exists(ctx, userID, target)
	if err != nil {
		return LikeStatus{}, fmt.Errorf("check like: %w", err)
	}
	return LikeStatus{IsLiked: liked}, nil
}

// sortByRecency orders videos by updatedAt then createdAt, newest first. Ties keep their input order.
func sortByRecency(videos []VideoWithOwner) {
	sort.SliceStable(videos, func(i, j int) bool {
		if c := videos[i].UpdatedAt.Compare(videos[j].UpdatedAt); c != 0 {
			return c > 0
		}
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
}
