package models

import "time"

// LikedVideosPlaylist is the reserved name of the per-user playlist that mirrors video likes.
const LikedVideosPlaylist = "Liked Videos"

// User represents an account and channel on the platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	FullName     string    `json:"fullName"`
	Bio          string    `json:"bio"`
	Avatar       string    `json:"avatar"`
	AvatarID     string    `json:"-"`
	CoverImage   string    `json:"coverImage"`
	CoverImageID string    `json:"-"`
	RefreshToken string    `json:"-"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the minimal owner projection embedded in read models.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Summary projects the user down to its public identity fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// Video is an uploaded video and its playback metadata.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	VideoFile   string    `json:"videoFile"`
	VideoFileID string    `json:"-"`
	Thumbnail   string    `json:"thumbnail"`
	ThumbnailID string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VisibleTo reports whether userID may see the video: published, or their own.
func (v Video) VisibleTo(userID string) bool {
	return v.IsPublished || v.OwnerID == userID
}

// Comment is a text reply attached to a video or a tweet.
type Comment struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Target    Target    `json:"target"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like records that a user liked a video, comment or tweet.
type Like struct {
	ID        string    `json:"id"`
	LikedBy   string    `json:"likedBy"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel (both users).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Playlist is an ordered set of video IDs owned by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsLikedMirror reports whether the playlist is the derived "Liked Videos" collection.
func (p Playlist) IsLikedMirror() bool {
	return p.Name == LikedVideosPlaylist
}

// Contains reports whether videoID is part of the playlist.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}
