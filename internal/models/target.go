package models

import "fmt"

// TargetKind names the entity a like or comment points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

// Target is a tagged reference to exactly one video, comment or tweet.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// VideoTarget references a video.
func VideoTarget(id string) Target { return Target{Kind: TargetVideo, ID: id} }

// CommentTarget references a comment.
func CommentTarget(id string) Target { return Target{Kind: TargetComment, ID: id} }

// TweetTarget references a tweet.
func TweetTarget(id string) Target { return Target{Kind: TargetTweet, ID: id} }

// Valid reports whether the target has a known kind and a non-empty ID.
func (t Target) Valid() bool {
	if t.ID == "" {
		return false
	}
	switch t.Kind {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	}
	return false
}

// Commentable reports whether comments may be attached to the target.
func (t Target) Commentable() bool {
	return t.ID != "" && (t.Kind == TargetVideo || t.Kind == TargetTweet)
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// ParseTargetKind validates a stored kind string.
func ParseTargetKind(s string) (TargetKind, error) {
	switch k := TargetKind(s); k {
	case TargetVideo, TargetComment, TargetTweet:
		return k, nil
	}
	return "", fmt.Errorf("unknown target kind %q", s)
}
