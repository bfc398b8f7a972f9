package models

import "time"

// MediaType classifies a tweet attachment.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaGIF   MediaType = "gif"
)

// ReactionType is one of the fixed tweet reactions.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every accepted reaction in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry}

// Valid reports whether r is an accepted reaction type.
func (r ReactionType) Valid() bool {
	for _, t := range ReactionTypes {
		if r == t {
			return true
		}
	}
	return false
}

// Media is an uploaded tweet attachment.
type Media struct {
	Type       MediaType `json:"type"`
	URL        string    `json:"url"`
	ExternalID string    `json:"-"`
}

// PollOption is one choice of a poll and the set of users that picked it.
type PollOption struct {
	Text  string   `json:"text"`
	Votes []string `json:"votes"`
}

// Poll is an optional question attached to a tweet.
type Poll struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	IsActive bool         `json:"isActive"`
	EndTime  *time.Time   `json:"endTime,omitempty"`
}

// Expired reports whether the poll has an end time at or before now.
func (p Poll) Expired(now time.Time) bool {
	return p.EndTime != nil && !now.Before(*p.EndTime)
}

// VoteOf returns the option index the user voted for, or -1.
func (p Poll) VoteOf(userID string) int {
	for i, opt := range p.Options {
		for _, v := range opt.Votes {
			if v == userID {
				return i
			}
		}
	}
	return -1
}

// TotalVotes sums the voters across options.
func (p Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += len(opt.Votes)
	}
	return total
}

// Reaction is a single user's reaction to a tweet.
type Reaction struct {
	UserID string       `json:"user"`
	Type   ReactionType `json:"type"`
}

// Tweet is a microblog post with optional media, poll and reactions.
type Tweet struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner"`
	Content       string     `json:"content"`
	Media         []Media    `json:"media"`
	Poll          *Poll      `json:"poll,omitempty"`
	Reactions     []Reaction `json:"reactions"`
	Retweets      []string   `json:"retweets"`
	Mentions      []string   `json:"mentions"`
	Hashtags      []string   `json:"hashtags"`
	ParentTweetID string     `json:"parentTweet,omitempty"`
	ViewCount     int64      `json:"viewCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
