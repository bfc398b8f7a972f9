package handlers

import (
	"net/http"
	"strings"

	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/readmodel"
)

// TweetHandler implements tweets, reactions, polls and retweets.
type TweetHandler struct {
	Commands *commands.Service
	Engine   *readmodel.Engine
	Uploads  Uploads
}

// Create handles POST /tweets (JSON, or multipart with media files and a JSON-encoded poll field).
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in commands.CreateTweetInput
	files, err := h.Uploads.decodeForm(w, r, &in, "media")
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.MediaPaths = files["media"]

	tweet, err := h.Commands.CreateTweet(ctx, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// List handles GET /tweets.
func (h TweetHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, err := pageParams(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	q := r.URL.Query()
	result, err := h.Engine.Tweets(ctx, readmodel.TweetQuery{
		Query:    strings.TrimSpace(q.Get("query")),
		OwnerID:  strings.TrimSpace(q.Get("userId")),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result, "tweets fetched successfully")
}

// ByUser handles GET /tweets/user/{userId}.
func (h TweetHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	tweets, err := h.Engine.UserTweets(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tweets, "user tweets fetched successfully")
}

// Get handles GET /tweets/{tweetId} and counts the view.
func (h TweetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	tweet, err := h.Commands.ViewTweet(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tweet, "tweet fetched successfully")
}

// Update handles PATCH /tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.UpdateTweetInput
	files, err := h.Uploads.decodeForm(w, r, &in, "media")
	defer files.cleanup(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.MediaPaths = files["media"]

	tweet, err := h.Commands.UpdateTweet(ctx, tweetID, viewerID(ctx), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete handles DELETE /tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Commands.DeleteTweet(ctx, tweetID, viewerID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "tweet deleted successfully")
}

// React handles POST /tweets/{tweetId}/react.
func (h TweetHandler) React(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.ReactInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	reactions, err := h.Commands.React(ctx, viewerID(ctx), tweetID, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, reactions, "reaction updated")
}

// Reactions handles GET /tweets/{tweetId}/reactions.
func (h TweetHandler) Reactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	reactions, err := h.Engine.TweetReactions(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, reactions, "reactions fetched successfully")
}

// Vote handles POST /tweets/{tweetId}/vote.
func (h TweetHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var in commands.VoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	results, err := h.Commands.Vote(ctx, viewerID(ctx), tweetID, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, results, "vote recorded")
}

// Poll handles GET /tweets/{tweetId}/poll.
func (h TweetHandler) Poll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	results, err := h.Engine.PollResults(ctx, tweetID, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, results, "poll results fetched successfully")
}

// Retweet handles POST /tweets/{tweetId}/retweet.
func (h TweetHandler) Retweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := h.Commands.ToggleRetweet(ctx, viewerID(ctx), tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "retweet removed"
	if result.Retweeted {
		message = "retweeted successfully"
	}
	respondJSON(ctx, w, http.StatusOK, result, message)
}
