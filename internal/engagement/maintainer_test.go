package engagement

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

type harness struct {
	ctx   context.Context
	store repositories.Store
	m     *Maintainer
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repositories.NewMemoryStore()
	h := &harness{ctx: context.Background(), store: store, clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	h.m = NewMaintainer(store, nil)
	h.m.now = func() time.Time { return h.clock }

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, store.Users.Create(h.ctx, models.User{ID: name, Username: name, Email: name + "@example.com"}))
	}
	for _, id := range []string{"v1", "v2", "v3"} {
		require.NoError(t, store.Videos.Create(h.ctx, models.Video{ID: id, OwnerID: "bob", Title: id, IsPublished: true}))
	}
	return h
}

func (h *harness) mirror(t *testing.T, userID string) (models.Playlist, bool) {
	t.Helper()
	p, err := h.store.Playlists.FindByOwnerAndName(h.ctx, userID, models.LikedVideosPlaylist)
	if err == repositories.ErrNotFound {
		return models.Playlist{}, false
	}
	require.NoError(t, err)
	return p, true
}

func (h *harness) likedVideoIDs(t *testing.T, userID string) []string {
	t.Helper()
	likes, err := h.store.Likes.ListByUser(h.ctx, userID, models.TargetVideo)
	require.NoError(t, err)
	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.Target.ID)
	}
	return ids
}

func sorted(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func TestToggleVideoLikeIsIdempotentPair(t *testing.T) {
	h := newHarness(t)

	res, err := h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{IsLiked: true, TotalLikes: 1}, res)

	mirror, ok := h.mirror(t, "alice")
	require.True(t, ok)
	assert.Equal(t, []string{"v1"}, mirror.Videos)

	res, err = h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{IsLiked: false, TotalLikes: 0}, res)

	mirror, ok = h.mirror(t, "alice")
	require.True(t, ok)
	assert.Empty(t, mirror.Videos)
	assert.Empty(t, h.likedVideoIDs(t, "alice"))

	_, err = h.m.ToggleVideoLike(h.ctx, "alice", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMirrorUpdatedAtFollowsLikes(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	mirror, ok := h.mirror(t, "alice")
	require.True(t, ok)
	assert.True(t, mirror.UpdatedAt.Equal(h.clock))

	h.clock = h.clock.Add(time.Hour)
	_, err = h.m.ToggleVideoLike(h.ctx, "alice", "v2")
	require.NoError(t, err)
	mirror, _ = h.mirror(t, "alice")
	assert.True(t, mirror.UpdatedAt.Equal(h.clock), "like stamps the mirror")

	h.clock = h.clock.Add(time.Hour)
	_, err = h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	mirror, _ = h.mirror(t, "alice")
	assert.True(t, mirror.UpdatedAt.Equal(h.clock), "unlike stamps the mirror")
	assert.Equal(t, []string{"v2"}, mirror.Videos)
}

func TestToggleVideoLikeHidesOthersUnpublishedVideos(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Videos.Create(h.ctx, models.Video{ID: "draft", OwnerID: "bob", Title: "draft"}))

	_, err := h.m.ToggleVideoLike(h.ctx, "alice", "draft")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, ok := h.mirror(t, "alice")
	assert.False(t, ok)

	res, err := h.m.ToggleVideoLike(h.ctx, "bob", "draft")
	require.NoError(t, err)
	assert.True(t, res.IsLiked)
}

func TestMirrorConvergesWithLikes(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"v1", "v2", "v3", "v2", "v1", "v2"} {
		_, err := h.m.ToggleVideoLike(h.ctx, "alice", id)
		require.NoError(t, err)
	}

	mirror, ok := h.mirror(t, "alice")
	require.True(t, ok)
	assert.Equal(t, []string{"v2", "v3"}, mirror.Videos, "mirror prepends newest likes")
	assert.Equal(t, sorted(h.likedVideoIDs(t, "alice")), sorted(mirror.Videos))

	removed, err := h.m.RemoveFromPlaylist(h.ctx, mirror, "v3")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"v2"}, h.likedVideoIDs(t, "alice"))

	mirror, _ = h.mirror(t, "alice")
	require.NoError(t, h.m.DeletePlaylist(h.ctx, mirror))
	assert.Empty(t, h.likedVideoIDs(t, "alice"))

	_, err = h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	mirror, ok = h.mirror(t, "alice")
	require.True(t, ok, "mirror is recreated on the next like")
	assert.Equal(t, []string{"v1"}, mirror.Videos)
}

func TestConcurrentTogglesNeverDuplicate(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.m.ToggleVideoLike(h.ctx, "alice", "v1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counts, err := h.store.Likes.CountByTargets(h.ctx, models.TargetVideo, []string{"v1"})
	require.NoError(t, err)
	assert.LessOrEqual(t, counts["v1"], int64(1))

	playlists, err := h.store.Playlists.ListByOwner(h.ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, playlists, 1)
}

func TestToggleSubscription(t *testing.T) {
	h := newHarness(t)

	res, err := h.m.ToggleSubscription(h.ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionResult{Subscribed: true, SubscriberCount: 1}, res)

	res, err = h.m.ToggleSubscription(h.ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionResult{Subscribed: false, SubscriberCount: 0}, res)

	_, err = h.m.ToggleSubscription(h.ctx, "alice", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	_, err = h.m.ToggleSubscription(h.ctx, "alice", "nobody")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func (h *harness) tweet(t *testing.T, id string, poll *models.Poll) {
	t.Helper()
	require.NoError(t, h.store.Tweets.Create(h.ctx, models.Tweet{ID: id, OwnerID: "alice", Content: "hello", Poll: poll, CreatedAt: h.clock, UpdatedAt: h.clock}))
}

func TestReactOverwritesAndToggles(t *testing.T) {
	h := newHarness(t)
	h.tweet(t, "t1", nil)

	reactions, err := h.m.React(h.ctx, "bob", "t1", models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, []models.Reaction{{UserID: "bob", Type: models.ReactionLike}}, reactions)

	reactions, err = h.m.React(h.ctx, "bob", "t1", models.ReactionWow)
	require.NoError(t, err)
	assert.Equal(t, []models.Reaction{{UserID: "bob", Type: models.ReactionWow}}, reactions)

	reactions, err = h.m.React(h.ctx, "bob", "t1", models.ReactionWow)
	require.NoError(t, err)
	assert.Empty(t, reactions)

	_, err = h.m.React(h.ctx, "bob", "t1", models.ReactionType("meh"))
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestPollLifecycle(t *testing.T) {
	h := newHarness(t)
	end := h.clock.Add(time.Hour)
	h.tweet(t, "t1", &models.Poll{
		Question: "Best editor?",
		IsActive: true,
		EndTime:  &end,
		Options:  []models.PollOption{{Text: "vim"}, {Text: "emacs"}},
	})

	poll, err := h.m.Vote(h.ctx, "bob", "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, poll.Options[1].Votes)

	_, err = h.m.Vote(h.ctx, "bob", "t1", 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalid), "second vote must be rejected")

	_, err = h.m.Vote(h.ctx, "carol", "t1", 2)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	h.clock = end.Add(time.Second)
	_, err = h.m.Vote(h.ctx, "carol", "t1", 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	tweet, err := h.store.Tweets.FindByID(h.ctx, "t1")
	require.NoError(t, err)
	assert.False(t, tweet.Poll.IsActive, "expired poll is deactivated by the rejected vote")
	assert.Equal(t, 1, tweet.Poll.TotalVotes())

	h.tweet(t, "t2", nil)
	_, err = h.m.Vote(h.ctx, "carol", "t2", 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestExpirePolls(t *testing.T) {
	h := newHarness(t)
	past := h.clock.Add(-time.Minute)
	future := h.clock.Add(time.Hour)
	h.tweet(t, "t1", &models.Poll{Question: "a?", IsActive: true, EndTime: &past, Options: []models.PollOption{{Text: "x"}, {Text: "y"}}})
	h.tweet(t, "t2", &models.Poll{Question: "b?", IsActive: true, EndTime: &future, Options: []models.PollOption{{Text: "x"}, {Text: "y"}}})
	h.tweet(t, "t3", &models.Poll{Question: "c?", IsActive: true, Options: []models.PollOption{{Text: "x"}, {Text: "y"}}})

	n, err := h.m.ExpirePolls(h.ctx, h.clock)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = h.m.ExpirePolls(h.ctx, h.clock)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleRetweet(t *testing.T) {
	h := newHarness(t)
	h.tweet(t, "t1", nil)

	res, err := h.m.ToggleRetweet(h.ctx, "bob", "t1")
	require.NoError(t, err)
	assert.Equal(t, RetweetResult{Retweeted: true, RetweetCount: 1}, res)

	res, err = h.m.ToggleRetweet(h.ctx, "bob", "t1")
	require.NoError(t, err)
	assert.Equal(t, RetweetResult{Retweeted: false, RetweetCount: 0}, res)
}

func TestPurgeVideoLeavesNoReferences(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.ToggleVideoLike(h.ctx, "alice", "v1")
	require.NoError(t, err)
	_, err = h.m.ToggleVideoLike(h.ctx, "alice", "v2")
	require.NoError(t, err)
	require.NoError(t, h.store.Comments.Create(h.ctx, models.Comment{ID: "c1", OwnerID: "carol", Target: models.VideoTarget("v1"), Content: "nice"}))
	_, err = h.m.ToggleCommentLike(h.ctx, "bob", "c1")
	require.NoError(t, err)
	require.NoError(t, h.store.Playlists.Create(h.ctx, models.Playlist{ID: "p1", OwnerID: "carol", Name: "Mix", Videos: []string{"v1", "v3"}}))

	require.NoError(t, h.store.Videos.Delete(h.ctx, "v1"))
	require.NoError(t, h.m.PurgeVideo(h.ctx, "v1"))

	counts, err := h.store.Likes.CountByTargets(h.ctx, models.TargetVideo, []string{"v1"})
	require.NoError(t, err)
	assert.Zero(t, counts["v1"])
	comments, err := h.store.Comments.ListByTarget(h.ctx, models.VideoTarget("v1"))
	require.NoError(t, err)
	assert.Empty(t, comments)
	commentLikes, err := h.store.Likes.CountByTargets(h.ctx, models.TargetComment, []string{"c1"})
	require.NoError(t, err)
	assert.Zero(t, commentLikes["c1"])

	mix, err := h.store.Playlists.FindByID(h.ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v3"}, mix.Videos)
	mirror, _ := h.mirror(t, "alice")
	assert.Equal(t, []string{"v2"}, mirror.Videos)
}

func TestPurgeTweetAndComment(t *testing.T) {
	h := newHarness(t)
	h.tweet(t, "t1", nil)
	_, err := h.m.ToggleTweetLike(h.ctx, "bob", "t1")
	require.NoError(t, err)
	require.NoError(t, h.store.Comments.Create(h.ctx, models.Comment{ID: "c1", OwnerID: "carol", Target: models.TweetTarget("t1"), Content: "hi"}))
	require.NoError(t, h.store.Comments.Create(h.ctx, models.Comment{ID: "c2", OwnerID: "carol", Target: models.TweetTarget("t1"), Content: "again"}))
	_, err = h.m.ToggleCommentLike(h.ctx, "alice", "c1")
	require.NoError(t, err)

	require.NoError(t, h.store.Tweets.Delete(h.ctx, "t1"))
	require.NoError(t, h.m.PurgeTweet(h.ctx, "t1"))

	counts, err := h.store.Likes.CountByTargets(h.ctx, models.TargetTweet, []string{"t1"})
	require.NoError(t, err)
	assert.Zero(t, counts["t1"])
	comments, err := h.store.Comments.ListByTarget(h.ctx, models.TweetTarget("t1"))
	require.NoError(t, err)
	assert.Empty(t, comments)
	liked, err := h.store.Likes.Exists(h.ctx, "alice", models.CommentTarget("c1"))
	require.NoError(t, err)
	assert.False(t, liked)
}
