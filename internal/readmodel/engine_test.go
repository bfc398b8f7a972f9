package readmodel

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store repositories.Store
	eng   *Engine
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	return &fixture{t: t, ctx: context.Background(), store: store, eng: NewEngine(store), clock: epoch}
}

func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) user(username string) models.User {
	f.t.Helper()
	now := f.tick()
	u := models.User{
		ID:        "u-" + username,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Full " + username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) video(id, ownerID string, published bool) models.Video {
	f.t.Helper()
	now := f.tick()
	v := models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "Title " + id,
		Description: "About " + id,
		Category:    "music",
		Views:       10,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(f.t, f.store.Videos.Create(f.ctx, v))
	return v
}

func (f *fixture) subscribe(subscriberID, channelID string) {
	f.t.Helper()
	now := f.tick()
	created, err := f.store.Subscriptions.Add(f.ctx, models.Subscription{
		ID: fmt.Sprintf("s-%s-%s", subscriberID, channelID), SubscriberID: subscriberID, ChannelID: channelID,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(f.t, err)
	require.True(f.t, created)
}

func (f *fixture) like(userID string, target models.Target) {
	f.t.Helper()
	now := f.tick()
	created, err := f.store.Likes.Add(f.ctx, models.Like{
		ID: fmt.Sprintf("l-%s-%s", userID, target), LikedBy: userID, Target: target, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(f.t, err)
	require.True(f.t, created)
}

func videoIDs(videos []VideoWithOwner) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestChannelProfileScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	carol := f.user("carol")
	f.subscribe(bob.ID, alice.ID)
	f.subscribe(carol.ID, alice.ID)
	f.subscribe(alice.ID, bob.ID)

	profile, err := f.eng.ChannelProfile(f.ctx, "  ALICE ", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, int64(2), profile.SubscriberCount)
	assert.Equal(t, int64(1), profile.ChannelSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	profile, err = f.eng.ChannelProfile(f.ctx, "bob", carol.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)
	assert.Equal(t, int64(1), profile.SubscriberCount)

	_, err = f.eng.ChannelProfile(f.ctx, "nobody", bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	count, err := f.eng.ChannelSubscriberCount(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.TotalSubscribers)

	_, err = f.eng.ChannelSubscriberCount(f.ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubscribedChannelsNewestFirstWithLiveCounts(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	carol := f.user("carol")
	dave := f.user("dave")
	f.subscribe(alice.ID, bob.ID)
	f.subscribe(alice.ID, carol.ID)
	f.subscribe(dave.ID, carol.ID)
	f.subscribe(alice.ID, "u-ghost")

	channels, err := f.eng.SubscribedChannels(f.ctx, alice.ID)
	require.NoError(t, err)

	got := make([]string, 0, len(channels))
	for _, c := range channels {
		got = append(got, fmt.Sprintf("%s:%d", c.Username, c.SubscribersCount))
	}
	if diff := cmp.Diff([]string{"carol:2", "bob:1"}, got); diff != "" {
		t.Fatalf("subscribed channels mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribedChannelsVideosOnlyPublished(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	carol := f.user("carol")
	f.video("v1", bob.ID, true)
	f.video("v2", carol.ID, true)
	f.video("v3", bob.ID, false)
	f.video("v4", alice.ID, true)
	f.subscribe(alice.ID, bob.ID)
	f.subscribe(alice.ID, carol.ID)

	feed, err := f.eng.SubscribedChannelsVideos(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v1"}, videoIDs(feed))
	assert.Equal(t, "carol", feed[0].OwnerDetails.Username)
}

func TestVideosPaginationCompleteness(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	for i := 0; i < 25; i++ {
		f.video(fmt.Sprintf("v%02d", i), alice.ID, true)
	}
	f.video("hidden-1", alice.ID, false)
	f.video("hidden-2", alice.ID, false)

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		result, err := f.eng.Videos(f.ctx, VideoQuery{Page: page, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), result.TotalVideos)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, page, result.CurrentPage)
		assert.Equal(t, page < 3, result.HasMore)
		for _, v := range result.Videos {
			assert.False(t, seen[v.ID], "video %s returned twice", v.ID)
			seen[v.ID] = true
		}
	}
	assert.Len(t, seen, 25)
	assert.False(t, seen["hidden-1"])

	first, err := f.eng.Videos(f.ctx, VideoQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"v24"}, videoIDs(first.Videos), "default order is newest first")

	owner, err := f.eng.Videos(f.ctx, VideoQuery{OwnerID: alice.ID, IncludeUnpublished: true, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(27), owner.TotalVideos)
	assert.Equal(t, MaxLimit, owner.Limit)
}

func TestVideosRejectsUnknownSort(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.Videos(f.ctx, VideoQuery{SortBy: "password"})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	_, err = f.eng.Videos(f.ctx, VideoQuery{SortType: "sideways"})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestPagesPastIntRangeAreInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.Videos(f.ctx, VideoQuery{Page: math.MaxInt, Limit: MaxLimit})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	_, err = f.eng.Tweets(f.ctx, TweetQuery{Page: math.MaxInt/2 + 2, Limit: 2})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	page, err := f.eng.Videos(f.ctx, VideoQuery{Page: math.MaxInt / MaxLimit, Limit: MaxLimit})
	require.NoError(t, err)
	assert.Empty(t, page.Videos)
}

func TestVideoVisibility(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	f.video("draft", alice.ID, false)
	f.like(bob.ID, models.VideoTarget("draft"))

	detail, err := f.eng.Video(f.ctx, "draft", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.LikesCount)
	assert.False(t, detail.IsLiked)

	_, err = f.eng.Video(f.ctx, "draft", bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestWatchHistoryPreservesOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	f.video("a", alice.ID, true)
	f.video("b", alice.ID, true)
	for _, id := range []string{"b", "a", "gone", "b"} {
		_, err := f.store.Users.AppendWatchHistory(f.ctx, alice.ID, id, f.tick())
		require.NoError(t, err)
	}

	history, err := f.eng.WatchHistory(f.ctx, alice.ID)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"b", "a", "b"}, videoIDs(history)); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaylistOrderAndTotals(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	f.video("old", alice.ID, true)
	f.video("new", alice.ID, true)
	now := f.tick()
	require.NoError(t, f.store.Playlists.Create(f.ctx, models.Playlist{
		ID: "p1", OwnerID: alice.ID, Name: "Mix", Videos: []string{"old", "missing", "new"},
		CreatedAt: now, UpdatedAt: now,
	}))

	stored, err := f.eng.Playlist(f.ctx, "p1", OrderPlaylist)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new"}, videoIDs(stored.Videos))
	assert.Equal(t, 2, stored.TotalVideos)
	assert.Equal(t, int64(20), stored.TotalViews)
	assert.Equal(t, "alice", stored.Owner.Username)

	recent, err := f.eng.Playlist(f.ctx, "p1", OrderRecent)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, videoIDs(recent.Videos))

	_, err = f.eng.Playlist(f.ctx, "p1", "random")
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	_, err = f.eng.Playlist(f.ctx, "nope", OrderPlaylist)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLikedVideosPlaylistAbsent(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	result, err := f.eng.LikedVideosPlaylist(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Nil(t, result.Playlist)
}

func TestLikedVideosNewestLikeFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	f.video("v1", bob.ID, true)
	f.video("v2", bob.ID, true)
	f.like(alice.ID, models.VideoTarget("v1"))
	f.like(bob.ID, models.VideoTarget("v1"))
	f.like(alice.ID, models.VideoTarget("v2"))
	f.like(alice.ID, models.VideoTarget("deleted"))

	liked, err := f.eng.LikedVideos(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, liked, 2)
	assert.Equal(t, "v2", liked[0].ID)
	assert.Equal(t, int64(1), liked[0].TotalLikes)
	assert.Equal(t, "v1", liked[1].ID)
	assert.Equal(t, int64(2), liked[1].TotalLikes)

	status, err := f.eng.LikeStatus(f.ctx, alice.ID, models.VideoTarget("v1"))
	require.NoError(t, err)
	assert.True(t, status.IsLiked)
	_, err = f.eng.LikeStatus(f.ctx, alice.ID, models.TweetTarget("t1"))
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestVideoCommentsCarryLikeCounters(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	f.video("v1", alice.ID, true)
	for _, c := range []models.Comment{
		{ID: "c1", OwnerID: alice.ID, Content: "first"},
		{ID: "c2", OwnerID: bob.ID, Content: "second"},
		{ID: "c3", OwnerID: "u-ghost", Content: "orphan"},
	} {
		now := f.tick()
		c.Target = models.VideoTarget("v1")
		c.CreatedAt, c.UpdatedAt = now, now
		require.NoError(t, f.store.Comments.Create(f.ctx, c))
	}
	f.like(bob.ID, models.CommentTarget("c1"))
	f.like(alice.ID, models.CommentTarget("c1"))

	comments, err := f.eng.VideoComments(f.ctx, "v1", bob.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, int64(0), *comments[0].LikesCount)
	assert.Equal(t, "c1", comments[1].ID)
	assert.Equal(t, int64(2), *comments[1].LikesCount)
	assert.True(t, *comments[1].IsLiked)

	_, err = f.eng.VideoComments(f.ctx, "missing", bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTweetViewsAndPollResults(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	end := epoch.Add(-time.Hour)
	now := f.tick()
	require.NoError(t, f.store.Tweets.Create(f.ctx, models.Tweet{
		ID: "t1", OwnerID: alice.ID, Content: "pick one #go",
		Poll: &models.Poll{
			Question: "Tabs or spaces?",
			IsActive: true,
			EndTime:  &end,
			Options:  []models.PollOption{{Text: "tabs", Votes: []string{bob.ID}}, {Text: "spaces"}},
		},
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, f.store.Tweets.PutReaction(f.ctx, "t1", models.Reaction{UserID: bob.ID, Type: models.ReactionLove}, now))
	f.like(bob.ID, models.TweetTarget("t1"))

	tweets, err := f.eng.UserTweets(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, 1, tweets[0].ReactionCount)
	assert.Equal(t, int64(1), tweets[0].LikesCount)
	assert.Equal(t, "bob", tweets[0].ReactionDetails[0].User.Username)

	results, err := f.eng.PollResults(f.ctx, "t1", bob.ID)
	require.NoError(t, err)
	assert.False(t, results.IsActive, "expired poll reads inactive")
	assert.Equal(t, 0, results.UserVote)
	assert.Equal(t, 1, results.TotalVotes)

	reactions, err := f.eng.TweetReactions(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, reactions.Counts[models.ReactionLove])
	assert.Equal(t, 0, reactions.Counts[models.ReactionAngry])

	page, err := f.eng.Tweets(f.ctx, TweetQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalTweets)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasMore)
}

func TestChannelStatsAndSearch(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	f.video("v1", alice.ID, true)
	f.video("v2", alice.ID, false)
	f.subscribe(bob.ID, alice.ID)
	f.like(bob.ID, models.VideoTarget("v1"))
	f.like(alice.ID, models.VideoTarget("v2"))

	stats, err := f.eng.ChannelStats(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ChannelStats{TotalVideos: 2, TotalViews: 20, TotalSubscribers: 1, TotalLikes: 2}, stats)

	results, err := f.eng.Search(f.ctx, "title", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, videoIDs(results.Videos))

	results, err = f.eng.Search(f.ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, results.Channels, 1)
	assert.Equal(t, "alice", results.Channels[0].Username)

	_, err = f.eng.Search(f.ctx, " ", 10)
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}
