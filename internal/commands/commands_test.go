package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/engagement"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/readmodel"
	"github.com/videohub/backend/internal/repositories"
	"github.com/videohub/backend/internal/storage"
	"github.com/videohub/backend/internal/videos"
)

type fakeStorage struct {
	mu      sync.Mutex
	stored  []string
	failOn  string
	counter int
}

func (f *fakeStorage) Store(ctx context.Context, localPath string) (storage.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if localPath == f.failOn {
		return storage.Asset{}, errors.New("upload rejected")
	}
	f.counter++
	id := fmt.Sprintf("asset-%d", f.counter)
	f.stored = append(f.stored, localPath)
	return storage.Asset{URL: "https://cdn.example.com/" + id, ExternalID: id}, nil
}

func (f *fakeStorage) Remove(ctx context.Context, externalID string) error { return nil }

type fakeJanitor struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (j *fakeJanitor) Enqueue(ctx context.Context, externalID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.removed = append(j.removed, externalID)
	return nil
}

func (j *fakeJanitor) ids() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.removed...)
}

type fixture struct {
	ctx     context.Context
	svc     *Service
	store   repositories.Store
	storage *fakeStorage
	janitor *fakeJanitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	issuer, err := auth.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	f := &fixture{ctx: context.Background(), store: store, storage: &fakeStorage{}, janitor: &fakeJanitor{}}
	f.svc, err = New(Deps{
		Store:      store,
		Engine:     readmodel.NewEngine(store),
		Engagement: engagement.NewMaintainer(store, nil),
		Sessions:   auth.NewManager(issuer, store.Users),
		Storage:    f.storage,
		Janitor:    f.janitor,
		Prober: videos.ProberFunc(func(ctx context.Context, path string) (float64, error) {
			return 42.5, nil
		}),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) register(t *testing.T, username string) models.User {
	t.Helper()
	user, err := f.svc.Register(f.ctx, RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
		FullName: "User " + username,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) publish(t *testing.T, ownerID, title string) models.Video {
	t.Helper()
	video, err := f.svc.PublishVideo(f.ctx, ownerID, PublishVideoInput{
		Title:         title,
		VideoPath:     "/tmp/" + title + ".mp4",
		ThumbnailPath: "/tmp/" + title + ".jpg",
	})
	require.NoError(t, err)
	return video
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error %v", err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.svc.Register(f.ctx, RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "correct-horse", FullName: "A"})
	assertKind(t, err, apperr.KindConflict)

	_, err = f.svc.Register(f.ctx, RegisterInput{Username: "alice2", Email: "Alice@Example.com", Password: "correct-horse", FullName: "A"})
	assertKind(t, err, apperr.KindConflict)

	_, err = f.svc.Register(f.ctx, RegisterInput{Username: "x", Email: "bad", Password: "short", FullName: " "})
	assertKind(t, err, apperr.KindInvalid)
	for _, field := range []string{"username", "email", "password", "fullName"} {
		assert.Contains(t, apperr.Message(err), field)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice")

	_, err := f.svc.Login(f.ctx, LoginInput{Username: "nobody", Password: "correct-horse"})
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.svc.Login(f.ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assertKind(t, err, apperr.KindUnauthenticated)

	session, err := f.svc.Login(f.ctx, LoginInput{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	rotated, err := f.svc.Refresh(f.ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = f.svc.Refresh(f.ctx, session.Tokens.RefreshToken)
	assertKind(t, err, apperr.KindUnauthenticated)

	require.NoError(t, f.svc.Logout(f.ctx, user.ID))
	_, err = f.svc.Refresh(f.ctx, rotated.Tokens.RefreshToken)
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestChangePasswordChecksOldPassword(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice")

	err := f.svc.ChangePassword(f.ctx, user.ID, ChangePasswordInput{OldPassword: "nope", NewPassword: "battery-staple"})
	assertKind(t, err, apperr.KindInvalid)

	require.NoError(t, f.svc.ChangePassword(f.ctx, user.ID, ChangePasswordInput{OldPassword: "correct-horse", NewPassword: "battery-staple"}))
	_, err = f.svc.Login(f.ctx, LoginInput{Username: "alice", Password: "battery-staple"})
	require.NoError(t, err)
}

func TestOwnershipForbiddenVersusMissing(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	video := f.publish(t, alice.ID, "intro")

	title := "hijacked"
	_, err := f.svc.UpdateVideo(f.ctx, video.ID, bob.ID, UpdateVideoInput{Title: &title})
	assertKind(t, err, apperr.KindForbidden)

	_, err = f.svc.UpdateVideo(f.ctx, f.svc.newID(), bob.ID, UpdateVideoInput{Title: &title})
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.svc.UpdateVideo(f.ctx, "not-a-uuid", bob.ID, UpdateVideoInput{Title: &title})
	assertKind(t, err, apperr.KindInvalid)

	assertKind(t, f.svc.DeleteVideo(f.ctx, video.ID, bob.ID), apperr.KindForbidden)

	playlist, err := f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "Favourites"})
	require.NoError(t, err)
	assertKind(t, f.svc.DeletePlaylist(f.ctx, playlist.ID, bob.ID), apperr.KindForbidden)

	comment, err := f.svc.AddComment(f.ctx, alice.ID, models.VideoTarget(video.ID), CommentInput{Content: "first"})
	require.NoError(t, err)
	_, err = f.svc.UpdateComment(f.ctx, comment.ID, models.TargetVideo, bob.ID, CommentInput{Content: "edited"})
	assertKind(t, err, apperr.KindForbidden)
	_, err = f.svc.UpdateComment(f.ctx, comment.ID, models.TargetTweet, alice.ID, CommentInput{Content: "edited"})
	assertKind(t, err, apperr.KindNotFound)
}

func TestPublishVideoProbesDuration(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	video := f.publish(t, alice.ID, "intro")

	assert.Equal(t, 42.5, video.Duration)
	assert.True(t, video.IsPublished)
	assert.Equal(t, "asset-1", video.VideoFileID)
	assert.Equal(t, "asset-2", video.ThumbnailID)

	_, err := f.svc.PublishVideo(f.ctx, alice.ID, PublishVideoInput{Title: "no file", ThumbnailPath: "/tmp/t.jpg"})
	assertKind(t, err, apperr.KindInvalid)
}

func TestPublishVideoDiscardsFileWhenThumbnailFails(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.storage.failOn = "/tmp/bad.jpg"

	_, err := f.svc.PublishVideo(f.ctx, alice.ID, PublishVideoInput{Title: "clip", VideoPath: "/tmp/clip.mp4", ThumbnailPath: "/tmp/bad.jpg"})
	assertKind(t, err, apperr.KindInternal)
	assert.Equal(t, []string{"asset-1"}, f.janitor.ids())
}

func TestWatchVideoCountsFirstViewOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	video := f.publish(t, alice.ID, "intro")

	first, err := f.svc.WatchVideo(f.ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Views)

	second, err := f.svc.WatchVideo(f.ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, second.Views)

	viewer, err := f.store.Users.FindByID(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{video.ID, video.ID}, viewer.WatchHistory)

	require.NoError(t, f.svc.ClearWatchHistory(f.ctx, bob.ID))
	viewer, err = f.store.Users.FindByID(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, viewer.WatchHistory)
}

func TestWatchUnpublishedVideoHiddenFromOthers(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	video := f.publish(t, alice.ID, "draft")

	toggled, err := f.svc.TogglePublish(f.ctx, video.ID, alice.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsPublished)

	_, err = f.svc.WatchVideo(f.ctx, video.ID, bob.ID)
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.svc.WatchVideo(f.ctx, video.ID, alice.ID)
	require.NoError(t, err)
}

func TestAvatarReplacementSurvivesJanitorFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	first, err := f.svc.UpdateAvatar(f.ctx, alice.ID, "/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, "asset-1", first.AvatarID)

	second, err := f.svc.UpdateAvatar(f.ctx, alice.ID, "/tmp/b.png")
	require.NoError(t, err)
	assert.Equal(t, "asset-2", second.AvatarID)
	assert.Equal(t, []string{"asset-1"}, f.janitor.ids())

	f.janitor.err = storage.ErrJanitorClosed
	third, err := f.svc.UpdateAvatar(f.ctx, alice.ID, "/tmp/c.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/asset-3", third.Avatar)

	_, err = f.svc.UpdateCoverImage(f.ctx, alice.ID, "")
	assertKind(t, err, apperr.KindInvalid)
}

func TestDeleteVideoCascadesAndDiscardsFiles(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	video := f.publish(t, alice.ID, "intro")

	_, err := f.svc.ToggleVideoLike(f.ctx, bob.ID, video.ID)
	require.NoError(t, err)
	_, err = f.svc.AddComment(f.ctx, bob.ID, models.VideoTarget(video.ID), CommentInput{Content: "nice"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteVideo(f.ctx, video.ID, alice.ID))

	mirror, err := f.store.Playlists.FindByOwnerAndName(f.ctx, bob.ID, models.LikedVideosPlaylist)
	require.NoError(t, err)
	assert.Empty(t, mirror.Videos)
	likes, err := f.store.Likes.ListByUser(f.ctx, bob.ID, models.TargetVideo)
	require.NoError(t, err)
	assert.Empty(t, likes)
	assert.ElementsMatch(t, []string{video.VideoFileID, video.ThumbnailID}, f.janitor.ids())
}

func TestPlaylistNamingRules(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	video := f.publish(t, alice.ID, "intro")

	_, err := f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "liked videos"})
	assertKind(t, err, apperr.KindInvalid)

	playlist, err := f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "Mix"})
	require.NoError(t, err)
	_, err = f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "Mix"})
	assertKind(t, err, apperr.KindConflict)

	_, err = f.svc.ToggleVideoLike(f.ctx, alice.ID, video.ID)
	require.NoError(t, err)
	mirror, err := f.store.Playlists.FindByOwnerAndName(f.ctx, alice.ID, models.LikedVideosPlaylist)
	require.NoError(t, err)

	renamed := "Something else"
	_, err = f.svc.UpdatePlaylist(f.ctx, mirror.ID, alice.ID, UpdatePlaylistInput{Name: &renamed})
	assertKind(t, err, apperr.KindInvalid)
	_, err = f.svc.AddVideoToPlaylist(f.ctx, mirror.ID, video.ID, alice.ID)
	assertKind(t, err, apperr.KindInvalid)

	updated, err := f.svc.AddVideoToPlaylist(f.ctx, playlist.ID, video.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{video.ID}, updated.Videos)
	updated, err = f.svc.AddVideoToPlaylist(f.ctx, playlist.ID, video.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{video.ID}, updated.Videos)

	_, err = f.svc.RemoveVideoFromPlaylist(f.ctx, playlist.ID, video.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.svc.RemoveVideoFromPlaylist(f.ctx, playlist.ID, video.ID, alice.ID)
	assertKind(t, err, apperr.KindNotFound)
}

func TestAddingToPlaylistMovesItToFront(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	alice := f.register(t, "alice")
	video := f.publish(t, alice.ID, "intro")

	older, err := f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "Older"})
	require.NoError(t, err)
	newer, err := f.svc.CreatePlaylist(f.ctx, alice.ID, CreatePlaylistInput{Name: "Newer"})
	require.NoError(t, err)

	views, err := f.svc.engine.UserPlaylists(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)

	_, err = f.svc.AddVideoToPlaylist(f.ctx, older.ID, video.ID, alice.ID)
	require.NoError(t, err)

	views, err = f.svc.engine.UserPlaylists(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, older.ID, views[0].ID)
	assert.True(t, views[0].UpdatedAt.After(older.UpdatedAt))
}

func TestUnpublishedVideoUnreachableByOthers(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	video := f.publish(t, alice.ID, "draft")
	_, err := f.svc.TogglePublish(f.ctx, video.ID, alice.ID)
	require.NoError(t, err)

	_, err = f.svc.ToggleVideoLike(f.ctx, bob.ID, video.ID)
	assertKind(t, err, apperr.KindNotFound)
	_, err = f.svc.AddComment(f.ctx, bob.ID, models.VideoTarget(video.ID), CommentInput{Content: "early"})
	assertKind(t, err, apperr.KindNotFound)
	playlist, err := f.svc.CreatePlaylist(f.ctx, bob.ID, CreatePlaylistInput{Name: "Mix"})
	require.NoError(t, err)
	_, err = f.svc.AddVideoToPlaylist(f.ctx, playlist.ID, video.ID, bob.ID)
	assertKind(t, err, apperr.KindNotFound)

	likes, err := f.store.Likes.ListByUser(f.ctx, bob.ID, models.TargetVideo)
	require.NoError(t, err)
	assert.Empty(t, likes)

	_, err = f.svc.ToggleVideoLike(f.ctx, alice.ID, video.ID)
	require.NoError(t, err)
	_, err = f.svc.AddComment(f.ctx, alice.ID, models.VideoTarget(video.ID), CommentInput{Content: "note"})
	require.NoError(t, err)
}

func TestRemovingFromMirrorUnlikes(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	video := f.publish(t, alice.ID, "intro")

	liked, err := f.svc.ToggleVideoLike(f.ctx, alice.ID, video.ID)
	require.NoError(t, err)
	require.True(t, liked.IsLiked)

	mirror, err := f.store.Playlists.FindByOwnerAndName(f.ctx, alice.ID, models.LikedVideosPlaylist)
	require.NoError(t, err)
	_, err = f.svc.RemoveVideoFromPlaylist(f.ctx, mirror.ID, video.ID, alice.ID)
	require.NoError(t, err)

	likes, err := f.store.Likes.ListByUser(f.ctx, alice.ID, models.TargetVideo)
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestCreateTweetDerivesTagsAndMentions(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	view, err := f.svc.CreateTweet(f.ctx, alice.ID, CreateTweetInput{
		Content:    "Hello @Bob and @ghost #Go #go #videos.",
		MediaPaths: []string{"/tmp/a.gif", "/tmp/b.PNG", "/tmp/c.mp4"},
		Poll:       &PollInput{Question: "Best?", Options: []string{"yes", "no"}, ExpiresIn: 3600},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "videos"}, view.Hashtags)
	assert.Equal(t, []string{bob.ID}, view.Mentions)
	require.Len(t, view.Media, 3)
	assert.Equal(t, models.MediaGIF, view.Media[0].Type)
	assert.Equal(t, models.MediaImage, view.Media[1].Type)
	assert.Equal(t, models.MediaVideo, view.Media[2].Type)
	require.NotNil(t, view.Poll)
	assert.True(t, view.Poll.IsActive)
	require.NotNil(t, view.Poll.EndTime)

	_, err = f.svc.CreateTweet(f.ctx, alice.ID, CreateTweetInput{Content: "poll", Poll: &PollInput{Question: "?", Options: []string{"only"}}})
	assertKind(t, err, apperr.KindInvalid)
}

func TestUpdateTweetReplacesMediaAndPoll(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	view, err := f.svc.CreateTweet(f.ctx, alice.ID, CreateTweetInput{
		Content:    "original",
		MediaPaths: []string{"/tmp/a.png"},
		Poll:       &PollInput{Question: "Q", Options: []string{"a", "b"}},
	})
	require.NoError(t, err)

	_, err = f.svc.Vote(f.ctx, bob.ID, view.ID, VoteInput{OptionIndex: intPtr(1)})
	require.NoError(t, err)

	content := "edited #fresh"
	_, err = f.svc.UpdateTweet(f.ctx, view.ID, bob.ID, UpdateTweetInput{Content: &content})
	assertKind(t, err, apperr.KindForbidden)

	updated, err := f.svc.UpdateTweet(f.ctx, view.ID, alice.ID, UpdateTweetInput{
		Content:    &content,
		MediaPaths: []string{"/tmp/b.png"},
		Poll:       &PollInput{Question: "New", Options: []string{"x", "y", "z"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "edited #fresh", updated.Content)
	assert.Equal(t, []string{"fresh"}, updated.Hashtags)
	require.Len(t, updated.Media, 1)
	assert.Equal(t, "asset-2", updated.Media[0].ExternalID)
	assert.Equal(t, []string{"asset-1"}, f.janitor.ids())
	require.NotNil(t, updated.Poll)
	assert.Len(t, updated.Poll.Options, 3)
	assert.Equal(t, 0, updated.Poll.TotalVotes())

	removed, err := f.svc.UpdateTweet(f.ctx, view.ID, alice.ID, UpdateTweetInput{RemovePoll: true})
	require.NoError(t, err)
	assert.Nil(t, removed.Poll)
}

func TestDeleteTweetPurgesComments(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	view, err := f.svc.CreateTweet(f.ctx, alice.ID, CreateTweetInput{Content: "bye", MediaPaths: []string{"/tmp/a.png"}})
	require.NoError(t, err)
	comment, err := f.svc.AddComment(f.ctx, bob.ID, models.TweetTarget(view.ID), CommentInput{Content: "reply"})
	require.NoError(t, err)

	assertKind(t, f.svc.DeleteTweet(f.ctx, view.ID, bob.ID), apperr.KindForbidden)
	require.NoError(t, f.svc.DeleteTweet(f.ctx, view.ID, alice.ID))

	_, err = f.store.Comments.FindByID(f.ctx, comment.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Equal(t, []string{"asset-1"}, f.janitor.ids())

	_, err = f.svc.ViewTweet(f.ctx, view.ID)
	assertKind(t, err, apperr.KindNotFound)
}

func TestReactAndVote(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	view, err := f.svc.CreateTweet(f.ctx, alice.ID, CreateTweetInput{Content: "plain"})
	require.NoError(t, err)

	reactions, err := f.svc.React(f.ctx, bob.ID, view.ID, ReactInput{Type: "wow"})
	require.NoError(t, err)
	assert.Equal(t, 1, reactions.Total)
	assert.Equal(t, 1, reactions.Counts[models.ReactionWow])

	_, err = f.svc.React(f.ctx, bob.ID, view.ID, ReactInput{Type: "meh"})
	assertKind(t, err, apperr.KindInvalid)

	_, err = f.svc.Vote(f.ctx, bob.ID, view.ID, VoteInput{OptionIndex: intPtr(0)})
	assertKind(t, err, apperr.KindInvalid)

	_, err = f.svc.ToggleSubscription(f.ctx, alice.ID, alice.ID)
	assertKind(t, err, apperr.KindInvalid)
}

func TestHashtagsAndMentions(t *testing.T) {
	assert.Equal(t, []string{"golang", "café"}, hashtags("#GoLang rocks #golang #Café"))
	assert.Equal(t, []string{"bob", "carol.x"}, mentionedUsernames("cc @bob, @Carol.x. and @bob"))
	assert.Empty(t, hashtags("no tags # here"))
}

func intPtr(v int) *int { return &v }
