package repositories

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videohub/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func requirePool(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres integration tests disabled in -short mode")
	}
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Username = "alice2"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if fetched.ID != user.ID || fetched.Email != user.Email || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	updated := fetched
	updated.Email = "updated@example.com"
	updated.Bio = "hello"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}
	fetched, err = repo.FindByEmail(ctx, updated.Email)
	if err != nil {
		t.Fatalf("find by updated email: %v", err)
	}
	if fetched.Bio != "hello" {
		t.Fatalf("expected bio to persist, got %+v", fetched)
	}

	missing := updated
	missing.ID = uuid.NewString()
	missing.Username = "ghost"
	missing.Email = "ghost@example.com"
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_WatchHistoryKeepsOrderAndDuplicates(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "viewer")

	for i, id := range []string{"v1", "v2", "v1"} {
		first, err := repo.AppendWatchHistory(ctx, user.ID, id, time.Now().UTC())
		if err != nil {
			t.Fatalf("append history: %v", err)
		}
		if want := i < 2; first != want {
			t.Fatalf("watch %d of %s: first = %v, want %v", i, id, first, want)
		}
	}
	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got := strings.Join(fetched.WatchHistory, ","); got != "v1,v2,v1" {
		t.Fatalf("unexpected history %q", got)
	}

	if err := repo.ClearWatchHistory(ctx, user.ID, time.Now().UTC()); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	fetched, _ = repo.FindByID(ctx, user.ID)
	if len(fetched.WatchHistory) != 0 {
		t.Fatalf("expected empty history, got %v", fetched.WatchHistory)
	}
}

func TestPostgresUserRepository_ConcurrentWatchesCountOneFirstView(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "binger")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.AppendWatchHistory(ctx, user.ID, "v1", time.Now().UTC())
			if err != nil {
				t.Errorf("append history: %v", err)
				return
			}
			if ok {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if first != 1 {
		t.Fatalf("expected one first view, got %d", first)
	}
	if _, err := repo.AppendWatchHistory(ctx, uuid.NewString(), "v1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_ListFiltersAndPages(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, users, "owner")

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		video := models.Video{
			ID:          uuid.NewString(),
			OwnerID:     owner.ID,
			VideoFile:   "https://cdn.example.com/v.mp4",
			Thumbnail:   "https://cdn.example.com/t.jpg",
			Title:       fmt.Sprintf("Cooking 100%% part %d", i),
			IsPublished: i != 4,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := videos.Create(ctx, video); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	published := true
	page, total, err := videos.List(ctx, VideoFilter{Query: "100%", Published: &published, SortDesc: true, Limit: 3})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if total != 4 || len(page) != 3 {
		t.Fatalf("expected 3 of 4 published videos, got %d of %d", len(page), total)
	}
	if page[0].Title != "Cooking 100% part 3" {
		t.Fatalf("expected newest published first, got %q", page[0].Title)
	}

	rest, _, err := videos.List(ctx, VideoFilter{Query: "100%", Published: &published, SortDesc: true, Offset: 3, Limit: 3})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected one video on the second page, got %d", len(rest))
	}

	if _, total, _ := videos.List(ctx, VideoFilter{Query: "50%"}); total != 0 {
		t.Fatalf("expected literal percent matching, got %d results", total)
	}

	totals, err := videos.TotalsByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Videos != 5 {
		t.Fatalf("expected 5 videos, got %d", totals.Videos)
	}
}

func TestPostgresLikeRepository_ConditionalInsert(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)
	fan := createTestUser(t, users, "fan")

	like := models.Like{ID: uuid.NewString(), LikedBy: fan.ID, Target: models.VideoTarget("video-1"),
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	created, err := likes.Add(ctx, like)
	if err != nil || !created {
		t.Fatalf("expected first like to be created, got %v %v", created, err)
	}
	like.ID = uuid.NewString()
	created, err = likes.Add(ctx, like)
	if err != nil || created {
		t.Fatalf("expected duplicate like to be ignored, got %v %v", created, err)
	}

	counts, err := likes.CountByTargets(ctx, models.TargetVideo, []string{"video-1", "video-2"})
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if counts["video-1"] != 1 || counts["video-2"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}

	removed, err := likes.Remove(ctx, fan.ID, models.VideoTarget("video-1"))
	if err != nil || !removed {
		t.Fatalf("expected like removal, got %v %v", removed, err)
	}
	removed, _ = likes.Remove(ctx, fan.ID, models.VideoTarget("video-1"))
	if removed {
		t.Fatalf("expected second removal to report nothing removed")
	}
}

func TestPostgresPlaylistRepository_SetSemantics(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	playlists := NewPostgresPlaylistRepository(testPool)
	owner := createTestUser(t, users, "curator")

	now := time.Now().UTC()
	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: owner.ID, Name: models.LikedVideosPlaylist,
		Videos: []string{"a"}, CreatedAt: now, UpdatedAt: now}
	if err := playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	again := playlist
	again.ID = uuid.NewString()
	if err := playlists.Create(ctx, again); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second mirror playlist, got %v", err)
	}

	later := now.Add(time.Hour).Truncate(time.Millisecond)
	if added, err := playlists.PrependVideo(ctx, playlist.ID, "b", later); err != nil || !added {
		t.Fatalf("prepend b: %v %v", added, err)
	}
	if added, err := playlists.PrependVideo(ctx, playlist.ID, "a", later.Add(time.Hour)); err != nil || added {
		t.Fatalf("prepend duplicate a: %v %v", added, err)
	}
	if _, err := playlists.PrependVideo(ctx, uuid.NewString(), "a", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing playlist, got %v", err)
	}

	fetched, err := playlists.FindByOwnerAndName(ctx, owner.ID, models.LikedVideosPlaylist)
	if err != nil {
		t.Fatalf("find mirror: %v", err)
	}
	if got := strings.Join(fetched.Videos, ","); got != "b,a" {
		t.Fatalf("unexpected playlist order %q", got)
	}
	if !fetched.UpdatedAt.Equal(later) {
		t.Fatalf("expected updatedAt %v after prepend, got %v", later, fetched.UpdatedAt)
	}

	n, err := playlists.RemoveVideoEverywhere(ctx, "a", later.Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("remove everywhere: %d %v", n, err)
	}
}

func TestPostgresTweetRepository_PollsAndReactions(t *testing.T) {
	requirePool(t)
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	tweets := NewPostgresTweetRepository(testPool)
	author := createTestUser(t, users, "author")
	voter := createTestUser(t, users, "voter")

	now := time.Now().UTC().Truncate(time.Millisecond)
	end := now.Add(time.Hour)
	tweet := models.Tweet{
		ID:       uuid.NewString(),
		OwnerID:  author.ID,
		Content:  "Pick one #poll",
		Hashtags: []string{"poll"},
		Media:    []models.Media{{Type: models.MediaImage, URL: "https://cdn.example.com/a.png", ExternalID: "image:a"}},
		Poll: &models.Poll{
			Question: "Which?",
			Options:  []models.PollOption{{Text: "A"}, {Text: "B"}},
			IsActive: true,
			EndTime:  &end,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tweets.Create(ctx, tweet); err != nil {
		t.Fatalf("create tweet: %v", err)
	}

	if ok, err := tweets.AddVote(ctx, tweet.ID, voter.ID, 1, now); err != nil || !ok {
		t.Fatalf("first vote: %v %v", ok, err)
	}
	if ok, err := tweets.AddVote(ctx, tweet.ID, voter.ID, 0, now); err != nil || ok {
		t.Fatalf("second vote should be ignored: %v %v", ok, err)
	}

	if err := tweets.PutReaction(ctx, tweet.ID, models.Reaction{UserID: voter.ID, Type: models.ReactionLove}, now); err != nil {
		t.Fatalf("react: %v", err)
	}
	reacted := now.Add(time.Minute)
	if err := tweets.PutReaction(ctx, tweet.ID, models.Reaction{UserID: voter.ID, Type: models.ReactionWow}, reacted); err != nil {
		t.Fatalf("overwrite reaction: %v", err)
	}

	fetched, err := tweets.FindByID(ctx, tweet.ID)
	if err != nil {
		t.Fatalf("find tweet: %v", err)
	}
	if fetched.Poll == nil || fetched.Poll.VoteOf(voter.ID) != 1 || fetched.Poll.TotalVotes() != 1 {
		t.Fatalf("unexpected poll %+v", fetched.Poll)
	}
	if len(fetched.Reactions) != 1 || fetched.Reactions[0].Type != models.ReactionWow {
		t.Fatalf("unexpected reactions %+v", fetched.Reactions)
	}
	if len(fetched.Media) != 1 || fetched.Media[0].ExternalID != "image:a" {
		t.Fatalf("unexpected media %+v", fetched.Media)
	}
	if !fetched.UpdatedAt.Equal(reacted) {
		t.Fatalf("expected reaction to stamp updatedAt %v, got %v", reacted, fetched.UpdatedAt)
	}

	if n, err := tweets.DeactivateExpiredPolls(ctx, end.Add(time.Second)); err != nil || n != 1 {
		t.Fatalf("deactivate expired: %d %v", n, err)
	}

	if err := tweets.Delete(ctx, tweet.ID); err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if _, err := tweets.FindReaction(ctx, tweet.ID, voter.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reactions to cascade, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE tweet_retweets, tweet_reactions, poll_votes, poll_options, tweet_polls,
        tweets, playlists, subscriptions, likes, comments, videos, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
