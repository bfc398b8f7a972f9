package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var (
		c    models.Comment
		kind string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &kind, &c.Target.ID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	k, err := models.ParseTargetKind(kind)
	if err != nil {
		return models.Comment{}, err
	}
	c.Target.Kind = k
	return c, nil
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, target_kind, target_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, comment.ID, comment.OwnerID, string(comment.Target.Kind), comment.Target.ID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return classifyWriteError("insert comment", err)
	}
	return nil
}

// FindByID fetches a single comment.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT id, owner_id, target_kind, target_id, content, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Comment{}, classifyReadError("select comment", err)
	}
	return comment, nil
}

// Update rewrites the comment content.
func (r *PostgresCommentRepository) Update(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		comment.ID, comment.Content, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment row.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTarget returns the target's comments, newest first.
func (r *PostgresCommentRepository) ListByTarget(ctx context.Context, target models.Target) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, target_kind, target_id, content, created_at, updated_at
        FROM comments
        WHERE target_kind = $1 AND target_id = $2
        ORDER BY created_at DESC, id DESC
    `, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// DeleteByTarget removes every comment on target and returns the removed IDs.
func (r *PostgresCommentRepository) DeleteByTarget(ctx context.Context, target models.Target) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        DELETE FROM comments
        WHERE target_kind = $1 AND target_id = $2
        RETURNING id
    `, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("delete comments by target: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect deleted comment ids: %w", err)
	}
	return ids, nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Add inserts the like unless the (liked_by, target) key already exists.
func (r *PostgresLikeRepository) Add(ctx context.Context, like models.Like) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, target_kind, target_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (liked_by, target_kind, target_id) DO NOTHING
    `, like.ID, like.LikedBy, string(like.Target.Kind), like.Target.ID, like.CreatedAt, like.UpdatedAt)
	if err != nil {
		return false, classifyWriteError("insert like", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes the like and reports whether one existed.
func (r *PostgresLikeRepository) Remove(ctx context.Context, likedBy string, target models.Target) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
    `, likedBy, string(target.Kind), target.ID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether the user liked the target.
func (r *PostgresLikeRepository) Exists(ctx context.Context, likedBy string, target models.Target) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM likes WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
        )
    `, likedBy, string(target.Kind), target.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

// LikedAmong returns which of ids the user has liked.
func (r *PostgresLikeRepository) LikedAmong(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ids) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT target_id FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = ANY($3)
    `, likedBy, string(kind), uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("query liked targets: %w", err)
	}
	liked, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect liked targets: %w", err)
	}
	for _, id := range liked {
		out[id] = true
	}
	return out, nil
}

// CountByTargets counts likes per target in one grouped query.
func (r *PostgresLikeRepository) CountByTargets(ctx context.Context, kind models.TargetKind, ids []string) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(ids) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT target_id, count(*) FROM likes
        WHERE target_kind = $1 AND target_id = ANY($2)
        GROUP BY target_id
    `, string(kind), uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan like count: %w", err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate like counts: %w", err)
	}
	return out, nil
}

// ListByUser returns the user's likes of one kind, most recently updated first.
func (r *PostgresLikeRepository) ListByUser(ctx context.Context, likedBy string, kind models.TargetKind) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, liked_by, target_id, created_at, updated_at
        FROM likes
        WHERE liked_by = $1 AND target_kind = $2
        ORDER BY updated_at DESC, id DESC
    `, likedBy, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	likes := []models.Like{}
	for rows.Next() {
		like := models.Like{Target: models.Target{Kind: kind}}
		if err := rows.Scan(&like.ID, &like.LikedBy, &like.Target.ID, &like.CreatedAt, &like.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return likes, nil
}

// RemoveByUserTargets deletes the user's likes on the given targets.
func (r *PostgresLikeRepository) RemoveByUserTargets(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.remove(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = ANY($3)
    `, likedBy, string(kind), uniqueIDs(ids))
}

// RemoveByTargets deletes every like on the given targets.
func (r *PostgresLikeRepository) RemoveByTargets(ctx context.Context, kind models.TargetKind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.remove(ctx, `DELETE FROM likes WHERE target_kind = $1 AND target_id = ANY($2)`, string(kind), uniqueIDs(ids))
}

func (r *PostgresLikeRepository) remove(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete likes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Add inserts the edge unless the pair already exists.
func (r *PostgresSubscriptionRepository) Add(ctx context.Context, sub models.Subscription) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return false, classifyWriteError("insert subscription", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes the edge and reports whether it existed.
func (r *PostgresSubscriptionRepository) Remove(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether subscriberID follows channelID.
func (r *PostgresSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
    `, subscriberID, channelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return exists, nil
}

// ListBySubscriber returns the subscriber's edges, most recent first.
func (r *PostgresSubscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, subscriber_id, channel_id, created_at, updated_at
        FROM subscriptions
        WHERE subscriber_id = $1
        ORDER BY created_at DESC, id DESC
    `, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// CountByChannels counts subscribers per channel in one grouped query.
func (r *PostgresSubscriptionRepository) CountByChannels(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(channelIDs) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT channel_id, count(*) FROM subscriptions
        WHERE channel_id = ANY($1)
        GROUP BY channel_id
    `, uniqueIDs(channelIDs))
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan subscriber count: %w", err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriber counts: %w", err)
	}
	return out, nil
}

// CountBySubscriber counts the channels subscriberID follows.
func (r *PostgresSubscriptionRepository) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

const playlistColumns = `id, owner_id, name, description, videos, created_at, updated_at`

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Videos, &p.CreatedAt, &p.UpdatedAt)
	if p.Videos == nil {
		p.Videos = []string{}
	}
	return p, err
}

// Create inserts a playlist; a duplicate (owner, name) yields ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, videos, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, uniqueIDs(playlist.Videos),
		playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return classifyWriteError("insert playlist", err)
	}
	return nil
}

// FindByID fetches a single playlist.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	return r.findOne(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id)
}

// FindByOwnerAndName fetches the owner's playlist with the exact name.
func (r *PostgresPlaylistRepository) FindByOwnerAndName(ctx context.Context, ownerID, name string) (models.Playlist, error) {
	return r.findOne(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE owner_id = $1 AND name = $2`, ownerID, name)
}

func (r *PostgresPlaylistRepository) findOne(ctx context.Context, query string, args ...any) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Playlist{}, classifyReadError("select playlist", err)
	}
	return playlist, nil
}

// ListByOwner returns the owner's playlists, most recently updated first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+playlistColumns+`
        FROM playlists
        WHERE owner_id = $1
        ORDER BY updated_at DESC, id DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// Update rewrites name and description.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt)
	if err != nil {
		return classifyWriteError("update playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the playlist row.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PrependVideo puts videoID first unless the playlist already holds it.
func (r *PostgresPlaylistRepository) PrependVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	return r.changeMembership(ctx, "prepend playlist video", `
        UPDATE playlists
        SET videos = array_prepend($2::TEXT, videos), updated_at = $3
        WHERE id = $1 AND NOT ($2::TEXT = ANY(videos))
    `, id, videoID, now)
}

// RemoveVideo drops videoID from the playlist if present.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	return r.changeMembership(ctx, "remove playlist video", `
        UPDATE playlists
        SET videos = array_remove(videos, $2::TEXT), updated_at = $3
        WHERE id = $1 AND $2::TEXT = ANY(videos)
    `, id, videoID, now)
}

// changeMembership runs a guarded array update. Zero affected rows means either
// the playlist is missing or the membership already matched; the two are told apart here.
func (r *PostgresPlaylistRepository) changeMembership(ctx context.Context, action, query, id, videoID string, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, id, videoID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", action, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check playlist: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// RemoveVideoEverywhere strips videoID from every playlist that holds it.
func (r *PostgresPlaylistRepository) RemoveVideoEverywhere(ctx context.Context, videoID string, now time.Time) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET videos = array_remove(videos, $1::TEXT), updated_at = $2
        WHERE $1::TEXT = ANY(videos)
    `, videoID, now)
	if err != nil {
		return 0, fmt.Errorf("remove video from playlists: %w", err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ LikeRepository         = (*PostgresLikeRepository)(nil)
	_ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
	_ PlaylistRepository     = (*PostgresPlaylistRepository)(nil)
)
