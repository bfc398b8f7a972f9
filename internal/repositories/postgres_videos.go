package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/models"
)

const videoColumns = `id, owner_id, video_file, video_file_id, thumbnail, thumbnail_id, title, description,
        category, duration, views, is_published, created_at, updated_at`

var videoSortColumns = map[string]string{
	VideoSortCreatedAt: "created_at",
	VideoSortUpdatedAt: "updated_at",
	VideoSortTitle:     "title",
	VideoSortViews:     "views",
	VideoSortDuration:  "duration",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for uploaded videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.VideoFileID, &v.Thumbnail, &v.ThumbnailID, &v.Title,
		&v.Description, &v.Category, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_file, video_file_id, thumbnail, thumbnail_id, title, description,
                            category, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, video.ID, video.OwnerID, video.VideoFile, video.VideoFileID, video.Thumbnail, video.ThumbnailID, video.Title,
		video.Description, video.Category, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return classifyWriteError("insert video", err)
	}
	return nil
}

// FindByID fetches a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, classifyReadError("select video", err)
	}
	return video, nil
}

// FindByIDs returns the videos that exist among ids, in no particular order.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	return r.query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, uniqueIDs(ids))
}

// Update rewrites the editable columns of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET video_file = $2, video_file_id = $3, thumbnail = $4, thumbnail_id = $5, title = $6,
            description = $7, category = $8, duration = $9, is_published = $10, updated_at = $11
        WHERE id = $1
    `, video.ID, video.VideoFile, video.VideoFileID, video.Thumbnail, video.ThumbnailID, video.Title,
		video.Description, video.Category, video.Duration, video.IsPublished, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video row. Cascading cleanup is the caller's job.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter atomically.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string, now time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of videos matching filter plus the total match count.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Query != "" {
		add(`(title ILIKE $%[1]d OR description ILIKE $%[1]d)`, likePattern(filter.Query))
	}
	if filter.OwnerID != "" {
		add(`owner_id = $%d`, filter.OwnerID)
	}
	if filter.Category != "" {
		add(`lower(category) = lower($%d)`, filter.Category)
	}
	if filter.Published != nil {
		add(`is_published = $%d`, *filter.Published)
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	column, ok := videoSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	dir := orderDirection(filter.SortDesc)

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM videos `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limitArg(filter.Limit), offsetArg(filter.Offset))
	query := fmt.Sprintf(`SELECT %s FROM videos %s ORDER BY %s %s, created_at %s, id %s LIMIT $%d OFFSET $%d`,
		videoColumns, clause, column, dir, dir, dir, len(args)+1, len(args)+2)

	rows, err := conn.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// ListByOwners returns the owners' videos newest first.
func (r *PostgresVideoRepository) ListByOwners(ctx context.Context, ownerIDs []string, publishedOnly bool) ([]models.Video, error) {
	return r.query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE owner_id = ANY($1) AND (is_published OR NOT $2)
        ORDER BY created_at DESC, id DESC
    `, uniqueIDs(ownerIDs), publishedOnly)
}

// TotalsByOwner aggregates a channel's video count and views.
func (r *PostgresVideoRepository) TotalsByOwner(ctx context.Context, ownerID string) (VideoTotals, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return VideoTotals{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var totals VideoTotals
	err = conn.QueryRow(ctx, `SELECT count(*), COALESCE(sum(views), 0)::BIGINT FROM videos WHERE owner_id = $1`, ownerID).
		Scan(&totals.Videos, &totals.Views)
	if err != nil {
		return VideoTotals{}, fmt.Errorf("sum video totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresVideoRepository) query(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
