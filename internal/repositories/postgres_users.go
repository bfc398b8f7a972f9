package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, bio, avatar, avatar_id,
        cover_image, cover_image_id, refresh_token, watch_history, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName, &u.Bio, &u.Avatar, &u.AvatarID,
		&u.CoverImage, &u.CoverImageID, &u.RefreshToken, &u.WatchHistory, &u.CreatedAt, &u.UpdatedAt)
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	return u, err
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	history := user.WatchHistory
	if history == nil {
		history = []string{}
	}
	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, full_name, bio, avatar, avatar_id,
                           cover_image, cover_image_id, refresh_token, watch_history, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, user.ID, user.Username, user.Email, user.Password, user.FullName, user.Bio, user.Avatar, user.AvatarID,
		user.CoverImage, user.CoverImageID, user.RefreshToken, history, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return classifyWriteError("insert user", err)
	}
	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByUsername fetches a user by their (already normalised) username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "username", username)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is one of the fixed identifiers above, never caller input.
	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, classifyReadError("select user by "+column, err)
	}
	return user, nil
}

// FindByIDs returns the users that exist among ids. Missing IDs are skipped.
func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY username`, uniqueIDs(ids))
}

// FindByUsernames resolves @mentions in one round trip.
func (r *PostgresUserRepository) FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE username = ANY($1) ORDER BY username`, uniqueIDs(usernames))
}

// Search matches username or full name case-insensitively.
func (r *PostgresUserRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	return r.findMany(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username ILIKE $1 OR full_name ILIKE $1
        ORDER BY username
        LIMIT $2
    `, likePattern(query), limitArg(limit))
}

func (r *PostgresUserRepository) findMany(ctx context.Context, query string, args ...any) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update modifies the profile columns of an existing user.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, email = $3, password_hash = $4, full_name = $5, bio = $6,
            avatar = $7, avatar_id = $8, cover_image = $9, cover_image_id = $10, updated_at = $11
        WHERE id = $1
    `, user.ID, user.Username, user.Email, user.Password, user.FullName, user.Bio,
		user.Avatar, user.AvatarID, user.CoverImage, user.CoverImageID, user.UpdatedAt)
	if err != nil {
		return classifyWriteError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores the single active refresh token; an empty token logs the user out.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, "set refresh token", `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, token)
}

// AppendWatchHistory records a view at the end of the history, duplicates included, and
// reports whether the history held videoID before. The row lock taken by the CTE serializes
// concurrent watches of one user, so only one of them can see a first view.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var first bool
	err = conn.QueryRow(ctx, `
        WITH prior AS (
            SELECT id, $2::TEXT = ANY(watch_history) AS seen
            FROM users WHERE id = $1
            FOR UPDATE
        )
        UPDATE users u
        SET watch_history = array_append(u.watch_history, $2::TEXT), updated_at = $3
        FROM prior
        WHERE u.id = prior.id
        RETURNING NOT prior.seen
    `, id, videoID, now).Scan(&first)
	if err != nil {
		return false, classifyReadError("append watch history", err)
	}
	return first, nil
}

// ClearWatchHistory empties the history.
func (r *PostgresUserRepository) ClearWatchHistory(ctx context.Context, id string, now time.Time) error {
	return r.exec(ctx, "clear watch history", `UPDATE users SET watch_history = '{}', updated_at = $2 WHERE id = $1`, id, now)
}

func (r *PostgresUserRepository) exec(ctx context.Context, action, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
