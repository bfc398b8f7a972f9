package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/models"
)

const tweetColumns = `id, owner_id, content, media, mentions, hashtags, parent_tweet_id, view_count, created_at, updated_at`

var tweetSortColumns = map[string]string{
	TweetSortCreatedAt: "created_at",
	TweetSortUpdatedAt: "updated_at",
	TweetSortViews:     "view_count",
}

// storedMedia is the JSONB shape of a tweet attachment; unlike the API shape it keeps the external ID.
type storedMedia struct {
	Type       models.MediaType `json:"type"`
	URL        string           `json:"url"`
	ExternalID string           `json:"externalId"`
}

func toStoredMedia(media []models.Media) []storedMedia {
	out := make([]storedMedia, 0, len(media))
	for _, m := range media {
		out = append(out, storedMedia{Type: m.Type, URL: m.URL, ExternalID: m.ExternalID})
	}
	return out
}

func fromStoredMedia(media []storedMedia) []models.Media {
	out := make([]models.Media, 0, len(media))
	for _, m := range media {
		out = append(out, models.Media{Type: m.Type, URL: m.URL, ExternalID: m.ExternalID})
	}
	return out
}

// PostgresTweetRepository stores tweets across the tweets, poll and reaction tables.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var (
		t     models.Tweet
		media []storedMedia
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &media, &t.Mentions, &t.Hashtags, &t.ParentTweetID,
		&t.ViewCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Tweet{}, err
	}
	t.Media = fromStoredMedia(media)
	t.Mentions = cloneStrings(t.Mentions)
	t.Hashtags = cloneStrings(t.Hashtags)
	t.Reactions = []models.Reaction{}
	t.Retweets = []string{}
	return t, nil
}

// Create inserts the tweet row and, when present, its poll.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO tweets (id, owner_id, content, media, mentions, hashtags, parent_tweet_id, view_count, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        `, tweet.ID, tweet.OwnerID, tweet.Content, toStoredMedia(tweet.Media), cloneStrings(tweet.Mentions),
			cloneStrings(tweet.Hashtags), tweet.ParentTweetID, tweet.ViewCount, tweet.CreatedAt, tweet.UpdatedAt)
		if err != nil {
			return classifyWriteError("insert tweet", err)
		}
		if tweet.Poll != nil {
			return insertPoll(ctx, tx, tweet.ID, *tweet.Poll)
		}
		return nil
	})
}

func insertPoll(ctx context.Context, tx pgx.Tx, tweetID string, poll models.Poll) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO tweet_polls (tweet_id, question, is_active, end_time)
        VALUES ($1, $2, $3, $4)
    `, tweetID, poll.Question, poll.IsActive, poll.EndTime)
	if err != nil {
		return classifyWriteError("insert poll", err)
	}

	batch := &pgx.Batch{}
	for i, opt := range poll.Options {
		batch.Queue(`INSERT INTO poll_options (tweet_id, position, text) VALUES ($1, $2, $3)`, tweetID, i, opt.Text)
		for _, voter := range opt.Votes {
			batch.Queue(`
                INSERT INTO poll_votes (tweet_id, voter_id, option_position)
                VALUES ($1, $2, $3)
                ON CONFLICT (tweet_id, voter_id) DO NOTHING
            `, tweetID, voter, i)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert poll options: %w", err)
	}
	return nil
}

// FindByID fetches a fully hydrated tweet.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
	if err != nil {
		return models.Tweet{}, classifyReadError("select tweet", err)
	}
	tweets := []models.Tweet{tweet}
	if err := hydrateTweets(ctx, conn, tweets); err != nil {
		return models.Tweet{}, err
	}
	return tweets[0], nil
}

// List returns one page of hydrated tweets plus the total match count.
func (r *PostgresTweetRepository) List(ctx context.Context, filter TweetFilter) ([]models.Tweet, int64, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, likePattern(filter.Query))
		where = append(where, fmt.Sprintf("content ILIKE $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	column, ok := tweetSortColumns[filter.SortBy]
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
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM tweets `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tweets: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limitArg(filter.Limit), offsetArg(filter.Offset))
	query := fmt.Sprintf(`SELECT %s FROM tweets %s ORDER BY %s %s, created_at %s, id %s LIMIT $%d OFFSET $%d`,
		tweetColumns, clause, column, dir, dir, dir, len(args)+1, len(args)+2)

	rows, err := conn.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tweets: %w", err)
	}
	tweets := []models.Tweet{}
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, tweet)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tweets: %w", err)
	}

	if err := hydrateTweets(ctx, conn, tweets); err != nil {
		return nil, 0, err
	}
	return tweets, total, nil
}

// hydrateTweets fills polls, reactions and retweets with one query per table.
func hydrateTweets(ctx context.Context, conn *pgxpool.Conn, tweets []models.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}
	index := make(map[string]int, len(tweets))
	ids := make([]string, 0, len(tweets))
	for i, t := range tweets {
		index[t.ID] = i
		ids = append(ids, t.ID)
	}

	rows, err := conn.Query(ctx, `
        SELECT tweet_id, question, is_active, end_time FROM tweet_polls WHERE tweet_id = ANY($1)
    `, ids)
	if err != nil {
		return fmt.Errorf("query polls: %w", err)
	}
	for rows.Next() {
		var (
			tweetID string
			poll    models.Poll
			endTime *time.Time
		)
		if err := rows.Scan(&tweetID, &poll.Question, &poll.IsActive, &endTime); err != nil {
			rows.Close()
			return fmt.Errorf("scan poll: %w", err)
		}
		poll.EndTime = endTime
		poll.Options = []models.PollOption{}
		tweets[index[tweetID]].Poll = &poll
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate polls: %w", err)
	}

	rows, err = conn.Query(ctx, `
        SELECT tweet_id, position, text FROM poll_options WHERE tweet_id = ANY($1) ORDER BY tweet_id, position
    `, ids)
	if err != nil {
		return fmt.Errorf("query poll options: %w", err)
	}
	for rows.Next() {
		var (
			tweetID  string
			position int
			text     string
		)
		if err := rows.Scan(&tweetID, &position, &text); err != nil {
			rows.Close()
			return fmt.Errorf("scan poll option: %w", err)
		}
		if poll := tweets[index[tweetID]].Poll; poll != nil {
			poll.Options = append(poll.Options, models.PollOption{Text: text, Votes: []string{}})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate poll options: %w", err)
	}

	rows, err = conn.Query(ctx, `
        SELECT tweet_id, voter_id, option_position FROM poll_votes
        WHERE tweet_id = ANY($1)
        ORDER BY voted_at, voter_id
    `, ids)
	if err != nil {
		return fmt.Errorf("query poll votes: %w", err)
	}
	for rows.Next() {
		var (
			tweetID, voterID string
			position         int
		)
		if err := rows.Scan(&tweetID, &voterID, &position); err != nil {
			rows.Close()
			return fmt.Errorf("scan poll vote: %w", err)
		}
		poll := tweets[index[tweetID]].Poll
		if poll != nil && position >= 0 && position < len(poll.Options) {
			poll.Options[position].Votes = append(poll.Options[position].Votes, voterID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate poll votes: %w", err)
	}

	rows, err = conn.Query(ctx, `
        SELECT tweet_id, user_id, type FROM tweet_reactions
        WHERE tweet_id = ANY($1)
        ORDER BY created_at, user_id
    `, ids)
	if err != nil {
		return fmt.Errorf("query reactions: %w", err)
	}
	for rows.Next() {
		var (
			tweetID  string
			reaction models.Reaction
		)
		if err := rows.Scan(&tweetID, &reaction.UserID, &reaction.Type); err != nil {
			rows.Close()
			return fmt.Errorf("scan reaction: %w", err)
		}
		i := index[tweetID]
		tweets[i].Reactions = append(tweets[i].Reactions, reaction)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reactions: %w", err)
	}

	rows, err = conn.Query(ctx, `
        SELECT tweet_id, user_id FROM tweet_retweets
        WHERE tweet_id = ANY($1)
        ORDER BY created_at, user_id
    `, ids)
	if err != nil {
		return fmt.Errorf("query retweets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tweetID, userID string
		if err := rows.Scan(&tweetID, &userID); err != nil {
			return fmt.Errorf("scan retweet: %w", err)
		}
		i := index[tweetID]
		tweets[i].Retweets = append(tweets[i].Retweets, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate retweets: %w", err)
	}
	return nil
}

// Update rewrites content, media, mentions and hashtags.
func (r *PostgresTweetRepository) Update(ctx context.Context, tweet models.Tweet) error {
	return r.exec(ctx, "update tweet", `
        UPDATE tweets
        SET content = $2, media = $3, mentions = $4, hashtags = $5, updated_at = $6
        WHERE id = $1
    `, tweet.ID, tweet.Content, toStoredMedia(tweet.Media), cloneStrings(tweet.Mentions),
		cloneStrings(tweet.Hashtags), tweet.UpdatedAt)
}

// Delete removes the tweet; poll, reactions and retweets go with it via foreign keys.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete tweet", `DELETE FROM tweets WHERE id = $1`, id)
}

// IncrementViews bumps the view counter atomically.
func (r *PostgresTweetRepository) IncrementViews(ctx context.Context, id string, now time.Time) error {
	return r.exec(ctx, "increment tweet views",
		`UPDATE tweets SET view_count = view_count + 1, updated_at = $2 WHERE id = $1`, id, now)
}

func (r *PostgresTweetRepository) exec(ctx context.Context, action, query string, args ...any) error {
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

// ReplacePoll swaps the poll and its votes atomically; nil removes the poll.
func (r *PostgresTweetRepository) ReplacePoll(ctx context.Context, tweetID string, poll *models.Poll) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`, tweetID).Scan(&exists); err != nil {
			return fmt.Errorf("check tweet: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tweet_polls WHERE tweet_id = $1`, tweetID); err != nil {
			return fmt.Errorf("delete poll: %w", err)
		}
		if poll == nil {
			return nil
		}
		return insertPoll(ctx, tx, tweetID, *poll)
	})
}

// AddVote records voterID for option unless they already voted in this poll.
func (r *PostgresTweetRepository) AddVote(ctx context.Context, tweetID, voterID string, option int, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		hasPoll bool
		options int
	)
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM tweet_polls WHERE tweet_id = $1),
               (SELECT count(*) FROM poll_options WHERE tweet_id = $1)
    `, tweetID).Scan(&hasPoll, &options)
	if err != nil {
		return false, fmt.Errorf("check poll: %w", err)
	}
	if !hasPoll {
		return false, ErrNotFound
	}
	if option < 0 || option >= options {
		return false, fmt.Errorf("poll option %d out of range", option)
	}

	tag, err := conn.Exec(ctx, `
        WITH vote AS (
            INSERT INTO poll_votes (tweet_id, voter_id, option_position)
            VALUES ($1, $2, $3)
            ON CONFLICT (tweet_id, voter_id) DO NOTHING
            RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $4 WHERE id IN (SELECT tweet_id FROM vote)
    `, tweetID, voterID, option, now)
	if err != nil {
		return false, classifyWriteError("insert vote", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetPollActive flips the poll's active flag.
func (r *PostgresTweetRepository) SetPollActive(ctx context.Context, tweetID string, active bool, now time.Time) error {
	return r.exec(ctx, "set poll active", `
        WITH poll AS (
            UPDATE tweet_polls SET is_active = $2 WHERE tweet_id = $1 RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $3 WHERE id IN (SELECT tweet_id FROM poll)
    `, tweetID, active, now)
}

// DeactivateExpiredPolls closes every active poll whose end time is at or before now.
func (r *PostgresTweetRepository) DeactivateExpiredPolls(ctx context.Context, now time.Time) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        WITH closed AS (
            UPDATE tweet_polls SET is_active = FALSE
            WHERE is_active AND end_time IS NOT NULL AND end_time <= $1
            RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $1 WHERE id IN (SELECT tweet_id FROM closed)
    `, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired polls: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindReaction returns userID's reaction on the tweet or ErrNotFound.
func (r *PostgresTweetRepository) FindReaction(ctx context.Context, tweetID, userID string) (models.Reaction, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Reaction{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	reaction := models.Reaction{UserID: userID}
	err = conn.QueryRow(ctx, `SELECT type FROM tweet_reactions WHERE tweet_id = $1 AND user_id = $2`, tweetID, userID).
		Scan(&reaction.Type)
	if err != nil {
		return models.Reaction{}, classifyReadError("select reaction", err)
	}
	return reaction, nil
}

// PutReaction inserts or overwrites the user's reaction.
func (r *PostgresTweetRepository) PutReaction(ctx context.Context, tweetID string, reaction models.Reaction, now time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        WITH reaction AS (
            INSERT INTO tweet_reactions (tweet_id, user_id, type)
            VALUES ($1, $2, $3)
            ON CONFLICT (tweet_id, user_id) DO UPDATE SET type = EXCLUDED.type
            RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $4 WHERE id IN (SELECT tweet_id FROM reaction)
    `, tweetID, reaction.UserID, string(reaction.Type), now)
	if err != nil {
		return classifyWriteError("upsert reaction", err)
	}
	return nil
}

// RemoveReaction deletes the user's reaction and reports whether one existed.
func (r *PostgresTweetRepository) RemoveReaction(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	return r.removeEdge(ctx, "delete reaction", `
        WITH gone AS (
            DELETE FROM tweet_reactions WHERE tweet_id = $1 AND user_id = $2 RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $3 WHERE id IN (SELECT tweet_id FROM gone)
    `, tweetID, userID, now)
}

// AddRetweet records the retweet unless it already exists.
func (r *PostgresTweetRepository) AddRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        WITH retweet AS (
            INSERT INTO tweet_retweets (tweet_id, user_id)
            VALUES ($1, $2)
            ON CONFLICT (tweet_id, user_id) DO NOTHING
            RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $3 WHERE id IN (SELECT tweet_id FROM retweet)
    `, tweetID, userID, now)
	if err != nil {
		return false, classifyWriteError("insert retweet", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveRetweet deletes the retweet and reports whether one existed.
func (r *PostgresTweetRepository) RemoveRetweet(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	return r.removeEdge(ctx, "delete retweet", `
        WITH gone AS (
            DELETE FROM tweet_retweets WHERE tweet_id = $1 AND user_id = $2 RETURNING tweet_id
        )
        UPDATE tweets SET updated_at = $3 WHERE id IN (SELECT tweet_id FROM gone)
    `, tweetID, userID, now)
}

// removeEdge runs a delete that stamps the tweet; zero rows means the edge or the tweet is missing.
func (r *PostgresTweetRepository) removeEdge(ctx context.Context, action, query, tweetID, userID string, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, tweetID, userID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", action, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`, tweetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check tweet: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

var _ TweetRepository = (*PostgresTweetRepository)(nil)
