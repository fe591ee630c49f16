package database

import (
	"database/sql"
	"fmt"
)

var _ FeedRepository = (*FeedRepo)(nil)

// FeedRepo handles database operations for feeds
type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `id, user_id, url, title, last_fetched_at, last_error, created_at, updated_at, is_deleted`

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	var lastFetchedAt sql.NullInt64
	err := row.Scan(
		&feed.ID, &feed.UserID, &feed.URL, &feed.Title, &lastFetchedAt,
		&feed.LastError, &feed.CreatedAt, &feed.UpdatedAt, &feed.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	if lastFetchedAt.Valid {
		feed.LastFetchedAt = &lastFetchedAt.Int64
	}
	return &feed, nil
}

func (r *FeedRepo) GetFeed(userID, id string) (*Feed, error) {
	row := r.db.QueryRow(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = ? AND id = ?
	`, userID, id)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepo) GetFeedCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds WHERE user_id = ? AND is_deleted = 0`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// GetTotalFeedCount counts live feeds across all users, for health reporting.
func (r *FeedRepo) GetTotalFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds WHERE is_deleted = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total feed count: %w", err)
	}
	return count, nil
}

// ListActiveFeeds returns non-tombstoned feeds for refresh scheduling.
func (r *FeedRepo) ListActiveFeeds(userID string) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = ? AND is_deleted = 0
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

// ListChangedSince pages feeds in (updated_at, id) order strictly after the
// cursor position. The two-part predicate keeps same-millisecond records
// beyond a page boundary from being skipped.
func (r *FeedRepo) ListChangedSince(userID string, cursorTime int64, cursorID string, limit int) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = ?
		  AND (updated_at > ? OR (updated_at = ? AND id > ?))
		ORDER BY updated_at ASC, id ASC
		LIMIT ?
	`, userID, cursorTime, cursorTime, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func (r *FeedRepo) ListDirtySince(userID string, since int64) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC, id ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list dirty feeds: %w", err)
	}
	defer rows.Close()

	return collectFeeds(rows)
}

func collectFeeds(rows *sql.Rows) ([]Feed, error) {
	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// SaveFeed writes the feed unconditionally, replacing any existing row.
func (r *FeedRepo) SaveFeed(feed Feed) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO feeds (`+feedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.UserID, feed.URL, feed.Title, feed.LastFetchedAt,
		feed.LastError, feed.CreatedAt, feed.UpdatedAt, feed.IsDeleted)

	if err != nil {
		return fmt.Errorf("failed to save feed: %w", err)
	}

	return nil
}

// UpdateRefreshResult records the outcome of a refresh attempt. lastError is
// cleared on success and stored verbatim on failure.
func (r *FeedRepo) UpdateRefreshResult(userID, id string, lastFetchedAt *int64, lastError string, now int64) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_fetched_at = COALESCE(?, last_fetched_at), last_error = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, lastFetchedAt, lastError, now, userID, id)

	if err != nil {
		return fmt.Errorf("failed to update refresh result: %w", err)
	}

	return nil
}

// DeleteFeed tombstones the feed and all of its articles so the deletion
// propagates through sync. Both writes share one transaction.
func (r *FeedRepo) DeleteFeed(userID, id string, now int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE feeds
		SET is_deleted = 1, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, now, userID, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone feed: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE articles
		SET is_deleted = 1, updated_at = ?
		WHERE user_id = ? AND feed_id = ? AND is_deleted = 0
	`, now, userID, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone feed articles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed deletion: %w", err)
	}

	return nil
}

// UpsertWithConflictCheck applies the push-side last-writer-wins rule. The
// existence check and the write share a transaction so concurrent pushes
// cannot race between them.
func (r *FeedRepo) UpsertWithConflictCheck(feed Feed) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedUpdatedAt int64
	var storedID string
	err = tx.QueryRow(`
		SELECT updated_at, id FROM feeds WHERE user_id = ? AND id = ?
	`, feed.UserID, feed.ID).Scan(&storedUpdatedAt, &storedID)

	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing feed: %w", err)
	}

	if err == nil && !incomingWins(feed.UpdatedAt, feed.ID, storedUpdatedAt, storedID) {
		return false, nil
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO feeds (`+feedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.UserID, feed.URL, feed.Title, feed.LastFetchedAt,
		feed.LastError, feed.CreatedAt, feed.UpdatedAt, feed.IsDeleted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit feed upsert: %w", err)
	}

	return true, nil
}

// MergePulled applies a pulled feed only when the local copy is strictly
// older, so a newer unpushed local edit is never clobbered by its own echo.
func (r *FeedRepo) MergePulled(feed Feed) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedUpdatedAt int64
	err = tx.QueryRow(`
		SELECT updated_at FROM feeds WHERE user_id = ? AND id = ?
	`, feed.UserID, feed.ID).Scan(&storedUpdatedAt)

	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing feed: %w", err)
	}

	if err == nil && storedUpdatedAt >= feed.UpdatedAt {
		return false, nil
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO feeds (`+feedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.UserID, feed.URL, feed.Title, feed.LastFetchedAt,
		feed.LastError, feed.CreatedAt, feed.UpdatedAt, feed.IsDeleted)
	if err != nil {
		return false, fmt.Errorf("failed to merge feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit feed merge: %w", err)
	}

	return true, nil
}
