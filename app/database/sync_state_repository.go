package database

import (
	"database/sql"
	"fmt"
)

var _ SyncStateRepository = (*SyncStateRepo)(nil)

// SyncStateRepo persists the replica's sync cursors and last-sync watermark.
type SyncStateRepo struct {
	db *DB
}

func NewSyncStateRepository(db *DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// GetSyncState returns the replica's sync state, or nil before the first
// sync. Per-collection cursors persisted by older builds may be empty while
// the legacy single cursor is set; callers fall back accordingly.
func (r *SyncStateRepo) GetSyncState() (*SyncState, error) {
	var state SyncState
	err := r.db.QueryRow(`
		SELECT id, last_sync_at, feed_cursor, article_cursor, cursor
		FROM sync_state
		WHERE id = ?
	`, SyncStateID).Scan(&state.ID, &state.LastSyncAt, &state.FeedCursor, &state.ArticleCursor, &state.Cursor)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if state.FeedCursor == "" {
		state.FeedCursor = state.Cursor
	}
	if state.ArticleCursor == "" {
		state.ArticleCursor = state.Cursor
	}

	return &state, nil
}

func (r *SyncStateRepo) UpdateSyncState(state SyncState) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_state (id, last_sync_at, feed_cursor, article_cursor, cursor)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			feed_cursor = excluded.feed_cursor,
			article_cursor = excluded.article_cursor,
			cursor = excluded.cursor
	`, SyncStateID, state.LastSyncAt, state.FeedCursor, state.ArticleCursor, state.Cursor)

	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	return nil
}
