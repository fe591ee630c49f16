package database

import (
	"time"
)

// Timestamps are integer milliseconds since the epoch throughout. Every
// writer bumps UpdatedAt on mutation; (UpdatedAt, ID) is the sync ordering
// key for both collections.

// Feed represents a subscribed feed in a replica or the central store.
type Feed struct {
	ID            string
	UserID        string
	URL           string
	Title         string
	LastFetchedAt *int64
	LastError     string
	CreatedAt     int64
	UpdatedAt     int64
	IsDeleted     int
}

// Article represents one feed item. IsRead and IsStarred are user state and
// survive content re-ingestion; IsDeleted is a soft tombstone.
type Article struct {
	ID               string
	UserID           string
	FeedID           string
	GUID             string
	URL              string
	Title            string
	Content          string
	Summary          string
	PublishedAt      *int64
	IsRead           int
	IsStarred        int
	CreatedAt        int64
	UpdatedAt        int64
	IsDeleted        int
	ExtractionStatus string
	ExtractionError  string
	ExtractedAt      *int64
}

// Extraction status values for Article.ExtractionStatus.
const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)

// SyncState is the single per-replica row holding the last sync high-water
// mark and the per-collection pull cursors. Cursor is the legacy single
// cursor retained for replicas persisted before the split.
type SyncState struct {
	ID            string
	LastSyncAt    int64
	FeedCursor    string
	ArticleCursor string
	Cursor        string
}

const SyncStateID = "default"

// NowMillis returns the current wall clock in milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
