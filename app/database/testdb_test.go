package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testFeed(userID, id string, updatedAt int64) Feed {
	return Feed{
		ID:        id,
		UserID:    userID,
		URL:       "https://example.com/" + id + ".xml",
		Title:     "Feed " + id,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func testArticle(userID, feedID, id string, updatedAt int64) Article {
	return Article{
		ID:               id,
		UserID:           userID,
		FeedID:           feedID,
		Title:            "Article " + id,
		CreatedAt:        updatedAt,
		UpdatedAt:        updatedAt,
		ExtractionStatus: ExtractionPending,
	}
}
