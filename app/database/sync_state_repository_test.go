package database

import (
	"testing"
)

func TestSyncStateRepo_GetSyncState_NilBeforeFirstSync(t *testing.T) {
	repo := NewSyncStateRepository(newTestDB(t))

	state, err := repo.GetSyncState()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if state != nil {
		t.Errorf("Expected nil state before first sync, got %+v", state)
	}
}

func TestSyncStateRepo_UpdateAndGet(t *testing.T) {
	repo := NewSyncStateRepository(newTestDB(t))

	err := repo.UpdateSyncState(SyncState{
		LastSyncAt:    5000,
		FeedCursor:    "feed-cursor",
		ArticleCursor: "article-cursor",
	})
	if err != nil {
		t.Fatalf("Failed to update sync state: %v", err)
	}

	state, err := repo.GetSyncState()
	if err != nil {
		t.Fatalf("Failed to get sync state: %v", err)
	}
	if state == nil {
		t.Fatal("Expected state, got nil")
	}
	if state.LastSyncAt != 5000 {
		t.Errorf("Expected last_sync_at 5000, got %d", state.LastSyncAt)
	}
	if state.FeedCursor != "feed-cursor" {
		t.Errorf("Expected feed cursor persisted, got %q", state.FeedCursor)
	}
	if state.ArticleCursor != "article-cursor" {
		t.Errorf("Expected article cursor persisted, got %q", state.ArticleCursor)
	}

	// Second update replaces the single row
	err = repo.UpdateSyncState(SyncState{LastSyncAt: 6000, FeedCursor: "fc2", ArticleCursor: "ac2"})
	if err != nil {
		t.Fatalf("Failed to update sync state: %v", err)
	}

	state, _ = repo.GetSyncState()
	if state.LastSyncAt != 6000 {
		t.Errorf("Expected last_sync_at 6000 after update, got %d", state.LastSyncAt)
	}
}

func TestSyncStateRepo_LegacyCursorFallback(t *testing.T) {
	repo := NewSyncStateRepository(newTestDB(t))

	// A replica persisted before the per-collection split only has the
	// single cursor
	err := repo.UpdateSyncState(SyncState{LastSyncAt: 1000, Cursor: "legacy"})
	if err != nil {
		t.Fatalf("Failed to update sync state: %v", err)
	}

	state, err := repo.GetSyncState()
	if err != nil {
		t.Fatalf("Failed to get sync state: %v", err)
	}
	if state.FeedCursor != "legacy" {
		t.Errorf("Expected feed cursor to fall back to legacy cursor, got %q", state.FeedCursor)
	}
	if state.ArticleCursor != "legacy" {
		t.Errorf("Expected article cursor to fall back to legacy cursor, got %q", state.ArticleCursor)
	}
}
