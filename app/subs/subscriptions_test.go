package subs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessetrippe/clarify-rss/app/database"
)

func writeSubscriptionsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "subscriptions.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write subscriptions file: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeSubscriptionsFile(t, `feeds:
  - url: https://example.com/a.xml
    title: Feed A
  - url: https://example.com/b.xml
`)

	subs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("Expected 2 subscriptions, got %d", len(subs))
	}
	if subs[0].URL != "https://example.com/a.xml" || subs[0].Title != "Feed A" {
		t.Errorf("Unexpected first subscription: %+v", subs[0])
	}
	if subs[1].Title != "" {
		t.Errorf("Expected empty title for second subscription, got %q", subs[1].Title)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	subs, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if subs != nil {
		t.Errorf("Expected nil subscriptions, got %+v", subs)
	}
}

func TestLoad_MissingURLRejected(t *testing.T) {
	path := writeSubscriptionsFile(t, `feeds:
  - title: No URL here
`)

	if _, err := Load(path); err == nil {
		t.Error("Expected error for subscription without url")
	}
}

func TestLoad_InvalidYAMLRejected(t *testing.T) {
	path := writeSubscriptionsFile(t, "feeds: [unclosed")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid yaml")
	}
}

func TestRegister_AddsNewAndSkipsExisting(t *testing.T) {
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	feedRepo := database.NewFeedRepository(db)

	existing := database.Feed{
		ID:        "existing-id",
		UserID:    "local",
		URL:       "https://example.com/a.xml",
		Title:     "Renamed by user",
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}
	if err := feedRepo.SaveFeed(existing); err != nil {
		t.Fatalf("Failed to save existing feed: %v", err)
	}

	subs := []Subscription{
		{URL: "https://example.com/a.xml", Title: "Feed A"},
		{URL: "https://example.com/b.xml", Title: "Feed B"},
	}

	added, err := Register(subs, feedRepo, "local")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 feed added, got %d", added)
	}

	// The existing feed keeps its id and user edits
	feed, _ := feedRepo.GetFeed("local", "existing-id")
	if feed == nil || feed.Title != "Renamed by user" {
		t.Errorf("Expected existing feed untouched, got %+v", feed)
	}

	count, _ := feedRepo.GetFeedCount("local")
	if count != 2 {
		t.Errorf("Expected 2 feeds after registration, got %d", count)
	}

	// Re-registration is a no-op
	added, err = Register(subs, feedRepo, "local")
	if err != nil {
		t.Fatalf("Second register failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected no feeds added on re-registration, got %d", added)
	}
}
