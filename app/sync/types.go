package sync

import (
	"github.com/jessetrippe/clarify-rss/app/database"
)

// Wire types for the sync protocol. Fields are snake_case on the wire and
// map to the camelCase in-memory model through the adapters below, so wire
// formatting stays out of the record model. user_id never crosses the wire;
// the server derives it from the bearer token.

type FeedRecord struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	LastFetchedAt *int64 `json:"last_fetched_at,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	IsDeleted     int    `json:"is_deleted"`
}

type ArticleRecord struct {
	ID               string `json:"id"`
	FeedID           string `json:"feed_id"`
	GUID             string `json:"guid,omitempty"`
	URL              string `json:"url,omitempty"`
	Title            string `json:"title"`
	Content          string `json:"content,omitempty"`
	Summary          string `json:"summary,omitempty"`
	PublishedAt      *int64 `json:"published_at,omitempty"`
	IsRead           int    `json:"is_read"`
	IsStarred        int    `json:"is_starred"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
	IsDeleted        int    `json:"is_deleted"`
	ExtractionStatus string `json:"extraction_status,omitempty"`
	ExtractionError  string `json:"extraction_error,omitempty"`
	ExtractedAt      *int64 `json:"extracted_at,omitempty"`
}

type PullRequest struct {
	FeedCursor    string `json:"feedCursor,omitempty"`
	ArticleCursor string `json:"articleCursor,omitempty"`
	// Cursor is the legacy single cursor and applies to both collections
	// when the per-collection cursors are absent.
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type PullResponse struct {
	Feeds         []FeedRecord    `json:"feeds"`
	Articles      []ArticleRecord `json:"articles"`
	FeedCursor    string          `json:"feedCursor"`
	ArticleCursor string          `json:"articleCursor"`
	HasMore       bool            `json:"hasMore"`
}

type PushRequest struct {
	Feeds    []FeedRecord    `json:"feeds"`
	Articles []ArticleRecord `json:"articles"`
}

type PushResponse struct {
	Success           bool `json:"success"`
	FeedsProcessed    int  `json:"feedsProcessed"`
	ArticlesProcessed int  `json:"articlesProcessed"`
	Conflicts         int  `json:"conflicts"`
}

func FeedToWire(feed database.Feed) FeedRecord {
	return FeedRecord{
		ID:            feed.ID,
		URL:           feed.URL,
		Title:         feed.Title,
		LastFetchedAt: feed.LastFetchedAt,
		LastError:     feed.LastError,
		CreatedAt:     feed.CreatedAt,
		UpdatedAt:     feed.UpdatedAt,
		IsDeleted:     feed.IsDeleted,
	}
}

func FeedFromWire(record FeedRecord, userID string) database.Feed {
	return database.Feed{
		ID:            record.ID,
		UserID:        userID,
		URL:           record.URL,
		Title:         record.Title,
		LastFetchedAt: record.LastFetchedAt,
		LastError:     record.LastError,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
		IsDeleted:     record.IsDeleted,
	}
}

func ArticleToWire(article database.Article) ArticleRecord {
	return ArticleRecord{
		ID:               article.ID,
		FeedID:           article.FeedID,
		GUID:             article.GUID,
		URL:              article.URL,
		Title:            article.Title,
		Content:          article.Content,
		Summary:          article.Summary,
		PublishedAt:      article.PublishedAt,
		IsRead:           article.IsRead,
		IsStarred:        article.IsStarred,
		CreatedAt:        article.CreatedAt,
		UpdatedAt:        article.UpdatedAt,
		IsDeleted:        article.IsDeleted,
		ExtractionStatus: article.ExtractionStatus,
		ExtractionError:  article.ExtractionError,
		ExtractedAt:      article.ExtractedAt,
	}
}

func ArticleFromWire(record ArticleRecord, userID string) database.Article {
	return database.Article{
		ID:               record.ID,
		UserID:           userID,
		FeedID:           record.FeedID,
		GUID:             record.GUID,
		URL:              record.URL,
		Title:            record.Title,
		Content:          record.Content,
		Summary:          record.Summary,
		PublishedAt:      record.PublishedAt,
		IsRead:           record.IsRead,
		IsStarred:        record.IsStarred,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
		IsDeleted:        record.IsDeleted,
		ExtractionStatus: record.ExtractionStatus,
		ExtractionError:  record.ExtractionError,
		ExtractedAt:      record.ExtractedAt,
	}
}
