package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jessetrippe/clarify-rss/app/database"
)

// Minimum time between refreshes of one feed.
const minRefreshInterval = 5 * time.Minute

const fetchTimeout = 30 * time.Second

type FeedError struct {
	FeedID    string
	FeedTitle string
	Error     string
}

type RefreshResult struct {
	Total     int
	Refreshed int
	Skipped   int
	Errors    []FeedError
}

// Refresher fetches upstream feed content and ingests discovered articles
// into the local replica. A per-feed failure is recorded on the feed record
// as last_error and never aborts the run, so a refresh always completes
// before a sync pushes its results.
type Refresher struct {
	httpClient  *http.Client
	parser      *Parser
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	userID      string
	userAgent   string
}

func NewRefresher(httpClient *http.Client, parser *Parser, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, userID, userAgent string) *Refresher {
	return &Refresher{
		httpClient:  httpClient,
		parser:      parser,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		userID:      userID,
		userAgent:   userAgent,
	}
}

// RefreshAll fetches every active feed not refreshed within the minimum
// interval. Ingestion preserves read/starred state on existing articles;
// only content fields are refreshed.
func (r *Refresher) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	feeds, err := r.feedRepo.ListActiveFeeds(r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds for refresh: %w", err)
	}

	result := &RefreshResult{Total: len(feeds)}
	now := database.NowMillis()

	for _, feed := range feeds {
		if feed.LastFetchedAt != nil && now-*feed.LastFetchedAt < minRefreshInterval.Milliseconds() {
			result.Skipped++
			continue
		}

		ingested, err := r.refreshFeed(ctx, feed)
		fetchedAt := database.NowMillis()

		if err != nil {
			result.Errors = append(result.Errors, FeedError{
				FeedID:    feed.ID,
				FeedTitle: feed.Title,
				Error:     err.Error(),
			})

			if updateErr := r.feedRepo.UpdateRefreshResult(r.userID, feed.ID, nil, err.Error(), fetchedAt); updateErr != nil {
				slog.Error("Failed to record feed error", "feed", feed.ID, "error", updateErr)
			}

			slog.Warn("Feed refresh failed", "feed", feed.ID, "url", feed.URL, "error", err)
			continue
		}

		if err := r.feedRepo.UpdateRefreshResult(r.userID, feed.ID, &fetchedAt, "", fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to record refresh result: %w", err)
		}

		result.Refreshed++
		slog.Info("Feed refreshed", "feed", feed.ID, "url", feed.URL, "articles", ingested)
	}

	return result, nil
}

func (r *Refresher) refreshFeed(ctx context.Context, feed database.Feed) (int, error) {
	data, err := r.fetch(ctx, feed.URL)
	if err != nil {
		return 0, err
	}

	_, items, err := r.parser.Run(data)
	if err != nil {
		return 0, err
	}

	now := database.NowMillis()

	for _, item := range items {
		var publishedAt *int64
		if item.PublishedAt != nil {
			ms := item.PublishedAt.UnixMilli()
			publishedAt = &ms
		}

		article := database.Article{
			ID:               GenerateArticleID(feed.ID, item.GUID, item.URL, item.Title, publishedAt),
			UserID:           r.userID,
			FeedID:           feed.ID,
			GUID:             item.GUID,
			URL:              item.URL,
			Title:            item.Title,
			Content:          item.Content,
			Summary:          item.Summary,
			PublishedAt:      publishedAt,
			CreatedAt:        now,
			UpdatedAt:        now,
			ExtractionStatus: database.ExtractionPending,
		}

		if err := r.articleRepo.IngestArticle(article); err != nil {
			return 0, err
		}
	}

	return len(items), nil
}

func (r *Refresher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
