package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/feed"
)

const extractionBatchSize = 5

type ExtractContentTask struct {
	Task
	feedID      string
	userID      string
	userAgent   string
	httpClient  *http.Client
	extractor   *feed.ContentExtractor
	articleRepo database.ArticleRepository
}

func NewExtractContentTask(feedID, userID, userAgent string, httpClient *http.Client,
	extractor *feed.ContentExtractor, articleRepo database.ArticleRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:        NewTask(TaskTypeExtractContent),
		feedID:      feedID,
		userID:      userID,
		userAgent:   userAgent,
		httpClient:  httpClient,
		extractor:   extractor,
		articleRepo: articleRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	articles, err := t.articleRepo.ListPendingExtraction(t.userID, t.feedID, extractionBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list articles for extraction: %w", err)
	}

	if len(articles) == 0 {
		return nil
	}

	successCount := 0
	failedCount := 0

	for _, article := range articles {
		content, err := t.extractArticle(ctx, article.URL)
		now := database.NowMillis()

		if err != nil {
			failedCount++
			if updateErr := t.articleRepo.UpdateExtraction(t.userID, article.ID,
				database.ExtractionFailed, "", err.Error(), nil, now); updateErr != nil {
				return fmt.Errorf("failed to record extraction failure: %w", updateErr)
			}
			continue
		}

		successCount++
		if err := t.articleRepo.UpdateExtraction(t.userID, article.ID,
			database.ExtractionSuccess, content, "", &now, now); err != nil {
			return fmt.Errorf("failed to store extracted content: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "ExtractContent",
		"feed", t.feedID,
		"duration", t.GetDuration(),
		"extracted", successCount,
		"failed", failedCount)

	return nil
}

func (t *ExtractContentTask) extractArticle(ctx context.Context, url string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return t.extractor.Run(data)
}
