package sync

import (
	"cmp"
	"fmt"

	"github.com/jessetrippe/clarify-rss/app/database"
)

const DefaultPullLimit = 100

// Service implements the server side of the sync protocol over the record
// store. Conflict resolution is last-writer-wins per record with the id
// tie-break applied inside the repositories.
type Service struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
}

func NewService(feedRepo database.FeedRepository, articleRepo database.ArticleRepository) *Service {
	return &Service{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
	}
}

// Pull returns one page of changed records per collection since the caller's
// cursors. The two collections paginate independently; hasMore is a
// heuristic signaled when either page is exactly limit-sized.
func (s *Service) Pull(userID string, req PullRequest) (*PullResponse, error) {
	legacyCursor := cmp.Or(req.Cursor, "0")
	feedCursor := cmp.Or(req.FeedCursor, legacyCursor)
	articleCursor := cmp.Or(req.ArticleCursor, legacyCursor)
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPullLimit
	}

	feedTime, feedID := DecodeCursor(feedCursor)
	articleTime, articleID := DecodeCursor(articleCursor)

	feeds, err := s.feedRepo.ListChangedSince(userID, feedTime, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to pull feeds: %w", err)
	}

	articles, err := s.articleRepo.ListChangedSince(userID, articleTime, articleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to pull articles: %w", err)
	}

	resp := &PullResponse{
		Feeds:         make([]FeedRecord, 0, len(feeds)),
		Articles:      make([]ArticleRecord, 0, len(articles)),
		FeedCursor:    feedCursor,
		ArticleCursor: articleCursor,
		HasMore:       len(feeds) == limit || len(articles) == limit,
	}

	for _, feed := range feeds {
		resp.Feeds = append(resp.Feeds, FeedToWire(feed))
	}
	for _, article := range articles {
		resp.Articles = append(resp.Articles, ArticleToWire(article))
	}

	if len(feeds) > 0 {
		last := feeds[len(feeds)-1]
		resp.FeedCursor = EncodeCursor(last.UpdatedAt, last.ID)
	}
	if len(articles) > 0 {
		last := articles[len(articles)-1]
		resp.ArticleCursor = EncodeCursor(last.UpdatedAt, last.ID)
	}

	return resp, nil
}

// Push applies a batch of client records. Each record's conflict decision is
// independent; a rejected record is counted, not an error. A storage failure
// fails the whole call so the client's dirty tracking never silently
// diverges from what was applied.
func (s *Service) Push(userID string, req PushRequest) (*PushResponse, error) {
	resp := &PushResponse{Success: true}

	for _, record := range req.Feeds {
		applied, err := s.feedRepo.UpsertWithConflictCheck(FeedFromWire(record, userID))
		if err != nil {
			return nil, fmt.Errorf("failed to push feed %s: %w", record.ID, err)
		}
		if applied {
			resp.FeedsProcessed++
		} else {
			resp.Conflicts++
		}
	}

	for _, record := range req.Articles {
		applied, err := s.articleRepo.UpsertWithConflictCheck(ArticleFromWire(record, userID))
		if err != nil {
			return nil, fmt.Errorf("failed to push article %s: %w", record.ID, err)
		}
		if applied {
			resp.ArticlesProcessed++
		} else {
			resp.Conflicts++
		}
	}

	return resp, nil
}
