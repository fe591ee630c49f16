package database

type FeedRepository interface {
	GetFeed(userID, id string) (*Feed, error)
	GetFeedCount(userID string) (int, error)
	GetTotalFeedCount() (int, error)
	ListActiveFeeds(userID string) ([]Feed, error)

	// ListChangedSince returns feeds strictly after the (cursorTime, cursorID)
	// position in (updated_at, id) ascending order, at most limit rows.
	ListChangedSince(userID string, cursorTime int64, cursorID string, limit int) ([]Feed, error)

	// ListDirtySince returns feeds modified after the given sync high-water mark.
	ListDirtySince(userID string, since int64) ([]Feed, error)

	SaveFeed(feed Feed) error
	UpdateRefreshResult(userID, id string, lastFetchedAt *int64, lastError string, now int64) error

	// DeleteFeed writes a tombstone for the feed and cascades tombstones to
	// its articles in the same transaction.
	DeleteFeed(userID, id string, now int64) error

	// UpsertWithConflictCheck applies the push-side last-writer-wins rule
	// atomically and reports whether the incoming record was accepted.
	UpsertWithConflictCheck(feed Feed) (bool, error)

	// MergePulled applies the pull-side merge rule: the incoming record is
	// stored only if the local copy is strictly older.
	MergePulled(feed Feed) (bool, error)
}

type ArticleRepository interface {
	GetArticle(userID, id string) (*Article, error)
	GetArticleCount(userID string) (int, error)
	GetTotalArticleCount() (int, error)

	ListChangedSince(userID string, cursorTime int64, cursorID string, limit int) ([]Article, error)
	ListDirtySince(userID string, since int64) ([]Article, error)

	// IngestArticle inserts a freshly fetched article or refreshes the
	// content fields of an existing one, preserving IsRead and IsStarred.
	IngestArticle(article Article) error

	SetRead(userID, id string, read bool, now int64) error
	SetStarred(userID, id string, starred bool, now int64) error

	ListPendingExtraction(userID, feedID string, limit int) ([]Article, error)
	UpdateExtraction(userID, id, status, content, extractionError string, extractedAt *int64, now int64) error

	UpsertWithConflictCheck(article Article) (bool, error)
	MergePulled(article Article) (bool, error)
}

type SyncStateRepository interface {
	GetSyncState() (*SyncState, error)
	UpdateSyncState(state SyncState) error
}
