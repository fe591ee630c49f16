package database

import (
	"database/sql"
	"fmt"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo handles database operations for articles
type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, user_id, feed_id, guid, url, title, content, summary, published_at,
	is_read, is_starred, created_at, updated_at, is_deleted,
	extraction_status, extraction_error, extracted_at`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var article Article
	var publishedAt, extractedAt sql.NullInt64
	err := row.Scan(
		&article.ID, &article.UserID, &article.FeedID, &article.GUID, &article.URL,
		&article.Title, &article.Content, &article.Summary, &publishedAt,
		&article.IsRead, &article.IsStarred, &article.CreatedAt, &article.UpdatedAt,
		&article.IsDeleted, &article.ExtractionStatus, &article.ExtractionError, &extractedAt,
	)
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Int64
	}
	if extractedAt.Valid {
		article.ExtractedAt = &extractedAt.Int64
	}
	return &article, nil
}

func (r *ArticleRepo) GetArticle(userID, id string) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE user_id = ? AND id = ?
	`, userID, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (r *ArticleRepo) GetArticleCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE user_id = ? AND is_deleted = 0`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) GetTotalArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE is_deleted = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total article count: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) ListChangedSince(userID string, cursorTime int64, cursorID string, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE user_id = ?
		  AND (updated_at > ? OR (updated_at = ? AND id > ?))
		ORDER BY updated_at ASC, id ASC
		LIMIT ?
	`, userID, cursorTime, cursorTime, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *ArticleRepo) ListDirtySince(userID string, since int64) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC, id ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list dirty articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// IngestArticle stores a freshly fetched article. Content fields always
// refresh; IsRead, IsStarred, CreatedAt and extraction state of an existing
// row are left alone so re-ingesting the same upstream item never loses
// user state.
func (r *ArticleRepo) IngestArticle(article Article) error {
	_, err := r.db.Exec(`
		INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			summary = excluded.summary,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
	`, article.ID, article.UserID, article.FeedID, article.GUID, article.URL,
		article.Title, article.Content, article.Summary, article.PublishedAt,
		article.IsRead, article.IsStarred, article.CreatedAt, article.UpdatedAt,
		article.IsDeleted, article.ExtractionStatus, article.ExtractionError, article.ExtractedAt)

	if err != nil {
		return fmt.Errorf("failed to ingest article: %w", err)
	}

	return nil
}

func (r *ArticleRepo) SetRead(userID, id string, read bool, now int64) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET is_read = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, boolFlag(read), now, userID, id)

	if err != nil {
		return fmt.Errorf("failed to update read state: %w", err)
	}

	return nil
}

func (r *ArticleRepo) SetStarred(userID, id string, starred bool, now int64) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET is_starred = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, boolFlag(starred), now, userID, id)

	if err != nil {
		return fmt.Errorf("failed to update starred state: %w", err)
	}

	return nil
}

func (r *ArticleRepo) ListPendingExtraction(userID, feedID string, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE user_id = ? AND feed_id = ?
		  AND extraction_status = ? AND is_deleted = 0 AND url != ''
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, feedID, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles pending extraction: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *ArticleRepo) UpdateExtraction(userID, id, status, content, extractionError string, extractedAt *int64, now int64) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET extraction_status = ?,
		    content = CASE WHEN ? != '' THEN ? ELSE content END,
		    extraction_error = ?, extracted_at = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, status, content, content, extractionError, extractedAt, now, userID, id)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

func (r *ArticleRepo) UpsertWithConflictCheck(article Article) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedUpdatedAt int64
	var storedID string
	err = tx.QueryRow(`
		SELECT updated_at, id FROM articles WHERE user_id = ? AND id = ?
	`, article.UserID, article.ID).Scan(&storedUpdatedAt, &storedID)

	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}

	if err == nil && !incomingWins(article.UpdatedAt, article.ID, storedUpdatedAt, storedID) {
		return false, nil
	}

	err = execUpsertArticle(tx, article)
	if err != nil {
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit article upsert: %w", err)
	}

	return true, nil
}

func (r *ArticleRepo) MergePulled(article Article) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedUpdatedAt int64
	err = tx.QueryRow(`
		SELECT updated_at FROM articles WHERE user_id = ? AND id = ?
	`, article.UserID, article.ID).Scan(&storedUpdatedAt)

	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}

	if err == nil && storedUpdatedAt >= article.UpdatedAt {
		return false, nil
	}

	err = execUpsertArticle(tx, article)
	if err != nil {
		return false, fmt.Errorf("failed to merge article: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit article merge: %w", err)
	}

	return true, nil
}

func execUpsertArticle(tx *sql.Tx, article Article) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.ID, article.UserID, article.FeedID, article.GUID, article.URL,
		article.Title, article.Content, article.Summary, article.PublishedAt,
		article.IsRead, article.IsStarred, article.CreatedAt, article.UpdatedAt,
		article.IsDeleted, article.ExtractionStatus, article.ExtractionError, article.ExtractedAt)
	return err
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
