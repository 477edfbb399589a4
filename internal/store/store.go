// Package store archives collected articles and published digests in
// a local SQLite database. The archive is optional: when no database
// path is configured the pipeline runs without it, and write failures
// are logged rather than surfaced.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brieflybot/briefly/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_articles (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	url TEXT UNIQUE NOT NULL,
	source TEXT NOT NULL,
	source_type TEXT NOT NULL,
	category TEXT,
	summary TEXT,
	published_at TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_digests (
	id TEXT PRIMARY KEY,
	digest_date TEXT UNIQUE NOT NULL,
	summary TEXT NOT NULL,
	article_count INTEGER NOT NULL DEFAULT 0,
	slack_message_ts TEXT,
	model_used TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS digest_articles (
	id TEXT PRIMARY KEY,
	digest_id TEXT NOT NULL REFERENCES daily_digests(id) ON DELETE CASCADE,
	article_id TEXT NOT NULL REFERENCES news_articles(id) ON DELETE CASCADE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(digest_id, article_id)
);
`

// Digest is one archived digest row
type Digest struct {
	ID           string    `json:"id"`
	Date         string    `json:"digest_date"`
	Summary      string    `json:"summary"`
	ArticleCount int       `json:"article_count"`
	MessageTS    string    `json:"slack_message_ts"`
	ModelUsed    string    `json:"model_used"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps the SQLite archive
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveArticles inserts articles, skipping URLs already archived.
// Returns the number of newly inserted rows.
func (s *Store) SaveArticles(ctx context.Context, articles []model.Article) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO news_articles (id, title, url, source, source_type, category, summary, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range articles {
		res, err := stmt.ExecContext(ctx, uuid.New().String(), a.Title, a.URL,
			a.Source, string(a.SourceType), a.Category, a.Summary, a.PublishedAt)
		if err != nil {
			return inserted, fmt.Errorf("inserting article %q: %w", a.Title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}

	return inserted, nil
}

// SaveDigest archives a published digest and links it to the
// articles it contained
func (s *Store) SaveDigest(ctx context.Context, digest Digest, articles []model.Article) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	digestID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_digests (id, digest_date, summary, article_count, slack_message_ts, model_used)
		VALUES (?, ?, ?, ?, ?, ?)`,
		digestID, digest.Date, digest.Summary, digest.ArticleCount, digest.MessageTS, digest.ModelUsed)
	if err != nil {
		return "", fmt.Errorf("inserting digest: %w", err)
	}

	for _, a := range articles {
		var articleID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM news_articles WHERE url = ?`, a.URL).Scan(&articleID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("looking up article %q: %w", a.URL, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO digest_articles (id, digest_id, article_id)
			VALUES (?, ?, ?)`, uuid.New().String(), digestID, articleID)
		if err != nil {
			return "", fmt.Errorf("linking article %q: %w", a.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	return digestID, nil
}

// GetDigestByDate returns the archived digest for a date, or nil
// when none exists
func (s *Store) GetDigestByDate(ctx context.Context, date string) (*Digest, error) {
	var d Digest
	var ts, modelUsed sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, digest_date, summary, article_count, slack_message_ts, model_used, created_at
		FROM daily_digests WHERE digest_date = ?`, date).
		Scan(&d.ID, &d.Date, &d.Summary, &d.ArticleCount, &ts, &modelUsed, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying digest: %w", err)
	}

	d.MessageTS = ts.String
	d.ModelUsed = modelUsed.String
	return &d, nil
}

// RecentDigests returns up to limit digests, newest first
func (s *Store) RecentDigests(ctx context.Context, limit int) ([]Digest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, digest_date, summary, article_count, slack_message_ts, model_used, created_at
		FROM daily_digests ORDER BY digest_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	var digests []Digest
	for rows.Next() {
		var d Digest
		var ts, modelUsed sql.NullString
		if err := rows.Scan(&d.ID, &d.Date, &d.Summary, &d.ArticleCount, &ts, &modelUsed, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		d.MessageTS = ts.String
		d.ModelUsed = modelUsed.String
		digests = append(digests, d)
	}

	return digests, rows.Err()
}

// DigestArticles returns the archived articles linked to a digest
func (s *Store) DigestArticles(ctx context.Context, digestID string) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.title, a.url, a.source, a.source_type, a.category, a.summary, a.published_at
		FROM news_articles a
		JOIN digest_articles da ON da.article_id = a.id
		WHERE da.digest_id = ?
		ORDER BY da.created_at`, digestID)
	if err != nil {
		return nil, fmt.Errorf("querying digest articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		var sourceType string
		var category, summary, publishedAt sql.NullString
		if err := rows.Scan(&a.Title, &a.URL, &a.Source, &sourceType, &category, &summary, &publishedAt); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		a.SourceType = model.ParseSourceType(sourceType)
		a.Category = category.String
		a.Summary = summary.String
		a.PublishedAt = publishedAt.String
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

// ArticleCount returns the number of archived articles
func (s *Store) ArticleCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return count, nil
}
