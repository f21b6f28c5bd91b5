package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

// UpsertArticle inserts an article or, when one with the same fingerprint
// already exists, refreshes its mutable columns. It returns the article's
// row ID either way.
func (s *Store) UpsertArticle(ctx context.Context, article *models.Article) (int64, error) {
	fp := article.Fingerprint()

	fetchedAt := article.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO articles (
			fingerprint, source_id, source_name, author, title,
			description, content, url, image_url, published_at, fetched_at, themes
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			description = excluded.description,
			content     = excluded.content,
			image_url   = excluded.image_url,
			fetched_at  = excluded.fetched_at,
			themes      = excluded.themes
	`
	_, err := s.db.ExecContext(ctx, query,
		fp,
		article.SourceID,
		article.SourceName,
		article.Author,
		article.Title,
		article.Description,
		article.Content,
		article.URL,
		article.ImageURL,
		formatTime(article.PublishedAt),
		formatTime(fetchedAt),
		strings.Join(article.Themes, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting article %q: %w", article.Title, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM articles WHERE fingerprint = ?", fp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up article id for fingerprint %s: %w", fp, err)
	}
	return id, nil
}

// GetArticleByFingerprint returns the stored article with the given
// fingerprint, or ErrNotFound.
func (s *Store) GetArticleByFingerprint(ctx context.Context, fingerprint string) (*models.Article, error) {
	query := `
		SELECT source_id, source_name, author, title, description,
		       content, url, image_url, published_at, fetched_at, themes
		FROM articles
		WHERE fingerprint = ?
	`
	var (
		article     models.Article
		publishedAt string
		fetchedAt   string
		themes      string
	)
	err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(
		&article.SourceID,
		&article.SourceName,
		&article.Author,
		&article.Title,
		&article.Description,
		&article.Content,
		&article.URL,
		&article.ImageURL,
		&publishedAt,
		&fetchedAt,
		&themes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying article %s: %w", fingerprint, err)
	}

	article.PublishedAt = parseTime(publishedAt)
	article.FetchedAt = parseTime(fetchedAt)
	if themes != "" {
		article.Themes = strings.Split(themes, ",")
	}
	return &article, nil
}

// ListRecentArticles returns up to limit articles, newest first by
// publication time.
func (s *Store) ListRecentArticles(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT source_id, source_name, author, title, description,
		       content, url, image_url, published_at, fetched_at, themes
		FROM articles
		ORDER BY published_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var (
			article     models.Article
			publishedAt string
			fetchedAt   string
			themes      string
		)
		err := rows.Scan(
			&article.SourceID,
			&article.SourceName,
			&article.Author,
			&article.Title,
			&article.Description,
			&article.Content,
			&article.URL,
			&article.ImageURL,
			&publishedAt,
			&fetchedAt,
			&themes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		article.PublishedAt = parseTime(publishedAt)
		article.FetchedAt = parseTime(fetchedAt)
		if themes != "" {
			article.Themes = strings.Split(themes, ",")
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating article rows: %w", err)
	}
	return articles, nil
}

// formatTime renders a time for storage. The zero time becomes an empty
// string so unknown publication dates sort last.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sqliteTimeLayout)
}
