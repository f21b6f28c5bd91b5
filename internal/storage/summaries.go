package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

// UpsertSummary inserts a summary or, when one already exists for the same
// article fingerprint and engine, replaces its text. It returns the
// summary's row ID either way.
func (s *Store) UpsertSummary(ctx context.Context, summary *models.Summary) (int64, error) {
	createdAt := summary.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO summaries (article_fingerprint, summary_text, model_used, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (article_fingerprint, model_used) DO UPDATE SET
			summary_text = excluded.summary_text,
			created_at   = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query,
		summary.ArticleFingerprint,
		summary.Text,
		summary.ModelUsed,
		formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting summary for %s: %w", summary.ArticleFingerprint, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM summaries WHERE article_fingerprint = ? AND model_used = ?",
		summary.ArticleFingerprint, summary.ModelUsed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up summary id for %s: %w", summary.ArticleFingerprint, err)
	}
	return id, nil
}

// GetSummaryByFingerprint returns the newest stored summary for the given
// article fingerprint, or ErrNotFound.
func (s *Store) GetSummaryByFingerprint(ctx context.Context, fingerprint string) (*models.Summary, error) {
	query := `
		SELECT article_fingerprint, summary_text, model_used, created_at
		FROM summaries
		WHERE article_fingerprint = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		summary   models.Summary
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(
		&summary.ArticleFingerprint,
		&summary.Text,
		&summary.ModelUsed,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary for %s: %w", fingerprint, err)
	}

	summary.CreatedAt = parseTime(createdAt)
	return &summary, nil
}
