// Package models defines the domain entities shared across newsbrief.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Article represents a single news article fetched from a headline provider.
// Within a run an Article is immutable once fetched.
type Article struct {
	SourceID    string    `json:"source_id,omitempty"`
	SourceName  string    `json:"source_name"`
	Author      string    `json:"author,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
	Themes      []string  `json:"themes,omitempty"`
}

// Summary holds an AI-generated summary for an article.
type Summary struct {
	ArticleFingerprint string    `json:"article_fingerprint"`
	Text               string    `json:"text"`
	ModelUsed          string    `json:"model_used"`
	CreatedAt          time.Time `json:"created_at"`
}

// Fingerprint derives a stable identifier for the article. Providers do not
// always ship a usable ID, so the canonical URL is preferred and a hash of
// source, title, and publish time is the fallback for records without one.
func (a Article) Fingerprint() string {
	key := a.URL
	if key == "" {
		key = a.SourceName + "|" + a.Title + "|" + a.PublishedAt.UTC().Format(time.RFC3339)
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Body returns the best available text for the article: full content when
// present, otherwise the description. The result is cleaned for prompting.
func (a Article) Body() string {
	text := a.Content
	if text == "" {
		text = a.Description
	}
	return CleanText(text)
}

var (
	htmlTagRE    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML tags and collapses runs of whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagRE.ReplaceAllString(text, "")
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FormatForDisplay renders the "Title / Summary" block written to the
// summaries output file.
func (s Summary) FormatForDisplay(articleTitle string) string {
	if articleTitle == "" {
		return "Summary: " + s.Text
	}
	return "Title: " + articleTitle + "\nSummary: " + s.Text
}
