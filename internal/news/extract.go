package news

import (
	"context"
	"fmt"
	"net/http"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/hoanghai1803/newsbrief/internal/models"
	"github.com/hoanghai1803/newsbrief/internal/ratelimit"
)

// extractService keys the rate limiter for article-page fetches.
const extractService = "extract"

// Extractor pulls the full readable text of an article page. Headline
// providers often truncate content to a couple hundred characters, which
// makes for weak summarization prompts.
type Extractor struct {
	timeout time.Duration
	limiter *ratelimit.Limiter
}

// NewExtractor builds an Extractor with the given per-fetch timeout.
func NewExtractor(timeout time.Duration, limiter *ratelimit.Limiter) *Extractor {
	return &Extractor{timeout: timeout, limiter: limiter}
}

// browserHeaders sets browser-like request headers so sites that check
// Accept or User-Agent don't reject the request outright.
func browserHeaders(r *http.Request) {
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Newsbrief/1.0)")
}

// FullText fetches the page at articleURL and returns its main readable
// text content, cleaned for prompting.
func (e *Extractor) FullText(ctx context.Context, articleURL string) (string, error) {
	if err := e.limiter.Acquire(ctx, extractService); err != nil {
		return "", err
	}

	article, err := readability.FromURL(articleURL, e.timeout, browserHeaders)
	if err != nil {
		return "", fmt.Errorf("extracting %q: %w", articleURL, err)
	}
	return models.CleanText(article.TextContent), nil
}
