package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hoanghai1803/newsbrief/internal/models"
	"github.com/hoanghai1803/newsbrief/internal/ratelimit"
)

// rssService keys the rate limiter for feed fetches.
const rssService = "rss"

// RSSSource adapts an RSS/Atom feed into a headline source, for providers
// that publish headlines as feeds rather than a JSON API.
type RSSSource struct {
	feedURL string
	parser  *gofeed.Parser
	limiter *ratelimit.Limiter
}

// NewRSSSource builds a feed-backed source for the given feed URL.
func NewRSSSource(feedURL string, timeout time.Duration, limiter *ratelimit.Limiter) *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &RSSSource{
		feedURL: feedURL,
		parser:  parser,
		limiter: limiter,
	}
}

// FetchHeadlines fetches and parses the feed. The country parameter has no
// meaning for feeds and is ignored; a non-empty category keeps only items
// tagged with it. Items missing a title or any body text are skipped.
func (s *RSSSource) FetchHeadlines(ctx context.Context, country, category string) ([]models.Article, error) {
	if err := s.limiter.Acquire(ctx, rssService); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("parsing feed %q: %w", s.feedURL, err)}
	}

	now := time.Now().UTC()
	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || (item.Description == "" && item.Content == "") {
			slog.Warn("skipping feed item with missing fields", "link", item.Link)
			continue
		}
		if category != "" && !hasCategory(item, category) {
			continue
		}

		published := now
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}

		articles = append(articles, models.Article{
			SourceName:  feed.Title,
			Author:      itemAuthor(item),
			Title:       item.Title,
			Description: models.CleanText(item.Description),
			Content:     models.CleanText(item.Content),
			URL:         item.Link,
			PublishedAt: published,
			FetchedAt:   now,
		})
	}

	slog.Info("fetched feed", "feed", s.feedURL, "items", len(feed.Items), "kept", len(articles))
	return articles, nil
}

func hasCategory(item *gofeed.Item, category string) bool {
	for _, c := range item.Categories {
		if strings.EqualFold(strings.TrimSpace(c), category) {
			return true
		}
	}
	return false
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}
