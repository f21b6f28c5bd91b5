// Package news fetches headline articles from external providers and
// normalizes them into domain records.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/apiclient"
	"github.com/hoanghai1803/newsbrief/internal/models"
)

// ServiceName keys the rate limiter for the headline provider.
const ServiceName = "newsapi"

const defaultPageSize = 20

// FetchError wraps any failure from the headline provider. A fetch failure
// is fatal to the run, unlike per-article summarization failures.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "news: fetching headlines: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to a NewsAPI-compatible top-headlines endpoint.
type Client struct {
	endpoint string
	apiKey   string
	pageSize int
	api      *apiclient.Client
}

// NewClient builds a headline client. The endpoint is the full top-headlines
// URL; query parameters already present on it are kept unless overridden per
// fetch.
func NewClient(endpoint, apiKey string, api *apiclient.Client) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		pageSize: defaultPageSize,
		api:      api,
	}
}

// providerArticle is one record in the provider's headline response.
type providerArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// headlinesResponse is the provider's top-headlines envelope.
type headlinesResponse struct {
	Status       string            `json:"status"`
	Code         string            `json:"code,omitempty"`
	Message      string            `json:"message,omitempty"`
	TotalResults int               `json:"totalResults"`
	Articles     []providerArticle `json:"articles"`
}

// FetchHeadlines retrieves top headlines for a country and optional category
// and maps each provider record to an Article. Records missing a title or
// any body text are skipped and logged, not failed. A provider reporting
// zero results yields an empty slice, not an error.
func (c *Client) FetchHeadlines(ctx context.Context, country, category string) ([]models.Article, error) {
	reqURL, err := c.buildURL(country, category)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	var resp headlinesResponse
	if err := c.api.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, URL: reqURL}, &resp); err != nil {
		return nil, &FetchError{Err: err}
	}

	if resp.Status != "ok" {
		return nil, &FetchError{Err: &apiclient.MalformedResponseError{
			Service: ServiceName,
			Reason:  fmt.Sprintf("provider status %q (%s): %s", resp.Status, resp.Code, resp.Message),
		}}
	}

	now := time.Now().UTC()
	articles := make([]models.Article, 0, len(resp.Articles))
	for _, record := range resp.Articles {
		if record.Title == "" || (record.Description == "" && record.Content == "") {
			slog.Warn("skipping headline with missing fields",
				"source", record.Source.Name,
				"url", record.URL,
			)
			continue
		}

		published := now
		if t, err := time.Parse(time.RFC3339, record.PublishedAt); err == nil {
			published = t.UTC()
		}

		articles = append(articles, models.Article{
			SourceID:    record.Source.ID,
			SourceName:  record.Source.Name,
			Author:      record.Author,
			Title:       record.Title,
			Description: record.Description,
			Content:     record.Content,
			URL:         record.URL,
			ImageURL:    record.URLToImage,
			PublishedAt: published,
			FetchedAt:   now,
		})
	}

	slog.Info("fetched headlines",
		"country", country,
		"category", category,
		"total", resp.TotalResults,
		"kept", len(articles),
	)
	return articles, nil
}

// buildURL layers the per-fetch parameters onto the configured endpoint.
func (c *Client) buildURL(country, category string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %q: %w", c.endpoint, err)
	}

	query := u.Query()
	if country != "" {
		query.Set("country", country)
	}
	if category != "" {
		query.Set("category", category)
	}
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
