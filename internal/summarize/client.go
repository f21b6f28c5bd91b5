// Package summarize turns articles into short AI-generated summaries via an
// OpenRouter-style completions API.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/apiclient"
	"github.com/hoanghai1803/newsbrief/internal/models"
)

// ServiceName keys the rate limiter for the summarization engine.
const ServiceName = "openrouter"

// maxPromptChars bounds the article body included in a prompt. Longer bodies
// are truncated to the first maxPromptChars characters so prompts stay
// reproducible.
const maxPromptChars = 4000

// Error reports a failed summarization for a single article. These are
// recorded per article and never abort a run.
type Error struct {
	ArticleFingerprint string
	Err                error
}

func (e *Error) Error() string {
	return fmt.Sprintf("summarize: article %s: %v", e.ArticleFingerprint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tunes the completion request.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Client talks to an OpenRouter-style completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	engineID string
	opts     Options
	api      *apiclient.Client
}

// NewClient builds a summarization client. The endpoint is the full
// completions URL with the engine already templated in.
func NewClient(endpoint, apiKey, engineID string, opts Options, api *apiclient.Client) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		engineID: engineID,
		opts:     opts,
		api:      api,
	}
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Summarize builds a prompt from the article's title and body and asks the
// engine for a completion. An empty completion counts as a failure rather
// than a silent empty summary.
func (c *Client) Summarize(ctx context.Context, article models.Article) (models.Summary, error) {
	fingerprint := article.Fingerprint()

	body, err := json.Marshal(completionRequest{
		Prompt:      BuildPrompt(article),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return models.Summary{}, &Error{ArticleFingerprint: fingerprint, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("Content-Type", "application/json")

	var resp completionResponse
	err = c.api.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: header,
		Body:   body,
	}, &resp)
	if err != nil {
		return models.Summary{}, &Error{ArticleFingerprint: fingerprint, Err: err}
	}

	if len(resp.Choices) == 0 {
		return models.Summary{}, &Error{
			ArticleFingerprint: fingerprint,
			Err:                &apiclient.MalformedResponseError{Service: ServiceName, Reason: "completion has no choices"},
		}
	}

	text := strings.TrimSpace(resp.Choices[0].Text)
	if text == "" {
		return models.Summary{}, &Error{
			ArticleFingerprint: fingerprint,
			Err:                errors.New("engine returned an empty completion"),
		}
	}

	return models.Summary{
		ArticleFingerprint: fingerprint,
		Text:               text,
		ModelUsed:          c.engineID,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// BuildPrompt concatenates the article's title and body under a fixed
// instruction, truncating the body to the prompt character budget.
func BuildPrompt(article models.Article) string {
	body := article.Body()
	if runes := []rune(body); len(runes) > maxPromptChars {
		body = string(runes[:maxPromptChars])
	}
	return "Summarize the following article:\n\n" + article.Title + "\n\n" + body
}
