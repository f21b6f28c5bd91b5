package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/apiclient"
	"github.com/hoanghai1803/newsbrief/internal/models"
	"github.com/hoanghai1803/newsbrief/internal/ratelimit"
)

func newFixtureClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := apiclient.New(ServiceName, 5*time.Second, ratelimit.New(0),
		apiclient.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 2})
	return NewClient(srv.URL+"/engines/test-engine/completions", "test-key", "test-engine",
		Options{MaxTokens: 150, Temperature: 0.5}, api)
}

func testArticle() models.Article {
	return models.Article{
		SourceName:  "Example News",
		Title:       "Tech giants announce merger",
		Content:     "Two large technology firms announced a merger today.",
		URL:         "https://example.com/merger",
		PublishedAt: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
	}
}

func TestSummarize_Success(t *testing.T) {
	var gotReq completionRequest
	var gotAuth string
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"text":"  A concise summary.  "}]}`))
	})

	article := testArticle()
	summary, err := client.Summarize(context.Background(), article)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if summary.Text != "A concise summary." {
		t.Errorf("Text = %q, want trimmed summary", summary.Text)
	}
	if summary.ArticleFingerprint != article.Fingerprint() {
		t.Errorf("ArticleFingerprint = %q, want %q", summary.ArticleFingerprint, article.Fingerprint())
	}
	if summary.ModelUsed != "test-engine" {
		t.Errorf("ModelUsed = %q", summary.ModelUsed)
	}
	if summary.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.MaxTokens != 150 || gotReq.Temperature != 0.5 {
		t.Errorf("request options = %d/%v", gotReq.MaxTokens, gotReq.Temperature)
	}
	if !strings.Contains(gotReq.Prompt, article.Title) {
		t.Errorf("prompt missing title: %q", gotReq.Prompt)
	}
}

func TestSummarize_EmptyCompletion(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"   "}]}`))
	})

	_, err := client.Summarize(context.Background(), testArticle())

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected summarize.Error, got %v", err)
	}
}

func TestSummarize_NoChoices(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Summarize(context.Background(), testArticle())

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected summarize.Error, got %v", err)
	}
	var me *apiclient.MalformedResponseError
	if !errors.As(err, &me) {
		t.Errorf("expected wrapped MalformedResponseError, got %v", err)
	}
}

func TestSummarize_ExhaustedRetries(t *testing.T) {
	client := newFixtureClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Summarize(context.Background(), testArticle())

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected summarize.Error, got %v", err)
	}
	var te *apiclient.TransientError
	if !errors.As(err, &te) {
		t.Errorf("expected wrapped TransientError, got %v", err)
	}
}

func TestBuildPrompt_TruncatesDeterministically(t *testing.T) {
	long := strings.Repeat("word ", 2000) // 10000 chars
	article := models.Article{Title: "Long read", Content: long}

	first := BuildPrompt(article)
	second := BuildPrompt(article)
	if first != second {
		t.Error("BuildPrompt() is not deterministic")
	}

	// Prompt holds the instruction, title, separators, and a bounded body.
	if len([]rune(first)) > maxPromptChars+len("Summarize the following article:\n\n")+len(article.Title)+4 {
		t.Errorf("prompt length %d exceeds budget", len([]rune(first)))
	}

	short := models.Article{Title: "Short", Content: "tiny body"}
	if !strings.HasSuffix(BuildPrompt(short), "tiny body") {
		t.Error("short bodies must pass through untruncated")
	}
}
