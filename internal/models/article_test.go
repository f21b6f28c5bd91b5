package models

import (
	"strings"
	"testing"
	"time"
)

func TestFingerprint_PrefersURL(t *testing.T) {
	a := Article{
		SourceName:  "Example News",
		Title:       "A headline",
		URL:         "https://example.com/a",
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b := a
	b.Title = "A different headline"

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("articles sharing a URL should share a fingerprint")
	}

	c := a
	c.URL = "https://example.com/b"
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("articles with different URLs should have different fingerprints")
	}
}

func TestFingerprint_FallbackWithoutURL(t *testing.T) {
	published := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := Article{SourceName: "Example News", Title: "A headline", PublishedAt: published}
	b := Article{SourceName: "Example News", Title: "A headline", PublishedAt: published}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical articles without URLs should share a fingerprint")
	}

	c := b
	c.PublishedAt = published.Add(time.Minute)
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("publish time should contribute to the fallback fingerprint")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Article{SourceName: "s", Title: "t", URL: "https://example.com/x"}
	first := a.Fingerprint()
	for i := 0; i < 3; i++ {
		if got := a.Fingerprint(); got != first {
			t.Fatalf("Fingerprint() not stable: %q then %q", first, got)
		}
	}
	if len(first) != 32 {
		t.Errorf("Fingerprint() length = %d, want 32 hex chars", len(first))
	}
}

func TestBody_PrefersContent(t *testing.T) {
	a := Article{Description: "short description", Content: "full content"}
	if got := a.Body(); got != "full content" {
		t.Errorf("Body() = %q, want %q", got, "full content")
	}

	a.Content = ""
	if got := a.Body(); got != "short description" {
		t.Errorf("Body() = %q, want %q", got, "short description")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"html tags", "<p>hello <b>world</b></p>", "hello world"},
		{"whitespace runs", "hello\n\t  world ", "hello world"},
		{"tags and whitespace", " <div>\n one\n two </div> ", "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatForDisplay(t *testing.T) {
	s := Summary{Text: "Two sentences."}

	got := s.FormatForDisplay("Big News")
	if !strings.HasPrefix(got, "Title: Big News\n") || !strings.Contains(got, "Summary: Two sentences.") {
		t.Errorf("FormatForDisplay() = %q", got)
	}

	if got := s.FormatForDisplay(""); got != "Summary: Two sentences." {
		t.Errorf("FormatForDisplay(\"\") = %q", got)
	}
}
