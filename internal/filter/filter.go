// Package filter decides which fetched articles survive the configured
// theme set. Matching is pure: no side effects, no failure modes.
package filter

import (
	"strings"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

// Normalize trims theme terms and drops empty ones.
func Normalize(themes []string) []string {
	out := make([]string, 0, len(themes))
	for _, theme := range themes {
		theme = strings.TrimSpace(theme)
		if theme != "" {
			out = append(out, theme)
		}
	}
	return out
}

// Matches reports whether the article mentions at least one of the themes.
// The match is a case-insensitive substring test over the article's title,
// description, and content. An empty theme set matches every article.
func Matches(article models.Article, themes []string) bool {
	themes = Normalize(themes)
	if len(themes) == 0 {
		return true
	}

	haystack := strings.ToLower(article.Title + " " + article.Description + " " + article.Content)
	for _, theme := range themes {
		if strings.Contains(haystack, strings.ToLower(theme)) {
			return true
		}
	}
	return false
}

// MatchedThemes returns the subset of themes the article mentions, in the
// order the themes were configured.
func MatchedThemes(article models.Article, themes []string) []string {
	haystack := strings.ToLower(article.Title + " " + article.Description + " " + article.Content)

	var matched []string
	for _, theme := range Normalize(themes) {
		if strings.Contains(haystack, strings.ToLower(theme)) {
			matched = append(matched, theme)
		}
	}
	return matched
}

// Apply returns the articles that match the theme set, preserving fetch
// order. Each surviving article is annotated with the themes it matched.
func Apply(articles []models.Article, themes []string) []models.Article {
	themes = Normalize(themes)
	if len(themes) == 0 {
		return articles
	}

	var filtered []models.Article
	for _, article := range articles {
		matched := MatchedThemes(article, themes)
		if len(matched) == 0 {
			continue
		}
		article.Themes = matched
		filtered = append(filtered, article)
	}
	return filtered
}
