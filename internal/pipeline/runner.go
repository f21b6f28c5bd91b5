// Package pipeline coordinates a run of the news pipeline: fetch headlines,
// filter them against the configured themes, fan summarization out under the
// selected concurrency strategy, and hand the results to the persistence
// collaborators.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hoanghai1803/newsbrief/internal/filter"
	"github.com/hoanghai1803/newsbrief/internal/models"
)

// Bodies shorter than this are worth re-fetching through the extractor;
// headline providers truncate content to roughly 200 characters.
const minBodyChars = 280

// errNotAttempted marks articles whose summarization was never launched
// because the run was cancelled first.
var errNotAttempted = errors.New("summarization not attempted: run cancelled")

// Source pulls headline articles for a run.
type Source interface {
	FetchHeadlines(ctx context.Context, country, category string) ([]models.Article, error)
}

// Summarizer generates a summary for one article.
type Summarizer interface {
	Summarize(ctx context.Context, article models.Article) (models.Summary, error)
}

// Extractor fetches the full readable text behind an article URL.
type Extractor interface {
	FullText(ctx context.Context, articleURL string) (string, error)
}

// ArticleStore persists articles keyed by fingerprint, idempotently.
type ArticleStore interface {
	UpsertArticle(ctx context.Context, article *models.Article) (int64, error)
}

// SummaryStore persists summaries keyed by article fingerprint and engine,
// idempotently.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, summary *models.Summary) (int64, error)
}

// OutputSink appends formatted summary blocks for a run's successful pairs.
type OutputSink interface {
	AppendLines(lines []string) error
}

// Config selects the inputs and concurrency behavior for runs.
type Config struct {
	Country     string
	Category    string
	Themes      []string
	Strategy    Strategy
	Concurrency int
}

// Deps wires the runner's collaborators. Extractor, Articles, Summaries,
// and Sink are optional; a nil collaborator disables that step.
type Deps struct {
	Source     Source
	Summarizer Summarizer
	Extractor  Extractor
	Articles   ArticleStore
	Summaries  SummaryStore
	Sink       OutputSink
}

// Runner drives the fetch → filter → summarize → persist pipeline.
type Runner struct {
	cfg  Config
	deps Deps
}

// NewRunner constructs a Runner for the given configuration.
func NewRunner(cfg Config, deps Deps) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategySequential
	}
	return &Runner{cfg: cfg, deps: deps}
}

// Run executes one full pipeline pass. Per-article summarization failures
// are collected in the result; a headline fetch failure aborts the run and
// is returned to the caller.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	articles, err := r.deps.Source.FetchHeadlines(ctx, r.cfg.Country, r.cfg.Category)
	if err != nil {
		return nil, err
	}
	articles = dedupe(articles)
	slog.Info("pipeline state", "state", StateFetched, "articles", len(articles))

	filtered := filter.Apply(articles, r.cfg.Themes)
	slog.Info("pipeline state", "state", StateFiltered,
		"matched", len(filtered), "themes", r.cfg.Themes)

	r.storeArticles(ctx, filtered)

	slog.Info("pipeline state", "state", StateSummarizing,
		"strategy", r.cfg.Strategy, "concurrency", r.cfg.Concurrency)
	outcomes := newDispatcher(r.cfg.Strategy, r.cfg.Concurrency).
		dispatch(ctx, filtered, r.summarizeOne)

	result := collectResult(filtered, outcomes)
	r.persist(ctx, result)

	slog.Info("pipeline state", "state", StateCompleted,
		"summaries", len(result.Pairs), "failed", len(result.Failed))
	return result, nil
}

// RunHandle tracks a run launched in the background.
type RunHandle struct {
	done   chan struct{}
	result *RunResult
	err    error
}

// Start launches Run on its own goroutine and returns a handle the caller
// can poll or block on.
func (r *Runner) Start(ctx context.Context) *RunHandle {
	h := &RunHandle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.result, h.err = r.Run(ctx)
	}()
	return h
}

// Done reports completion without blocking.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run finishes and returns its result.
func (h *RunHandle) Wait() (*RunResult, error) {
	<-h.done
	return h.result, h.err
}

// summarizeOne is the per-article task handed to the dispatcher. Each
// invocation owns its article exclusively until the outcome is handed back.
func (r *Runner) summarizeOne(ctx context.Context, article models.Article) outcome {
	if r.deps.Extractor != nil && article.URL != "" && len(article.Body()) < minBodyChars {
		text, err := r.deps.Extractor.FullText(ctx, article.URL)
		switch {
		case err != nil:
			slog.Warn("full-text extraction failed, using provider text",
				"url", article.URL, "error", err)
		case text != "":
			article.Content = text
		}
	}

	summary, err := r.deps.Summarizer.Summarize(ctx, article)
	if err != nil {
		return outcome{article: article, err: err}
	}
	return outcome{article: article, summary: summary}
}

// dedupe drops repeated fingerprints, keeping the first occurrence in fetch
// order, so no article is ever summarized twice in a run.
func dedupe(articles []models.Article) []models.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		fp := article.Fingerprint()
		if seen[fp] {
			slog.Debug("dropping duplicate article", "fingerprint", fp, "title", article.Title)
			continue
		}
		seen[fp] = true
		out = append(out, article)
	}
	return out
}

// collectResult folds the dispatcher's outcomes into a RunResult. Filtered
// articles that never produced an outcome (the run was cancelled before
// their task launched) are recorded as failures so the accounting stays
// complete.
func collectResult(filtered []models.Article, outcomes []outcome) *RunResult {
	result := &RunResult{}
	done := make(map[string]bool, len(outcomes))

	for _, out := range outcomes {
		done[out.article.Fingerprint()] = true
		if out.err != nil {
			slog.Warn("summarization failed", "title", out.article.Title, "error", out.err)
			result.Failed = append(result.Failed, Failure{Article: out.article, Err: out.err})
			continue
		}
		result.Pairs = append(result.Pairs, Pair{Article: out.article, Summary: out.summary})
	}

	for _, article := range filtered {
		if !done[article.Fingerprint()] {
			result.Failed = append(result.Failed, Failure{Article: article, Err: errNotAttempted})
		}
	}
	return result
}

// storeArticles upserts the filtered articles. Store failures are logged
// and do not abort the run.
func (r *Runner) storeArticles(ctx context.Context, articles []models.Article) {
	if r.deps.Articles == nil {
		return
	}
	for i := range articles {
		if _, err := r.deps.Articles.UpsertArticle(ctx, &articles[i]); err != nil {
			slog.Error("persisting article", "title", articles[i].Title, "error", err)
		}
	}
}

// persist writes the run's summaries to the summary store and the output
// sink. Persistence failures are logged and do not abort the run.
func (r *Runner) persist(ctx context.Context, result *RunResult) {
	lines := make([]string, 0, len(result.Pairs))
	for i := range result.Pairs {
		pair := &result.Pairs[i]
		if r.deps.Summaries != nil {
			if _, err := r.deps.Summaries.UpsertSummary(ctx, &pair.Summary); err != nil {
				slog.Error("persisting summary",
					"fingerprint", pair.Summary.ArticleFingerprint, "error", err)
			}
		}
		lines = append(lines, pair.Summary.FormatForDisplay(pair.Article.Title))
	}

	if r.deps.Sink == nil || len(lines) == 0 {
		return
	}
	if err := r.deps.Sink.AppendLines(lines); err != nil {
		slog.Error("writing output file", "error", err)
	}
}
