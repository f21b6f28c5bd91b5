package pipeline

import "github.com/hoanghai1803/newsbrief/internal/models"

// Pair couples an article with its generated summary.
type Pair struct {
	Article models.Article
	Summary models.Summary
}

// Failure records an article whose summarization did not produce a summary.
type Failure struct {
	Article models.Article
	Err     error
}

// RunResult is the outcome of a single pipeline run. Every Summary's
// fingerprint references an Article in the same result, and no article
// appears twice. Under the concurrent strategies Pairs reflect completion
// order, not fetch order, so cross-strategy comparisons must treat them as
// sets.
type RunResult struct {
	Pairs  []Pair
	Failed []Failure
}

// State tracks a run's progress through the pipeline. Transitions are
// strictly ordered: fetched, filtered, summarizing, completed.
type State string

const (
	StateFetched     State = "fetched"
	StateFiltered    State = "filtered"
	StateSummarizing State = "summarizing"
	StateCompleted   State = "completed"
)
