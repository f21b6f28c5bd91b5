package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

// Strategy selects how summarization work is dispatched.
type Strategy string

const (
	// StrategySequential summarizes one article at a time, in fetch order.
	StrategySequential Strategy = "sequential"
	// StrategyConcurrent fans out up to the concurrency cap at once.
	StrategyConcurrent Strategy = "concurrent"
	// StrategyBackground hands work to a fixed-size worker pool and waits
	// on its handle.
	StrategyBackground Strategy = "background"
)

// task runs one summarization and reports its outcome.
type task func(ctx context.Context, article models.Article) outcome

// outcome is the result of one summarization task.
type outcome struct {
	article models.Article
	summary models.Summary
	err     error
}

// dispatcher runs one task per article, bounded by the configured
// concurrency, and returns an outcome for every task it launched. The
// strategy affects only timing and ordering, never which outcomes are
// produced for a given input. When the context is cancelled a dispatcher
// stops launching new tasks; in-flight tasks finish and are still reported.
type dispatcher interface {
	dispatch(ctx context.Context, articles []models.Article, run task) []outcome
}

func newDispatcher(strategy Strategy, concurrency int) dispatcher {
	switch strategy {
	case StrategyConcurrent:
		return &concurrentDispatcher{limit: concurrency}
	case StrategyBackground:
		return &poolDispatcher{workers: concurrency}
	default:
		return sequentialDispatcher{}
	}
}

// sequentialDispatcher summarizes articles one at a time, in order.
type sequentialDispatcher struct{}

func (sequentialDispatcher) dispatch(ctx context.Context, articles []models.Article, run task) []outcome {
	outcomes := make([]outcome, 0, len(articles))
	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, run(ctx, article))
	}
	return outcomes
}

// concurrentDispatcher fans out up to limit tasks at once using an errgroup.
type concurrentDispatcher struct {
	limit int
}

func (d *concurrentDispatcher) dispatch(ctx context.Context, articles []models.Article, run task) []outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]outcome, 0, len(articles))
	)

	limit := d.limit
	if limit <= 0 {
		limit = 1
	}

	g := &errgroup.Group{}
	g.SetLimit(limit)

	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out := run(ctx, article)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}

	g.Wait() //nolint:errcheck // tasks report failure via their outcome
	return outcomes
}

// poolDispatcher submits the batch to a fixed-size worker pool and blocks on
// the returned handle.
type poolDispatcher struct {
	workers int
}

func (d *poolDispatcher) dispatch(ctx context.Context, articles []models.Article, run task) []outcome {
	pool := newWorkerPool(d.workers)
	defer pool.close()

	handle := pool.submit(ctx, articles, run)
	return handle.wait()
}
