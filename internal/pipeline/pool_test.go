package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

func TestWorkerPool_RunsEverySubmittedTask(t *testing.T) {
	pool := newWorkerPool(3)
	defer pool.close()

	articles := makeArticles(10)
	handle := pool.submit(context.Background(), articles, func(ctx context.Context, article models.Article) outcome {
		return outcome{article: article, summary: models.Summary{
			ArticleFingerprint: article.Fingerprint(),
			Text:               "done",
		}}
	})

	outcomes := handle.wait()
	if len(outcomes) != len(articles) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(articles))
	}

	seen := make(map[string]bool)
	for _, out := range outcomes {
		seen[out.article.Fingerprint()] = true
	}
	for _, article := range articles {
		if !seen[article.Fingerprint()] {
			t.Errorf("no outcome for %q", article.Title)
		}
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := newWorkerPool(workers)
	defer pool.close()

	var (
		mu      sync.Mutex
		active  int
		highest int
	)

	handle := pool.submit(context.Background(), makeArticles(8), func(ctx context.Context, article models.Article) outcome {
		mu.Lock()
		active++
		if active > highest {
			highest = active
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return outcome{article: article}
	})
	handle.wait()

	if highest > workers {
		t.Errorf("observed %d concurrent tasks, want at most %d", highest, workers)
	}
}

func TestWorkerPool_CancellationStopsSubmission(t *testing.T) {
	pool := newWorkerPool(1)
	defer pool.close()

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	started := 0
	handle := pool.submit(ctx, makeArticles(20), func(ctx context.Context, article models.Article) outcome {
		mu.Lock()
		started++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		return outcome{article: article}
	})

	time.Sleep(30 * time.Millisecond)
	cancel()

	outcomes := handle.wait()
	mu.Lock()
	defer mu.Unlock()
	if started >= 20 {
		t.Error("every task started despite cancellation")
	}
	// Tasks already queued still report outcomes.
	if len(outcomes) != started {
		t.Errorf("got %d outcomes for %d started tasks", len(outcomes), started)
	}
}
