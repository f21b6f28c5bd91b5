package pipeline

import (
	"context"
	"sync"

	"github.com/hoanghai1803/newsbrief/internal/models"
)

// workerPool runs summarization tasks on a fixed number of workers. Each
// worker takes one queued task at a time and runs it to completion.
type workerPool struct {
	tasks chan poolTask
	wg    sync.WaitGroup
}

type poolTask struct {
	ctx     context.Context
	article models.Article
	run     task
	results chan<- outcome
}

// newWorkerPool starts the given number of workers. A non-positive count is
// treated as one.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	p := &workerPool{tasks: make(chan poolTask)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.results <- t.run(t.ctx, t.article)
	}
}

// close stops accepting work and waits for the workers to drain.
func (p *workerPool) close() {
	close(p.tasks)
	p.wg.Wait()
}

// poolHandle tracks a batch submitted to the pool.
type poolHandle struct {
	submitted int
	results   chan outcome
	done      chan struct{}
}

// submit queues one task per article and returns a handle the caller can
// block on. Submission stops early when the context is cancelled; tasks
// already queued or running still complete and report their outcomes.
func (p *workerPool) submit(ctx context.Context, articles []models.Article, run task) *poolHandle {
	h := &poolHandle{
		results: make(chan outcome, len(articles)),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		for _, article := range articles {
			select {
			case p.tasks <- poolTask{ctx: ctx, article: article, run: run, results: h.results}:
				h.submitted++
			case <-ctx.Done():
				return
			}
		}
	}()

	return h
}

// wait blocks until every submitted task has reported its outcome.
func (h *poolHandle) wait() []outcome {
	<-h.done
	outcomes := make([]outcome, 0, h.submitted)
	for i := 0; i < h.submitted; i++ {
		outcomes = append(outcomes, <-h.results)
	}
	return outcomes
}
