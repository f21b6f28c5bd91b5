package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestAcquire_SpacesConcurrentCallers(t *testing.T) {
	const (
		interval = 20 * time.Millisecond
		callers  = 5
	)

	limiter := New(interval)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(ctx, "newsapi"); err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		// Allow a small tolerance for timer wakeup jitter.
		if gap < interval-2*time.Millisecond {
			t.Errorf("calls %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestAcquire_IndependentServices(t *testing.T) {
	limiter := New(time.Hour)
	ctx := context.Background()

	// The first call per service never waits, so two distinct services
	// acquired back to back must both return promptly.
	start := time.Now()
	if err := limiter.Acquire(ctx, "newsapi"); err != nil {
		t.Fatalf("Acquire(newsapi) error: %v", err)
	}
	if err := limiter.Acquire(ctx, "openrouter"); err != nil {
		t.Fatalf("Acquire(openrouter) error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("independent services waited %v for each other", elapsed)
	}
}

func TestAcquire_ContextCancellation(t *testing.T) {
	limiter := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := limiter.Acquire(ctx, "slow"); err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(ctx, "slow")
	}()

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("Acquire() returned nil after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire() did not return after cancellation")
	}
}

func TestAcquire_DisabledInterval(t *testing.T) {
	limiter := New(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Acquire(ctx, "any"); err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("disabled limiter waited %v", elapsed)
	}
}
