package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRun_ResultsKeepInputOrder(t *testing.T) {
	boom := errors.New("boom")

	tasks := []Task{
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
		func(context.Context) error { return nil },
	}

	results := New(2).Run(context.Background(), tasks)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0] != nil || results[2] != nil {
		t.Fatalf("expected items 0 and 2 to succeed: %v", results)
	}
	if !errors.Is(results[1], boom) {
		t.Fatalf("expected item 1 to fail with boom, got %v", results[1])
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var inflight, max int64

	tasks := make([]Task, 32)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			cur := atomic.AddInt64(&inflight, 1)
			for {
				old := atomic.LoadInt64(&max)
				if cur <= old || atomic.CompareAndSwapInt64(&max, old, cur) {
					break
				}
			}
			atomic.AddInt64(&inflight, -1)
			return nil
		}
	}

	New(4).Run(context.Background(), tasks)
	if got := atomic.LoadInt64(&max); got > 4 {
		t.Fatalf("observed %d concurrent tasks, want <= 4", got)
	}
}

func TestRun_EmptyTasks(t *testing.T) {
	if got := New(4).Run(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected no results, got %v", got)
	}
}
