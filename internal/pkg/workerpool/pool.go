package workerpool

import (
	"context"
	"sync"
)

type Task func(ctx context.Context) error

// Pool runs a fixed slice of tasks with bounded concurrency and reports each
// task's outcome at its input index. Used for bulk operations whose items
// succeed or fail independently.
type Pool struct {
	workers int
}

func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

func (p *Pool) Run(ctx context.Context, tasks []Task) []error {
	results := make([]error, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type item struct {
		idx  int
		task Task
	}
	work := make(chan item)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range work {
				if err := ctx.Err(); err != nil {
					results[it.idx] = err
					continue
				}
				results[it.idx] = it.task(ctx)
			}
		}()
	}

	for i, t := range tasks {
		work <- item{idx: i, task: t}
	}
	close(work)
	wg.Wait()

	return results
}
