// Package workers provides bounded CPU-parallel execution for the
// simulation and optimization hot paths.
//
// Jobs are partitioned by index into disjoint ranges, so workers write to
// non-overlapping regions of pre-allocated result storage and no
// synchronization is needed beyond the final join.
package workers

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool manages a fixed number of worker goroutines for parallel
// index-partitioned work.
type Pool struct {
	numWorkers int
}

// NewPool creates a pool with the specified number of workers.
// Non-positive counts fall back to the suggested simulation parallelism.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = SuggestedParallelism()
	}
	return &Pool{numWorkers: numWorkers}
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.numWorkers
}

// RunRange executes fn over [0,n) partitioned into contiguous disjoint
// chunks, one chunk per worker. fn must only write to state owned by its
// [start,end) range. Blocks until all workers finish.
func (p *Pool) RunRange(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	numActualWorkers := p.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n
	}

	chunk := n / numActualWorkers
	extra := n % numActualWorkers

	var wg sync.WaitGroup
	start := 0
	for w := 0; w < numActualWorkers; w++ {
		size := chunk
		if w < extra {
			size++
		}
		end := start + size

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)

		start = end
	}
	wg.Wait()
}

// RunIndexed executes fn once per index in [0,n), at most numWorkers jobs
// in flight at a time. Use when per-job cost is uneven; for uniform numeric
// loops RunRange is cheaper.
func (p *Pool) RunIndexed(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(p.numWorkers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	// Jobs never return errors; Wait only serves as the join barrier.
	_ = g.Wait()
}
