// Package worker provides a bounded pool for running independent jobs.
package worker

import (
	"context"
	"sync"
)

// Semaphore provides a counting semaphore for controlling concurrency.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a new semaphore with the given number of permits.
func NewSemaphore(count int) *Semaphore {
	if count <= 0 {
		count = 1
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
	}
	for range count {
		s.permits <- struct{}{}
	}
	return s
}

// Acquire takes a permit, blocking until one is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.permits:
		// Both cases can be ready at once; cancellation wins.
		if ctx.Err() != nil {
			s.Release()
			return ctx.Err()
		}
		return nil
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
		// Semaphore is full, this shouldn't happen in normal use
	}
}

// Available returns the number of free permits.
func (s *Semaphore) Available() int {
	return len(s.permits)
}

// Run calls job for every index in [0, n) with at most workers jobs in
// flight, and returns once all started jobs have finished. Jobs are started
// in index order. When ctx is cancelled no further jobs start; skip is
// called, in order, for each index that never ran.
func Run(ctx context.Context, n, workers int, job func(ctx context.Context, idx int), skip func(idx int)) {
	sem := NewSemaphore(min(workers, max(n, 1)))
	var wg sync.WaitGroup

	for i := range n {
		if err := sem.Acquire(ctx); err != nil {
			if skip != nil {
				for j := i; j < n; j++ {
					skip(j)
				}
			}
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release()
			job(ctx, idx)
		}(i)
	}

	wg.Wait()
}
