// Package asyncx runs independent calls concurrently and collects every
// outcome. The server uses it to check its backing services in parallel.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// Result holds the outcome of one settled call.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call returned no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// AllSettled runs fns concurrently and waits for all of them. It never stops
// early; results are in input order.
func AllSettled[T any](ctx context.Context, fns ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			defer wg.Done()
			v, err := fn(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}

// WithTimeout runs fn under a deadline of d and returns
// context.DeadlineExceeded when fn does not finish in time.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan Result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- Result[T]{Value: v, Err: err}
	}()

	select {
	case r := <-done:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
