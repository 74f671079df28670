package engine

import (
	"context"
	"sync"
)

// DefaultParallelism bounds concurrent remote calls per fan-out.
const DefaultParallelism = 10

// Process runs fn over inputs with at most maxConcurrency invocations in
// flight, and returns one result per input in input order regardless of
// completion order. A failure inside one invocation never prevents the
// others from completing: fn communicates failure through its result
// value, not by aborting the batch.
//
// If ctx is cancelled, invocations that have not yet started are skipped
// (they have had no side effects); in-flight ones run to completion so no
// input is left half-applied. Skipped inputs carry the zero result.
func Process[T, R any](ctx context.Context, maxConcurrency int, inputs []T, fn func(context.Context, T) R) []R {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultParallelism
	}

	results := make([]R, len(inputs))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			results[i] = fn(ctx, in)
		}(i, in)
	}

	wg.Wait()
	return results
}
