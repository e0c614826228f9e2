// Package worker runs bounded fan-out jobs for batch work such as chart sync.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one job, kept at the index of its input.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Job processes one input item.
type Job[T, R any] func(ctx context.Context, index int, item T) (R, error)

// RunBatches processes items in consecutive groups of batchSize. Items within
// a group run concurrently; the next group starts when the current one has
// finished. A failed job never aborts its siblings. Canceling ctx stops new
// groups from starting and marks their items with ctx.Err().
func RunBatches[T, R any](ctx context.Context, items []T, batchSize int, job Job[T, R]) []Outcome[R] {
	if batchSize < 1 {
		batchSize = 1
	}
	out := make([]Outcome[R], len(items))

	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				out[i].Err = err
			}
			return out
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				value, err := job(ctx, i, items[i])
				out[i] = Outcome[R]{Value: value, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}

// Fanout runs every job concurrently with at most limit in flight and returns
// outcomes in input order.
func Fanout[T, R any](ctx context.Context, items []T, limit int, job Job[T, R]) []Outcome[R] {
	out := make([]Outcome[R], len(items))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range items {
		g.Go(func() error {
			value, err := job(gctx, i, items[i])
			out[i] = Outcome[R]{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
