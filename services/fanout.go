package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultFanOutLimit = 16

// fanOut runs fn for every index in [0, n) with at most limit calls in flight.
// Results are written by index inside fn. The first error cancels ctx for the rest and is
// returned; callers with per-item isolation swallow errors inside fn instead.
func fanOut(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultFanOutLimit
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
