// Package workpool runs ordered work with a fixed number of items in flight.
package workpool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Option configures a Map call.
type Option func(*options)

type options struct {
	onComplete func(completed, total int)
}

// WithOnComplete registers a callback fired once per successful item, in
// completion order. It runs inside the worker before its slot is released.
// Calls are serialized, so the callback needs no locking of its own.
func WithOnComplete(fn func(completed, total int)) Option {
	return func(o *options) {
		o.onComplete = fn
	}
}

// Map applies fn to every item with at most limit calls in flight and
// returns the results in input order.
//
// The first error cancels the context passed to fn, prevents items that have
// not started from running, and is returned once in-flight calls return.
// A limit below 1 is treated as 1. An empty input returns an empty slice
// without calling fn.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, index int, item T) (R, error), opts ...Option) ([]R, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu        sync.Mutex
		completed int
	)

	for i, item := range items {
		// Stop scheduling once a call has failed or the caller gave up.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r

			mu.Lock()
			completed++
			if o.onComplete != nil {
				o.onComplete(completed, len(items))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A parent cancellation can stop the scheduling loop without any call
	// returning an error.
	if completed < len(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
