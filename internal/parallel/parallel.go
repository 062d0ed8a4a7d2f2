// Package parallel is a small fork-join scheduler for data-parallel loops
// over index ranges. Each call blocks until every chunk has finished.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultGrain is the smallest chunk handed to one worker.
const DefaultGrain = 256

// Settings controls how a loop is split across workers.
type Settings struct {
	Workers int // 0 = GOMAXPROCS
	Grain   int // 0 = DefaultGrain
}

func (s Settings) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (s Settings) grain() int {
	if s.Grain > 0 {
		return s.Grain
	}
	return DefaultGrain
}

// For calls fn on disjoint [lo, hi) chunks covering [0, n). Ranges smaller
// than one grain run on the calling goroutine.
func For(ctx context.Context, s Settings, n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	grain := s.grain()
	workers := s.workers()
	if n <= grain || workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += grain {
		hi := min(lo+grain, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// Reduce maps each chunk to a partial result and folds the partials in
// chunk order, so the result does not depend on scheduling.
func Reduce[T any](ctx context.Context, s Settings, n int, zero T, mapFn func(lo, hi int) T, fold func(a, b T) T) (T, error) {
	if n <= 0 {
		return zero, nil
	}
	grain := s.grain()
	chunks := (n + grain - 1) / grain
	partial := make([]T, chunks)

	err := For(ctx, Settings{Workers: s.Workers, Grain: 1}, chunks, func(clo, chi int) {
		for c := clo; c < chi; c++ {
			lo := c * grain
			partial[c] = mapFn(lo, min(lo+grain, n))
		}
	})
	if err != nil {
		return zero, err
	}

	acc := zero
	for _, p := range partial {
		acc = fold(acc, p)
	}
	return acc, nil
}
