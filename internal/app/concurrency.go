package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Parallel runs the queries concurrently and returns their results in
// order. The first failure cancels the others' context.
//
//	counts, err := Parallel(ctx,
//	    func(ctx context.Context) (int, error) { return repo.CountCalls(ctx, managerID) },
//	    func(ctx context.Context) (int, error) { return repo.CountFlaggedCalls(ctx, managerID) },
//	)
func Parallel[T any](ctx context.Context, fns ...func(context.Context) (T, error)) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]T, len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			result, err := fn(ctx)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("concurrent query failed: %w", err)
	}

	return results, nil
}

// Parallel2 runs two differently typed queries concurrently.
func Parallel2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (T1, T2, error) {
	var (
		r1 T1
		r2 T2
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(assign(ctx, fn1, &r1))
	g.Go(assign(ctx, fn2, &r2))

	if err := g.Wait(); err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, fmt.Errorf("concurrent query failed: %w", err)
	}

	return r1, r2, nil
}

// Parallel3 runs three differently typed queries concurrently. Dashboards
// use it to gather counters, lists and daily history in one round.
func Parallel3[T1, T2, T3 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
	fn3 func(context.Context) (T3, error),
) (T1, T2, T3, error) {
	var (
		r1 T1
		r2 T2
		r3 T3
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(assign(ctx, fn1, &r1))
	g.Go(assign(ctx, fn2, &r2))
	g.Go(assign(ctx, fn3, &r3))

	if err := g.Wait(); err != nil {
		var (
			zero1 T1
			zero2 T2
			zero3 T3
		)

		return zero1, zero2, zero3, fmt.Errorf("concurrent query failed: %w", err)
	}

	return r1, r2, r3, nil
}

// assign adapts fn to an errgroup task storing its result in dst.
// dst is written only on success.
func assign[T any](ctx context.Context, fn func(context.Context) (T, error), dst *T) func() error {
	return func() error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}

		*dst = v

		return nil
	}
}
