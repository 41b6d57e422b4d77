package domain

import (
	"context"
	"errors"
)

// ErrCandidatesExhausted is returned by FirstSuccess when every candidate failed.
var ErrCandidatesExhausted = errors.New("all candidates failed")

// FirstSuccess tries candidates in order and returns the first successful
// result together with the candidate that produced it and the number of
// attempts made. When every candidate fails, the returned error wraps
// ErrCandidatesExhausted and each individual failure.
func FirstSuccess[C, R any](ctx context.Context, candidates []C, try func(context.Context, C) (R, error)) (R, C, int, error) {
	var (
		zeroR R
		zeroC C
		errs  []error
	)
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return zeroR, zeroC, i, err
		}
		r, err := try(ctx, c)
		if err == nil {
			return r, c, i + 1, nil
		}
		errs = append(errs, err)
	}
	return zeroR, zeroC, len(candidates), errors.Join(append([]error{ErrCandidatesExhausted}, errs...)...)
}
