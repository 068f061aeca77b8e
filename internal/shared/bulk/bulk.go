// Package bulk applies one operation to many identifiers and collects per-unit failures.
package bulk

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds fan-out when callers pass a non-positive limit.
const DefaultConcurrency = 4

// Failure records why a single unit could not be applied.
type Failure struct {
	ID      string `json:"id"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Result partitions a bulk run into successes and failures, both in input order.
type Result[T any] struct {
	Updated  []T       `json:"updated"`
	Failures []Failure `json:"errors"`
}

// AllFailed reports whether every attempted unit failed.
func (r *Result[T]) AllFailed() bool {
	return r != nil && len(r.Updated) == 0 && len(r.Failures) > 0
}

// Partial reports whether some units succeeded and some failed.
func (r *Result[T]) Partial() bool {
	return r != nil && len(r.Updated) > 0 && len(r.Failures) > 0
}

// FailedIDs lists the identifiers of failed units.
func (r *Result[T]) FailedIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.ID)
	}
	return ids
}

// Normalize trims identifiers, drops blanks, and removes duplicates keeping first occurrence.
func Normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ApplyEach runs fn once per identifier with at most limit calls in flight.
// Units are independent: a failure never stops or rolls back the others.
func ApplyEach[T any](ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) (T, error)) *Result[T] {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	type outcome struct {
		value T
		err   error
	}
	outcomes := make([]outcome, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].err = err
				return nil
			}
			value, err := fn(ctx, id)
			outcomes[i] = outcome{value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result[T]{Updated: make([]T, 0, len(ids)), Failures: []Failure{}}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, Failure{ID: ids[i], Message: o.err.Error(), Err: o.err})
			continue
		}
		result.Updated = append(result.Updated, o.value)
	}
	return result
}
