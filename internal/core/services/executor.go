package services

import (
	"context"
	"errors"
	"sync"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Executor runs a query plan's sub-queries against the document store.
// Specs have no data dependency on each other and run concurrently; a
// single spec's failure never aborts the others.
type Executor struct {
	store driven.DocumentStore
}

// NewExecutor creates an executor over a document store.
func NewExecutor(store driven.DocumentStore) *Executor {
	return &Executor{store: store}
}

// Execute sanitizes and runs every spec of the plan and joins the results.
// It always returns a (possibly partial) result set, never an error: an
// unknown collection yields an empty slice plus a warning, and a per-spec
// type mismatch gets one relaxed retry before degrading to empty.
func (e *Executor) Execute(ctx context.Context, plan *domain.QueryPlan) *domain.ResultSet {
	rs := domain.NewResultSet()
	if plan == nil || len(plan.Specs) == 0 {
		return rs
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, spec := range plan.Specs {
		wg.Add(1)
		go func(spec domain.QuerySpec) {
			defer wg.Done()
			records := e.runSpec(ctx, spec)
			mu.Lock()
			defer mu.Unlock()
			// Later specs against the same collection extend the slice
			// rather than replacing earlier results.
			rs.Collections[spec.Collection] = append(rs.Collections[spec.Collection], records...)
			rs.Total += len(records)
		}(spec)
	}
	wg.Wait()
	return rs
}

// runSpec executes one sub-query, degrading to an empty slice on failure.
func (e *Executor) runSpec(ctx context.Context, spec domain.QuerySpec) []domain.Record {
	if !domain.KnownCollection(spec.Collection) {
		logger.Warn("executor: dropping spec for unknown collection %q", spec.Collection)
		return []domain.Record{}
	}

	pred := SanitizePredicate(spec.Predicate, spec.Collection)
	opts := driven.FindOptions{
		Limit:      specLimit(spec),
		Sort:       spec.Sort,
		Projection: spec.Projection,
	}

	records, err := e.store.Find(ctx, spec.Collection, pred, opts)
	if err == nil {
		return records
	}
	if errors.Is(err, domain.ErrUnknownCollection) {
		logger.Warn("executor: store does not serve collection %q", spec.Collection)
		return []domain.Record{}
	}
	if errors.Is(err, domain.ErrTypeMismatch) {
		return e.retryRelaxed(ctx, spec, opts, err)
	}
	logger.Warn("executor: %s query failed: %v", spec.Collection, err)
	return []domain.Record{}
}

// retryRelaxed re-runs a spec whose predicate values could not be coerced,
// substituting a minimal field-exists filter at the same limit.
func (e *Executor) retryRelaxed(ctx context.Context, spec domain.QuerySpec, opts driven.FindOptions, cause error) []domain.Record {
	relaxed := relaxedPredicate(spec.Collection)
	logger.Warn("executor: type mismatch on %s (%v), retrying with relaxed predicate %v",
		spec.Collection, cause, relaxed)

	records, err := e.store.Find(ctx, spec.Collection, relaxed, opts)
	if err != nil {
		logger.Warn("executor: relaxed retry on %s failed: %v", spec.Collection, err)
		return []domain.Record{}
	}
	return records
}

// relaxedPredicate matches any record of the collection that carries its
// primary display field.
func relaxedPredicate(collection string) domain.Predicate {
	field := "_id"
	if v, ok := domain.VerticalFor(collection); ok && len(v.NameFields) > 0 {
		field = v.NameFields[0]
	}
	return domain.Predicate{field: map[string]any{"$exists": true}}
}

func specLimit(spec domain.QuerySpec) int {
	if spec.Limit > 0 {
		return spec.Limit
	}
	return domain.DefaultSpecLimit
}
