// Package memory provides an in-memory document store used by tests and
// the offline CLI mode. It evaluates the same predicate shape the mongo
// adapter hands to the server: equality, ranges, membership, existence,
// substring and logical OR, including nested-array element matching.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.Record
}

// NewDocumentStore creates an empty in-memory store serving the engine's
// known collections.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string][]domain.Record)}
}

// Seed replaces a collection's records.
func (s *DocumentStore) Seed(collection string, records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = records
}

// Find runs a predicate against one collection.
func (s *DocumentStore) Find(_ context.Context, collection string, pred domain.Predicate, opts driven.FindOptions) ([]domain.Record, error) {
	if !domain.KnownCollection(collection) {
		return nil, domain.ErrUnknownCollection
	}

	// Identifier equality against a malformed id cannot be coerced to a
	// key, exactly like the real store's id type.
	if err := checkIdentifiers(pred); err != nil {
		return nil, err
	}

	s.mu.RLock()
	source := s.collections[collection]
	s.mu.RUnlock()

	matched := make([]domain.Record, 0, len(source))
	for _, r := range source {
		if matchPredicate(r, pred) {
			matched = append(matched, r)
		}
	}

	if opts.Sort != nil {
		sortRecords(matched, *opts.Sort)
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	if len(opts.Projection) > 0 {
		matched = project(matched, opts.Projection)
	}
	return matched, nil
}

// Close releases resources.
func (s *DocumentStore) Close() error {
	return nil
}

func checkIdentifiers(pred domain.Predicate) error {
	for field, value := range pred {
		if field != "_id" {
			continue
		}
		if s, ok := value.(string); ok {
			if _, valid := domain.CanonicalID(s); !valid {
				return domain.ErrTypeMismatch
			}
		}
	}
	return nil
}

// matchPredicate evaluates one record against a predicate tree; all
// top-level clauses must hold.
func matchPredicate(r domain.Record, pred domain.Predicate) bool {
	for field, condition := range pred {
		switch field {
		case "$or":
			if !matchAny(r, condition) {
				return false
			}
		case "$and":
			if !matchAll(r, condition) {
				return false
			}
		default:
			if !matchField(r[field], condition) {
				return false
			}
		}
	}
	return true
}

func matchAny(r domain.Record, condition any) bool {
	arms, ok := condition.([]any)
	if !ok {
		return false
	}
	for _, arm := range arms {
		if m, ok := arm.(map[string]any); ok && matchPredicate(r, domain.Predicate(m)) {
			return true
		}
	}
	return false
}

func matchAll(r domain.Record, condition any) bool {
	arms, ok := condition.([]any)
	if !ok {
		return false
	}
	for _, arm := range arms {
		m, ok := arm.(map[string]any)
		if !ok || !matchPredicate(r, domain.Predicate(m)) {
			return false
		}
	}
	return true
}

// matchField evaluates one field condition: a bare scalar means equality,
// a map holds operators.
func matchField(have any, condition any) bool {
	ops, isOps := condition.(map[string]any)
	if !isOps {
		return equalValues(have, condition)
	}
	for op, want := range ops {
		if !matchOperator(have, op, want) {
			return false
		}
	}
	return true
}

func matchOperator(have any, op string, want any) bool {
	switch op {
	case "$eq":
		return equalValues(have, want)
	case "$ne":
		return !equalValues(have, want)
	case "$exists":
		wantExists, _ := want.(bool)
		return (have != nil) == wantExists
	case "$in":
		members, _ := want.([]any)
		for _, member := range members {
			if equalValues(have, member) {
				return true
			}
		}
		return false
	case "$gt", "$gte", "$lt", "$lte":
		cmp, ok := compareValues(have, want)
		if !ok {
			return false
		}
		switch op {
		case "$gt":
			return cmp > 0
		case "$gte":
			return cmp >= 0
		case "$lt":
			return cmp < 0
		default:
			return cmp <= 0
		}
	case "$regex":
		pattern, _ := want.(string)
		s, _ := have.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(pattern))
	case "$elemMatch":
		cond, _ := want.(map[string]any)
		elems, _ := have.([]any)
		for _, elem := range elems {
			if m, ok := elem.(map[string]any); ok && matchPredicate(domain.Record(m), domain.Predicate(cond)) {
				return true
			}
		}
		return false
	}
	return false
}

// equalValues compares scalars loosely: numbers numerically, strings
// case-sensitively, and array fields by membership.
func equalValues(have, want any) bool {
	if elems, ok := have.([]any); ok {
		for _, elem := range elems {
			if equalValues(elem, want) {
				return true
			}
		}
		return false
	}
	if cmp, ok := compareValues(have, want); ok {
		return cmp == 0
	}
	return have == want
}

// compareValues orders two values when they are both numeric, both
// date-like or both strings.
func compareValues(have, want any) (int, bool) {
	if hf, ok := numeric(have); ok {
		if wf, ok := numeric(want); ok {
			switch {
			case hf < wf:
				return -1, true
			case hf > wf:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if ht, ok := dateValue(have); ok {
		if wt, ok := dateValue(want); ok {
			switch {
			case ht.Before(wt):
				return -1, true
			case ht.After(wt):
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if hs, ok := have.(string); ok {
		if ws, ok := want.(string); ok {
			return strings.Compare(hs, ws), true
		}
	}
	return 0, false
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func dateValue(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func sortRecords(records []domain.Record, spec domain.SortSpec) {
	sort.SliceStable(records, func(i, j int) bool {
		cmp, ok := compareValues(records[i][spec.Field], records[j][spec.Field])
		if !ok {
			// Missing or incomparable values sort last.
			_, iok := records[i][spec.Field]
			_, jok := records[j][spec.Field]
			return iok && !jok
		}
		if spec.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func project(records []domain.Record, fields []string) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		projected := domain.Record{"_id": r["_id"]}
		for _, f := range fields {
			if v, ok := r[f]; ok {
				projected[f] = v
			}
		}
		out[i] = projected
	}
	return out
}
