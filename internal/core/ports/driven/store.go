package driven

import (
	"context"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

// FindOptions configures one store query.
type FindOptions struct {
	// Limit caps the number of returned records. Zero means the adapter's
	// default.
	Limit int

	// Sort orders results by a single field.
	Sort *domain.SortSpec

	// Projection restricts returned fields. Empty means all fields.
	Projection []string
}

// DocumentStore reads records from the shared, externally owned document
// store. Each collection supports field equality, substring match,
// numeric/date range, logical OR, array membership and nested-array element
// matching through the predicate map shape.
//
// The engine never mutates source records; its only write path is the
// QueryLog port.
type DocumentStore interface {
	// Find runs a sanitized predicate against one collection.
	// Returns domain.ErrUnknownCollection for collections the store does
	// not serve and domain.ErrTypeMismatch when a predicate value cannot
	// be coerced to the stored field type.
	Find(ctx context.Context, collection string, pred domain.Predicate, opts FindOptions) ([]domain.Record, error)

	// Close releases resources.
	Close() error
}
