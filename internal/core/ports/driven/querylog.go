package driven

import (
	"context"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

// QueryLog is the durable, append-only record of completed queries. Writes
// are fire-and-forget from the engine's point of view: a failed append is
// logged and dropped, never surfaced to the caller.
type QueryLog interface {
	// Append stores one completed query.
	Append(ctx context.Context, entry domain.QueryLogEntry) error

	// Recent returns the latest entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.QueryLogEntry, error)

	// Close releases resources.
	Close() error
}
