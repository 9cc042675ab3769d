package driving

import (
	"context"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

// QueryService answers natural-language questions against the document
// store. Both operations are effectively pure given current store state and
// never return a Go error: internal failures fold into the result's Err
// field with a user-facing fallback response and empty profiles.
type QueryService interface {
	// ProcessUserQuery answers a free-text question for an end user.
	// userID is optional and scopes user-bound predicates.
	ProcessUserQuery(ctx context.Context, text, userID string) domain.QueryResult

	// ProcessProducerQuery answers a question asked by a listed business
	// about itself, enabling the competitive analytics path.
	ProcessProducerQuery(ctx context.Context, text, producerID string) domain.QueryResult
}
