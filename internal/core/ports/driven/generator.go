package driven

import "context"

// GenerateOptions configures one generation call.
type GenerateOptions struct {
	// MaxTokens bounds the reply length. Zero means the adapter's default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// JSONOnly asks the model for a strictly parseable JSON object reply.
	JSONOnly bool
}

// Generator is the generative-model boundary shared by intent analysis,
// plan generation and response synthesis. This is an optional service:
// when nil or failing, every caller degrades to a deterministic fallback —
// that tolerance is a hard contract, not best-effort.
//
// Implementations may include OpenAI-compatible APIs and local inference
// servers.
type Generator interface {
	// Generate sends a system instruction plus user text and returns the
	// raw reply. Callers validate structure themselves and treat any
	// validation failure as equivalent to a call failure.
	Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the underlying model.
	ModelName() string

	// Close releases resources.
	Close() error
}
