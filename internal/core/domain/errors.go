package domain

import "errors"

// Domain errors represent business logic failures, distinct from
// infrastructure errors. The engine checks them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownCollection indicates a query spec names a collection the
	// store does not serve. The executor turns this into an empty result
	// plus a warning, never a request failure.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrTypeMismatch indicates a predicate value could not be coerced to
	// the collection's field type (e.g. a malformed identifier). Triggers
	// the executor's single relaxed retry.
	ErrTypeMismatch = errors.New("predicate type mismatch")

	// ErrGeneratorUnavailable indicates the generative model service is not
	// configured or unreachable. Callers fall back deterministically.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrMalformedReply indicates the generative model returned output that
	// failed schema validation. Treated exactly like a call failure.
	ErrMalformedReply = errors.New("malformed generator reply")

	// ErrEngineDisabled indicates the query engine feature toggle is off.
	ErrEngineDisabled = errors.New("query engine disabled")

	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")
)
