package domain

import "time"

// QueryLogEntry is the durable record of one completed query. It is the
// only entity with a lifecycle beyond a single request: write-once,
// append-only.
type QueryLogEntry struct {
	ID          string
	Query       string
	Intent      Intent
	Entities    map[string]any
	PlanSummary string
	ResultCount int
	DurationMs  int64
	Response    string
	CreatedAt   time.Time
}
