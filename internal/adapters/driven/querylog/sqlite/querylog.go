// Package sqlite provides the durable query-log adapter. The log is the
// engine's only write path: append-only, one row per completed query.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

// Ensure QueryLog implements the interface.
var _ driven.QueryLog = (*QueryLog)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS query_log (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	intent       TEXT NOT NULL,
	entities     TEXT NOT NULL DEFAULT '{}',
	plan_summary TEXT NOT NULL DEFAULT '',
	result_count INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	response     TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at DESC);
`

// QueryLog stores query-log entries in SQLite.
type QueryLog struct {
	db *sql.DB
}

// NewQueryLog opens (and if needed creates) the log database. If dataDir
// is empty it defaults to ~/.concierge/data.
func NewQueryLog(dataDir string) (*QueryLog, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".concierge", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "querylog.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &QueryLog{db: db}, nil
}

// Append stores one completed query.
func (l *QueryLog) Append(ctx context.Context, entry domain.QueryLogEntry) error {
	entities, err := json.Marshal(entry.Entities)
	if err != nil {
		entities = []byte("{}")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO query_log (id, query, intent, entities, plan_summary, result_count, duration_ms, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, string(entry.Intent), string(entities),
		entry.PlanSummary, entry.ResultCount, entry.DurationMs, entry.Response,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending query log entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (l *QueryLog) Recent(ctx context.Context, limit int) ([]domain.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, query, intent, entities, plan_summary, result_count, duration_ms, response, created_at
		FROM query_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying log: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueryLogEntry
	for rows.Next() {
		var (
			entry     domain.QueryLogEntry
			intent    string
			entities  string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Query, &intent, &entities,
			&entry.PlanSummary, &entry.ResultCount, &entry.DurationMs, &entry.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning log row: %w", err)
		}
		entry.Intent = domain.Intent(intent)
		if err := json.Unmarshal([]byte(entities), &entry.Entities); err != nil {
			entry.Entities = map[string]any{}
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (l *QueryLog) Close() error {
	return l.db.Close()
}
