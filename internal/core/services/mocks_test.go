package services

import (
	"context"
	"sync"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

// mockGenerator implements driven.Generator with a pinned reply.
type mockGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	systems []string
	users   []string

	// replyFor overrides reply per system prompt when set.
	replyFor func(system, user string) (string, error)
}

func (m *mockGenerator) Generate(_ context.Context, system, user string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.systems = append(m.systems, system)
	m.users = append(m.users, user)
	if m.replyFor != nil {
		return m.replyFor(system, user)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) ModelName() string { return "mock" }
func (m *mockGenerator) Close() error      { return nil }

// mockQueryLog implements driven.QueryLog, signalling each append.
type mockQueryLog struct {
	mu      sync.Mutex
	entries []domain.QueryLogEntry
	err     error
	done    chan struct{}
}

func newMockQueryLog() *mockQueryLog {
	return &mockQueryLog{done: make(chan struct{}, 16)}
}

func (m *mockQueryLog) Append(_ context.Context, entry domain.QueryLogEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *mockQueryLog) Recent(_ context.Context, limit int) ([]domain.QueryLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *mockQueryLog) Close() error { return nil }

// mockStore implements driven.DocumentStore with scripted responses.
type mockStore struct {
	mu      sync.Mutex
	records map[string][]domain.Record
	errs    map[string]error
	calls   []string

	// failOnce returns the error only for the first call per collection.
	failOnce map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{
		records:  make(map[string][]domain.Record),
		errs:     make(map[string]error),
		failOnce: make(map[string]error),
	}
}

func (m *mockStore) Find(_ context.Context, collection string, _ domain.Predicate, _ driven.FindOptions) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, collection)
	if err, ok := m.failOnce[collection]; ok {
		delete(m.failOnce, collection)
		return nil, err
	}
	if err, ok := m.errs[collection]; ok {
		return nil, err
	}
	return m.records[collection], nil
}

func (m *mockStore) Close() error { return nil }
