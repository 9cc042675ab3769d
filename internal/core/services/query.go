package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/core/ports/driving"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.QueryService = (*Engine)(nil)

// Engine is the query engine entry point: a linear pipeline of analyze →
// plan → execute → post-process → synthesize with an asynchronous
// fire-and-forget query-log write. Each request is an independent,
// stateless pipeline; no shared mutable state crosses requests.
type Engine struct {
	settings    domain.Settings
	analyzer    *Analyzer
	planner     *Planner
	executor    *Executor
	pipeline    *Pipeline
	analytics   *Analytics
	synthesizer *Synthesizer
	queryLog    driven.QueryLog
}

// NewEngine wires the engine. generator and queryLog may be nil: generation
// falls back deterministically and logging becomes a no-op.
func NewEngine(settings domain.Settings, store driven.DocumentStore, generator driven.Generator, queryLog driven.QueryLog) *Engine {
	executor := NewExecutor(store)
	return &Engine{
		settings:    settings,
		analyzer:    NewAnalyzer(generator),
		planner:     NewPlanner(generator),
		executor:    executor,
		pipeline:    NewPipeline(NewScorer(settings.Scoring)),
		analytics:   NewAnalytics(executor, settings.Analytics),
		synthesizer: NewSynthesizer(generator, settings.ContextItems),
		queryLog:    queryLog,
	}
}

// ProcessUserQuery answers a free-text question for an end user.
func (e *Engine) ProcessUserQuery(ctx context.Context, text, userID string) domain.QueryResult {
	return e.process(ctx, text, userID, "")
}

// ProcessProducerQuery answers a question a listed business asks about
// itself, enabling the competitive analytics path.
func (e *Engine) ProcessProducerQuery(ctx context.Context, text, producerID string) domain.QueryResult {
	return e.process(ctx, text, "", producerID)
}

func (e *Engine) process(ctx context.Context, text, userID, producerID string) (result domain.QueryResult) {
	start := time.Now()
	result = domain.QueryResult{Query: text, Profiles: []domain.Profile{}}

	// Worst case is an apology with empty profiles; one request never
	// takes the process down.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("engine: panic processing %q: %v", text, r)
			result.Err = fmt.Sprintf("internal failure: %v", r)
			result.Response = ApologyMessage
			result.Profiles = []domain.Profile{}
			result.ExecutionTimeMs = time.Since(start).Milliseconds()
		}
	}()

	if !e.settings.Enabled {
		result.Err = domain.ErrEngineDisabled.Error()
		result.Response = NoResultsMessage
		return result
	}
	if text == "" {
		result.Err = domain.ErrInvalidInput.Error()
		result.Response = NoResultsMessage
		return result
	}

	analysis := e.analyzer.Analyze(ctx, text)
	result.Intent = analysis.Intent
	result.Entities = analysis.Entities

	plan := e.planner.BuildPlan(ctx, text, analysis, userID, producerID)
	logger.Debug("engine: plan %q with %d specs, %d post-ops", plan.Description, len(plan.Specs), len(plan.PostOps))

	raw := e.executor.Execute(ctx, plan)
	processed := e.pipeline.Apply(raw, plan.PostOps, analysis)

	if producerID != "" {
		report, err := e.analytics.CompareProducer(ctx, producerID, nil)
		if err != nil {
			logger.Warn("engine: competitive analytics for %s failed: %v", producerID, err)
		} else {
			processed.Competitive = report
		}
	}

	response, profiles := e.synthesizer.Synthesize(ctx, text, analysis, processed)
	result.Response = response
	result.Profiles = profiles
	result.ResultCount = processed.Total
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	e.logQuery(ctx, result, plan)
	return result
}

// logQuery appends the completed query to the durable log without blocking
// or failing the response path.
func (e *Engine) logQuery(ctx context.Context, result domain.QueryResult, plan *domain.QueryPlan) {
	if e.queryLog == nil {
		return
	}
	entry := domain.QueryLogEntry{
		ID:          uuid.NewString(),
		Query:       result.Query,
		Intent:      result.Intent,
		Entities:    result.Entities,
		PlanSummary: fmt.Sprintf("%s (%d specs, %d post-ops)", plan.Description, len(plan.Specs), len(plan.PostOps)),
		ResultCount: result.ResultCount,
		DurationMs:  result.ExecutionTimeMs,
		Response:    result.Response,
		CreatedAt:   time.Now().UTC(),
	}
	go func() {
		// Detached from the request lifetime; a lost entry is logged and
		// forgotten.
		if err := e.queryLog.Append(context.WithoutCancel(ctx), entry); err != nil {
			logger.Warn("engine: query log append failed: %v", err)
		}
	}()
}
