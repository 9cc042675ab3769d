package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestPlanner_NilGeneratorProducerFallback(t *testing.T) {
	planner := NewPlanner(nil)
	planner.now = fixedNow
	producerID := "507f1f77bcf86cd799439011"

	plan := planner.BuildPlan(context.Background(), "comment je me situe ?", domain.QueryAnalysis{
		Intent: domain.IntentProducerAnalytics,
	}, "", producerID)

	require.Len(t, plan.Specs, 4)

	self := plan.Specs[0]
	assert.Equal(t, domain.CollectionRestaurants, self.Collection)
	assert.Equal(t, producerID, self.Predicate["_id"])
	assert.Equal(t, 1, self.Limit)

	competitors := plan.Specs[1]
	assert.Equal(t, map[string]any{"$ne": producerID}, competitors.Predicate["_id"])
	assert.Equal(t, map[string]any{"$exists": true}, competitors.Predicate["categorie"])
	require.NotNil(t, competitors.Sort)
	assert.True(t, competitors.Sort.Desc)

	ownEvents := plan.Specs[2]
	assert.Equal(t, domain.CollectionEvents, ownEvents.Collection)
	assert.Equal(t, producerID, ownEvents.Predicate["producerId"])

	upcoming := plan.Specs[3]
	bound, ok := upcoming.Predicate["date"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, fixedNow(), bound["$gte"])

	require.Len(t, plan.PostOps, 2)
	assert.Equal(t, domain.PostOpMerge, plan.PostOps[0].Kind)
	assert.Equal(t, domain.PostOpAnalyze, plan.PostOps[1].Kind)
}

func TestPlanner_ProducerFallbackUsesCategoryEntity(t *testing.T) {
	planner := NewPlanner(nil)
	planner.now = fixedNow

	plan := planner.BuildPlan(context.Background(), "où en suis-je ?", domain.QueryAnalysis{
		Intent:   domain.IntentProducerAnalytics,
		Entities: map[string]any{"category": "Italien"},
	}, "", "507f1f77bcf86cd799439011")

	assert.Equal(t, "Italien", plan.Specs[1].Predicate["categorie"])
}

func TestPlanner_NilGeneratorDiscoveryFallback(t *testing.T) {
	planner := NewPlanner(nil)
	planner.now = fixedNow

	plan := planner.BuildPlan(context.Background(), "quoi faire ce weekend ?", domain.QueryAnalysis{
		Intent: domain.IntentGeneralSearch,
	}, "", "")

	require.Len(t, plan.Specs, 3)
	covered := make(map[string]bool)
	for _, spec := range plan.Specs {
		covered[spec.Collection] = true
		assert.Equal(t, 10, spec.Limit)
	}
	assert.True(t, covered[domain.CollectionRestaurants])
	assert.True(t, covered[domain.CollectionEvents])
	assert.True(t, covered[domain.CollectionLeisure])
	assert.Empty(t, plan.PostOps)
}

func TestPlanner_ParsesGeneratedPlan(t *testing.T) {
	gen := &mockGenerator{reply: "```json\n" + `{
		"description": "italian places",
		"specs": [
			{"collection": "restaurants", "predicate": {"categorie": "Italien"}, "limit": 5,
			 "sort": {"field": "note", "direction": "desc"}},
			{"collection": "starships", "predicate": {}}
		],
		"postOps": [
			{"kind": "score", "params": {"collection": "restaurants", "term": "pizza"}},
			{"kind": "teleport", "params": {}}
		]
	}` + "\n```"}

	plan := NewPlanner(gen).BuildPlan(context.Background(), "pizza italienne", domain.QueryAnalysis{
		Intent: domain.IntentRestaurantSearch,
	}, "", "")

	assert.Equal(t, "italian places", plan.Description)
	require.Len(t, plan.Specs, 1, "unknown collections are dropped")
	assert.Equal(t, domain.CollectionRestaurants, plan.Specs[0].Collection)
	require.NotNil(t, plan.Specs[0].Sort)
	assert.Equal(t, "note", plan.Specs[0].Sort.Field)
	assert.True(t, plan.Specs[0].Sort.Desc)

	require.Len(t, plan.PostOps, 1, "unknown post-op kinds are dropped")
	assert.Equal(t, domain.PostOpScore, plan.PostOps[0].Kind)
	assert.Equal(t, 1, gen.calls)
}

func TestPlanner_MalformedReplyFallsBack(t *testing.T) {
	for name, reply := range map[string]string{
		"not json":     "here is your plan!",
		"no specs":     `{"description": "empty", "specs": []}`,
		"only unknown": `{"specs": [{"collection": "starships", "predicate": {}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			planner := NewPlanner(&mockGenerator{reply: reply})
			planner.now = fixedNow

			plan := planner.BuildPlan(context.Background(), "anything", domain.QueryAnalysis{}, "", "")

			require.NotNil(t, plan)
			assert.Len(t, plan.Specs, 3, "deterministic discovery plan expected")
		})
	}
}

func TestPlanner_GeneratorErrorFallsBack(t *testing.T) {
	planner := NewPlanner(&mockGenerator{err: errors.New("rate limited")})
	planner.now = fixedNow

	plan := planner.BuildPlan(context.Background(), "anything", domain.QueryAnalysis{}, "", "")

	require.NotNil(t, plan)
	assert.Len(t, plan.Specs, 3)
}

func TestPlanner_CorrectsProducerIdentifiers(t *testing.T) {
	// The generated plan carries a placeholder identifier; the producer
	// context must overwrite it while keeping the $ne exclusion shape.
	gen := &mockGenerator{reply: `{
		"description": "self and peers",
		"specs": [
			{"collection": "restaurants", "predicate": {"_id": "PRODUCER_ID"}, "limit": 1},
			{"collection": "restaurants", "predicate": {"_id": {"$ne": "PRODUCER_ID"}, "categorie": "Italien"}, "limit": 20}
		]
	}`}
	producerID := "507F1F77BCF86CD799439011"

	plan := NewPlanner(gen).BuildPlan(context.Background(), "ma position", domain.QueryAnalysis{
		Intent: domain.IntentProducerAnalytics,
	}, "", producerID)

	canonical := "507f1f77bcf86cd799439011"
	require.Len(t, plan.Specs, 2)
	assert.Equal(t, canonical, plan.Specs[0].Predicate["_id"], "identifier canonicalized to lowercase")
	assert.Equal(t, map[string]any{"$ne": canonical}, plan.Specs[1].Predicate["_id"])
	assert.Equal(t, "Italien", plan.Specs[1].Predicate["categorie"])
}

func TestPlanner_RequestMentionsContext(t *testing.T) {
	gen := &mockGenerator{reply: `{"specs": [{"collection": "restaurants", "predicate": {}}]}`}

	NewPlanner(gen).BuildPlan(context.Background(), "un bon italien", domain.QueryAnalysis{
		Intent:   domain.IntentRestaurantSearch,
		Entities: map[string]any{"cuisine": "italien"},
	}, "507f1f77bcf86cd799439099", "")

	require.Len(t, gen.users, 1)
	assert.Contains(t, gen.users[0], "QUERY: un bon italien")
	assert.Contains(t, gen.users[0], "INTENT: restaurant_search")
	assert.Contains(t, gen.users[0], "italien")
	assert.Contains(t, gen.users[0], "507f1f77bcf86cd799439099")
}
