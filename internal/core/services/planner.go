package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Planner converts an intent/entity analysis into an executable query plan.
// The primary path delegates to the generative model with a structured
// output contract; any unavailability, malformed reply or validation
// failure falls back to a deterministic plan. BuildPlan never fails.
type Planner struct {
	generator driven.Generator

	// now is injectable for deterministic fallback plans in tests.
	now func() time.Time
}

// NewPlanner creates a planner. generator may be nil, in which case every
// plan is deterministic.
func NewPlanner(generator driven.Generator) *Planner {
	return &Planner{generator: generator, now: time.Now}
}

// planReply is the structured output contract the model must satisfy.
type planReply struct {
	Description string    `json:"description"`
	Specs       []specDTO `json:"specs"`
	PostOps     []postDTO `json:"postOps"`
}

type specDTO struct {
	Collection string         `json:"collection"`
	Predicate  map[string]any `json:"predicate"`
	Projection []string       `json:"projection"`
	Limit      int            `json:"limit"`
	Sort       *sortDTO       `json:"sort"`
}

type sortDTO struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type postDTO struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params"`
}

// BuildPlan produces the query plan for one request. producerID, when
// present, additionally forces every generated identifier predicate against
// a producer collection to the canonicalized id, guaranteeing a matchable
// self-lookup regardless of what the generator emitted.
func (p *Planner) BuildPlan(ctx context.Context, text string, analysis domain.QueryAnalysis, userID, producerID string) *domain.QueryPlan {
	plan, err := p.generatePlan(ctx, text, analysis, userID, producerID)
	if err != nil {
		logger.Warn("planner: falling back to deterministic plan: %v", err)
		plan = p.fallbackPlan(analysis, producerID)
	}
	if producerID != "" {
		correctProducerIdentifiers(plan, producerID)
	}
	return plan
}

func (p *Planner) generatePlan(ctx context.Context, text string, analysis domain.QueryAnalysis, userID, producerID string) (*domain.QueryPlan, error) {
	if p.generator == nil {
		return nil, domain.ErrGeneratorUnavailable
	}

	user := buildPlanRequest(text, analysis, userID, producerID)
	reply, err := p.generator.Generate(ctx, planSystemPrompt, user, driven.GenerateOptions{
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneratorUnavailable, err)
	}
	return parsePlanReply(reply)
}

// parsePlanReply validates the model output against the structured contract.
// Validation failure is equivalent to a call failure.
func parsePlanReply(reply string) (*domain.QueryPlan, error) {
	var dto planReply
	if err := json.Unmarshal([]byte(stripFences(reply)), &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}

	plan := &domain.QueryPlan{Description: dto.Description}
	for _, spec := range dto.Specs {
		if !domain.KnownCollection(spec.Collection) {
			logger.Warn("planner: dropping spec for unknown collection %q", spec.Collection)
			continue
		}
		converted := domain.QuerySpec{
			Collection: spec.Collection,
			Predicate:  domain.Predicate(spec.Predicate),
			Projection: spec.Projection,
			Limit:      spec.Limit,
		}
		if spec.Sort != nil && spec.Sort.Field != "" {
			converted.Sort = &domain.SortSpec{Field: spec.Sort.Field, Desc: spec.Sort.Direction == "desc"}
		}
		plan.Specs = append(plan.Specs, converted)
	}
	if len(plan.Specs) == 0 {
		return nil, fmt.Errorf("%w: no usable specs", domain.ErrMalformedReply)
	}

	for _, op := range dto.PostOps {
		kind := domain.PostOpKind(op.Kind)
		switch kind {
		case domain.PostOpFilter, domain.PostOpSort, domain.PostOpAggregate,
			domain.PostOpEnrich, domain.PostOpScore, domain.PostOpMerge, domain.PostOpAnalyze:
			plan.PostOps = append(plan.PostOps, domain.PostOp{Kind: kind, Params: op.Params})
		default:
			logger.Warn("planner: dropping unknown post-op %q", op.Kind)
		}
	}
	return plan, nil
}

// stripFences removes a markdown code fence the model may wrap its JSON in.
func stripFences(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	return strings.TrimSpace(reply)
}

// correctProducerIdentifiers forcibly replaces the value of identifier
// predicates on producer collections with the canonicalized producer id.
func correctProducerIdentifiers(plan *domain.QueryPlan, producerID string) {
	id, ok := domain.CanonicalID(producerID)
	if !ok {
		id = producerID
	}
	for i := range plan.Specs {
		spec := &plan.Specs[i]
		if !isProducerCollection(spec.Collection) || spec.Predicate == nil {
			continue
		}
		for _, field := range []string{"_id", "id"} {
			if raw, present := spec.Predicate[field]; present {
				// Membership and negated forms keep their operator shape.
				if m, isMap := raw.(map[string]any); isMap {
					if _, negated := m["$ne"]; negated {
						spec.Predicate[field] = map[string]any{"$ne": id}
						continue
					}
				}
				spec.Predicate[field] = id
			}
		}
	}
}

// fallbackPlan is the deterministic plan selection used whenever the model
// path is unavailable or invalid.
func (p *Planner) fallbackPlan(analysis domain.QueryAnalysis, producerID string) *domain.QueryPlan {
	if producerID != "" {
		return p.producerFallback(analysis, producerID)
	}
	return p.discoveryFallback()
}

// producerFallback assembles the four producer-bound specs plus the merge
// and analyze post-ops.
func (p *Planner) producerFallback(analysis domain.QueryAnalysis, producerID string) *domain.QueryPlan {
	id, ok := domain.CanonicalID(producerID)
	if !ok {
		id = producerID
	}

	competitorPred := domain.Predicate{"_id": map[string]any{"$ne": id}}
	if category := analysis.Entity("category"); category != "" {
		competitorPred["categorie"] = category
	} else {
		competitorPred["categorie"] = map[string]any{"$exists": true}
	}

	return &domain.QueryPlan{
		Description: "producer standing and market context",
		Specs: []domain.QuerySpec{
			{
				Collection: domain.CollectionRestaurants,
				Predicate:  domain.Predicate{"_id": id},
				Limit:      1,
			},
			{
				Collection: domain.CollectionRestaurants,
				Predicate:  competitorPred,
				Limit:      20,
				Sort:       &domain.SortSpec{Field: "note", Desc: true},
			},
			{
				Collection: domain.CollectionEvents,
				Predicate:  domain.Predicate{"producerId": id},
				Limit:      10,
			},
			{
				Collection: domain.CollectionEvents,
				Predicate:  domain.Predicate{"date": map[string]any{"$gte": p.now()}},
				Limit:      10,
				Sort:       &domain.SortSpec{Field: "date", Desc: false},
			},
		},
		PostOps: []domain.PostOp{
			{Kind: domain.PostOpMerge},
			{Kind: domain.PostOpAnalyze},
		},
	}
}

// discoveryFallback covers the core collection types for unbound queries.
func (p *Planner) discoveryFallback() *domain.QueryPlan {
	return &domain.QueryPlan{
		Description: "general discovery",
		Specs: []domain.QuerySpec{
			{
				Collection: domain.CollectionRestaurants,
				Predicate:  domain.Predicate{},
				Limit:      10,
				Sort:       &domain.SortSpec{Field: "note", Desc: true},
			},
			{
				Collection: domain.CollectionEvents,
				Predicate:  domain.Predicate{"date": map[string]any{"$gte": p.now()}},
				Limit:      10,
				Sort:       &domain.SortSpec{Field: "date", Desc: false},
			},
			{
				Collection: domain.CollectionLeisure,
				Predicate:  domain.Predicate{},
				Limit:      10,
				Sort:       &domain.SortSpec{Field: "note", Desc: true},
			},
		},
	}
}

// buildPlanRequest renders the user half of the plan-generation exchange.
func buildPlanRequest(text string, analysis domain.QueryAnalysis, userID, producerID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "QUERY: %s\n", text)
	fmt.Fprintf(&b, "INTENT: %s\n", analysis.Intent)
	if len(analysis.Entities) > 0 {
		entities, _ := json.Marshal(analysis.Entities)
		fmt.Fprintf(&b, "ENTITIES: %s\n", entities)
	}
	if userID != "" {
		fmt.Fprintf(&b, "USER_CONTEXT: user id %s\n", userID)
	}
	if producerID != "" {
		fmt.Fprintf(&b, "PRODUCER_CONTEXT: producer id %s\n", producerID)
	}
	b.WriteString("\nRespond with valid JSON only:")
	return b.String()
}

// planSystemPrompt is the structured-output contract: available
// collections, per-vertical field naming and the required JSON shape.
const planSystemPrompt = `You translate a user's question about local restaurants, events, leisure and wellness venues into a document-store query plan.

AVAILABLE COLLECTIONS AND FIELDS:
- restaurants: nom, description, categorie, note (rating 0-5), nombreAvis (review count), prixMoyen (average price), adresse, menu (array of {section, items: [{nom, description, prix, note}]})
- events: titre, description, categorie, date, lieu, producerId (references a restaurant/venue _id)
- loisirs: nom, description, categorie, note, nombreAvis, prixMoyen, adresse
- bienetre: etablissement, nom, description, categorie, note, nombreAvis, prixMoyen, adresse
- users: name

FIELD NAMING: display names differ per collection (restaurants "nom", events "titre", wellness "etablissement"). Always use the collection's own field names. Identifiers are 24-character hex strings under "_id".

PREDICATES use the store's native operators: field equality, {"$gte"/"$lte"/"$gt"/"$lt"} ranges, {"$in": [...]} membership, {"$ne": ...} exclusion, {"$exists": true}, and {"$or": [...]} across clauses. Dates are ISO strings (YYYY-MM-DD).

REQUIRED JSON SHAPE:
{
  "description": "<one line>",
  "specs": [
    {"collection": "<name>", "predicate": {...}, "limit": <n>, "sort": {"field": "<field>", "direction": "asc|desc"}}
  ],
  "postOps": [
    {"kind": "filter|sort|aggregate|enrich|score|merge|analyze", "params": {...}}
  ]
}

Emit 1-4 specs. Never invent collections. Never leave placeholder tokens such as USER_ID in predicate values. Omit "postOps" unless the question needs ranking ("score" with params {"collection", "term"}), cross-collection merging ("merge") or summary statistics ("analyze").`
