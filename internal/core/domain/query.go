package domain

// Intent is the classified purpose of a user query.
type Intent string

// Known intents. The analyzer may only emit one of these; anything else is
// normalized to IntentGeneralSearch.
const (
	IntentRestaurantSearch  Intent = "restaurant_search"
	IntentDishSearch        Intent = "dish_search"
	IntentEventSearch       Intent = "event_search"
	IntentLeisureSearch     Intent = "leisure_search"
	IntentWellnessSearch    Intent = "wellness_search"
	IntentProducerAnalytics Intent = "producer_analytics"
	IntentGeneralSearch     Intent = "general_search"
)

// ValidIntent reports whether s is one of the known intents.
func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentRestaurantSearch, IntentDishSearch, IntentEventSearch,
		IntentLeisureSearch, IntentWellnessSearch, IntentProducerAnalytics,
		IntentGeneralSearch:
		return true
	}
	return false
}

// QueryAnalysis is the transient result of intent/entity extraction for one
// request. Entities are free-form values keyed by entity name (location,
// cuisine, dish, price level, ...).
type QueryAnalysis struct {
	Intent   Intent
	Entities map[string]any
}

// Entity returns the string form of a named entity, or "" when absent.
func (a QueryAnalysis) Entity(name string) string {
	if a.Entities == nil {
		return ""
	}
	v, ok := a.Entities[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Predicate is a document-store filter tree in the store's native map shape.
// Values may be scalars, nested operator maps ({"$gte": ...}), arrays
// ({"$in": [...]}) or logical branches ({"$or": [...]}).
type Predicate map[string]any

// SortSpec orders a sub-query's results by a single field.
type SortSpec struct {
	Field string
	Desc  bool
}

// QuerySpec is one sub-query of a plan: a predicate against a single named
// collection, with an optional projection and sort.
type QuerySpec struct {
	Collection string
	Predicate  Predicate
	Projection []string
	Limit      int
	Sort       *SortSpec
}

// PostOpKind names a post-processing operator.
type PostOpKind string

// Post-processing operators, applied strictly in plan order.
const (
	PostOpFilter    PostOpKind = "filter"
	PostOpSort      PostOpKind = "sort"
	PostOpAggregate PostOpKind = "aggregate"
	PostOpEnrich    PostOpKind = "enrich"
	PostOpScore     PostOpKind = "score"
	PostOpMerge     PostOpKind = "merge"
	PostOpAnalyze   PostOpKind = "analyze"
)

// PostOp is a single post-processing step with operator-specific parameters.
type PostOp struct {
	Kind   PostOpKind
	Params map[string]any
}

// Param returns the string form of a named parameter, or "" when absent.
func (op PostOp) Param(name string) string {
	if op.Params == nil {
		return ""
	}
	s, _ := op.Params[name].(string)
	return s
}

// QueryPlan is the transient, executable product of plan generation: the
// sub-queries to run plus the ordered post-processing chain.
type QueryPlan struct {
	Description string
	Specs       []QuerySpec
	PostOps     []PostOp
}

// DefaultSpecLimit is applied to specs the generator emitted without a limit.
const DefaultSpecLimit = 10

// QueryResult is the caller contract shared by user and producer queries.
// It never carries a Go error: internal failures fold into Err plus a
// user-facing fallback Response with empty Profiles.
type QueryResult struct {
	Query           string         `json:"query"`
	Intent          Intent         `json:"intent"`
	Entities        map[string]any `json:"entities"`
	ResultCount     int            `json:"resultCount"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	Response        string         `json:"response"`
	Profiles        []Profile      `json:"profiles"`
	Err             string         `json:"error,omitempty"`
}
