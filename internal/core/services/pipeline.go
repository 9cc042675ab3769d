package services

import (
	"sort"
	"strings"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Pipeline applies a plan's ordered post-processing operators to an
// executed result set. Operators run strictly in plan order, each consuming
// the cumulative output of the previous one.
type Pipeline struct {
	scorer *Scorer
}

// NewPipeline creates a pipeline composing the given scorer.
func NewPipeline(scorer *Scorer) *Pipeline {
	return &Pipeline{scorer: scorer}
}

// Apply runs the operator chain. An operator with unusable parameters is
// skipped with a warning; it never fails the request.
func (p *Pipeline) Apply(rs *domain.ResultSet, ops []domain.PostOp, analysis domain.QueryAnalysis) *domain.ProcessedResultSet {
	out := domain.FromRaw(rs)
	for _, op := range ops {
		switch op.Kind {
		case domain.PostOpFilter:
			p.applyFilter(out, op)
		case domain.PostOpSort:
			p.applySort(out, op)
		case domain.PostOpAggregate:
			p.applyAggregate(out, op)
		case domain.PostOpEnrich:
			// Extension point; intentionally a no-op.
			logger.Debug("pipeline: enrich op is a no-op")
		case domain.PostOpScore:
			p.applyScore(out, op, analysis)
		case domain.PostOpMerge:
			p.applyMerge(out)
		case domain.PostOpAnalyze:
			p.applyAnalyze(out)
		default:
			logger.Warn("pipeline: skipping unknown operator %q", op.Kind)
		}
	}
	return out
}

// applyFilter keeps records of one collection satisfying a single
// comparator on a single field.
func (p *Pipeline) applyFilter(out *domain.ProcessedResultSet, op domain.PostOp) {
	collection := op.Param("collection")
	field := op.Param("field")
	comparator := op.Param("op")
	value := op.Params["value"]
	records, ok := out.Collections[collection]
	if !ok || field == "" {
		logger.Warn("pipeline: filter op missing collection or field, skipping")
		return
	}

	kept := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if matchComparator(r, field, comparator, value) {
			kept = append(kept, r)
		}
	}
	out.Collections[collection] = kept
	out.Recount()
}

func matchComparator(r domain.Record, field, comparator string, value any) bool {
	switch comparator {
	case "greater", "gt":
		have, ok1 := r.Float(field)
		want, ok2 := floatValue(value)
		return ok1 && ok2 && have > want
	case "less", "lt":
		have, ok1 := r.Float(field)
		want, ok2 := floatValue(value)
		return ok1 && ok2 && have < want
	case "contains", "substring":
		want, _ := value.(string)
		return containsTerm(r.String(field), strings.ToLower(want))
	default: // "equal" and unspecified comparators
		if have, ok := r.Float(field); ok {
			if want, ok := floatValue(value); ok {
				return have == want
			}
		}
		want, _ := value.(string)
		return strings.EqualFold(r.String(field), want)
	}
}

// applySort stably sorts one collection's records by a field; records
// missing the field sort last regardless of direction.
func (p *Pipeline) applySort(out *domain.ProcessedResultSet, op domain.PostOp) {
	collection := op.Param("collection")
	field := op.Param("field")
	desc := op.Param("direction") == "desc"
	records, ok := out.Collections[collection]
	if !ok || field == "" {
		logger.Warn("pipeline: sort op missing collection or field, skipping")
		return
	}

	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].Float(field)
		b, bok := sorted[j].Float(field)
		if aok != bok {
			return aok // present values before missing ones
		}
		if !aok {
			return false
		}
		if desc {
			return a > b
		}
		return a < b
	})
	out.Collections[collection] = sorted
}

// applyAggregate computes a count or average of one field, optionally
// grouped by another, into the shared aggregations map.
func (p *Pipeline) applyAggregate(out *domain.ProcessedResultSet, op domain.PostOp) {
	collection := op.Param("collection")
	field := op.Param("field")
	fn := op.Param("fn")
	groupBy := op.Param("groupBy")
	records, ok := out.Collections[collection]
	if !ok {
		logger.Warn("pipeline: aggregate op names unknown collection %q, skipping", collection)
		return
	}
	if fn == "" {
		fn = "count"
	}

	key := collection + "." + fn
	if field != "" {
		key += "." + field
	}

	if groupBy == "" {
		out.Aggregations[key] = aggregateFlat(records, field, fn)
		return
	}

	groups := make(map[string][]domain.Record)
	for _, r := range records {
		groups[r.String(groupBy)] = append(groups[r.String(groupBy)], r)
	}
	grouped := make(map[string]any, len(groups))
	for name, members := range groups {
		grouped[name] = aggregateFlat(members, field, fn)
	}
	out.Aggregations[key] = grouped
}

func aggregateFlat(records []domain.Record, field, fn string) any {
	if fn == "average" || fn == "avg" {
		sum, n := 0.0, 0
		for _, r := range records {
			if v, ok := r.Float(field); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return 0.0
		}
		return sum / float64(n)
	}
	return len(records)
}

// applyScore ranks one collection's records by the term from the operator
// parameters or, failing that, the extracted entities.
func (p *Pipeline) applyScore(out *domain.ProcessedResultSet, op domain.PostOp, analysis domain.QueryAnalysis) {
	collection := op.Param("collection")
	if collection == "" {
		collection = domain.CollectionRestaurants
	}
	term := op.Param("term")
	if term == "" {
		for _, entity := range []string{"dish", "plat", "cuisine", "term"} {
			if term = analysis.Entity(entity); term != "" {
				break
			}
		}
	}
	if term == "" {
		logger.Warn("pipeline: score op has no term, skipping")
		return
	}
	out.Collections[collection] = p.scorer.Score(out.Collections[collection], collection, term)
	out.Recount()
}

// applyMerge flattens every collection into one list tagged with its
// source collection, then annotates records referencing a producer present
// in the same merged set with that producer's display name and rating.
func (p *Pipeline) applyMerge(out *domain.ProcessedResultSet) {
	producers := make(map[string]domain.Record)
	merged := make([]domain.Record, 0, out.Total)

	names := make([]string, 0, len(out.Collections))
	for name := range out.Collections {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic merge order

	for _, name := range names {
		for _, r := range out.Collections[name] {
			tagged := r.Copy()
			tagged[domain.FieldCollection] = name
			merged = append(merged, tagged)
			if id := r.ID(); id != "" && isProducerCollection(name) {
				producers[id] = r
			}
		}
	}

	for _, r := range merged {
		collection, _ := r[domain.FieldCollection].(string)
		vertical, ok := domain.VerticalFor(collection)
		if !ok || vertical.ProducerRefField == "" {
			continue
		}
		ref := r.String(vertical.ProducerRefField)
		producer, found := producers[ref]
		if !found {
			continue
		}
		pv, _ := domain.VerticalFor(producerCollectionOf(producer, out))
		r[domain.FieldRefName] = pv.DisplayName(producer)
		if rating, ok := pv.Rating(producer); ok {
			r[domain.FieldRefRating] = rating
		}
	}

	out.Merged = merged
}

// applyAnalyze computes per-collection record count, category histogram and
// mean rating. After a merge it works over the merged list so counts sum
// exactly to the merged total.
func (p *Pipeline) applyAnalyze(out *domain.ProcessedResultSet) {
	byCollection := make(map[string][]domain.Record)
	if out.Merged != nil {
		for _, r := range out.Merged {
			name, _ := r[domain.FieldCollection].(string)
			byCollection[name] = append(byCollection[name], r)
		}
	} else {
		byCollection = out.Collections
	}

	analysis := make(map[string]domain.CollectionAnalysis, len(byCollection))
	for name, records := range byCollection {
		vertical, _ := domain.VerticalFor(name)
		entry := domain.CollectionAnalysis{Count: len(records)}
		categories := make(map[string]int)
		sum, n := 0.0, 0
		for _, r := range records {
			if vertical.CategoryField != "" {
				if c := r.String(vertical.CategoryField); c != "" {
					categories[c]++
				}
			}
			if rating, ok := vertical.Rating(r); ok {
				sum += rating
				n++
			}
		}
		if len(categories) > 0 {
			entry.Categories = categories
		}
		if n > 0 {
			entry.AverageRating = sum / float64(n)
		}
		analysis[name] = entry
	}
	out.Analysis = analysis
}

func isProducerCollection(name string) bool {
	for _, c := range domain.ProducerCollections() {
		if c == name {
			return true
		}
	}
	return false
}

// producerCollectionOf finds which producer collection a record came from,
// for vertical-correct field resolution during the merge join.
func producerCollectionOf(r domain.Record, out *domain.ProcessedResultSet) string {
	id := r.ID()
	for _, name := range domain.ProducerCollections() {
		for _, candidate := range out.Collections[name] {
			if candidate.ID() == id {
				return name
			}
		}
	}
	return domain.CollectionRestaurants
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
