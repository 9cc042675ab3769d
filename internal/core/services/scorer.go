package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/logger"
)

// textFields are the name/description-like keys the deep traversal inspects.
var textFields = map[string]struct{}{
	"nom":           {},
	"name":          {},
	"titre":         {},
	"label":         {},
	"section":       {},
	"description":   {},
	"etablissement": {},
}

// Scorer ranks producer records whose nested menu structures mention a
// target term. Weights are configuration; see domain.ScoringWeights.
type Scorer struct {
	weights domain.ScoringWeights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights domain.ScoringWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Score ranks records by weighted term matches. Records scoring zero are
// dropped; survivors sort descending by score with ties stable on original
// order. Source records are never mutated: scores, the matched menu item
// and the discovery path are attached to output copies only.
func (s *Scorer) Score(records []domain.Record, collection, term string) []domain.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(records) == 0 {
		return nil
	}
	vertical, _ := domain.VerticalFor(collection)

	out := make([]domain.Record, 0, len(records))
	for _, record := range records {
		score, matched, path := s.scoreRecord(record, vertical, term)
		if score <= 0 {
			continue
		}
		scored := record.Copy()
		scored[domain.FieldScore] = score
		if matched != nil {
			scored[domain.FieldMatchedItem] = matched
		}
		if path != "" {
			scored[domain.FieldMatchPath] = path
		}
		out = append(out, scored)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	logger.Debug("scorer: %d/%d %s records matched %q", len(out), len(records), collection, term)
	return out
}

// scoreRecord sums independent signal weights for one record. When no
// direct signal fires it falls back to the bounded deep traversal.
func (s *Scorer) scoreRecord(record domain.Record, vertical domain.Vertical, term string) (float64, map[string]any, string) {
	var (
		score   float64
		matched map[string]any
		path    string
	)

	if vertical.CategoryField != "" && containsTerm(record.String(vertical.CategoryField), term) {
		score += s.weights.Category
	}
	if vertical.DescriptionField != "" && containsTerm(record.String(vertical.DescriptionField), term) {
		score += s.weights.Description
	}

	for si, section := range record.Array("menu") {
		sec, ok := section.(map[string]any)
		if !ok {
			continue
		}
		if label, _ := sec["section"].(string); containsTerm(label, term) {
			score += s.weights.MenuSection
		}
		items, _ := sec["items"].([]any)
		for ii, rawItem := range items {
			item, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			name, _ := item["nom"].(string)
			desc, _ := item["description"].(string)
			hit := false
			if containsTerm(name, term) {
				score += s.weights.MenuItemName
				hit = true
			}
			if containsTerm(desc, term) {
				score += s.weights.MenuItemDescription
				hit = true
			}
			if hit && matched == nil {
				matched = item
				path = fmt.Sprintf("menu[%d].items[%d]", si, ii)
			}
		}
	}

	if score > 0 {
		return score, matched, path
	}

	// No direct signal: deep traversal over the whole record.
	if deepPath, deepItem := s.deepSearch(record, term); deepPath != "" {
		return s.weights.DeepMatch, deepItem, deepPath
	}
	return 0, nil, ""
}

// node is one step of the iterative deep traversal.
type node struct {
	path  string
	value any
}

// deepSearch walks the record's nested structure iteratively, bounded by
// the configured visit budget, looking for the term inside any
// name/description-like string field. Returns the discovery path and, when
// the hit sits inside a named map, that map as the matched item.
func (s *Scorer) deepSearch(record domain.Record, term string) (string, map[string]any) {
	budget := s.weights.DeepVisitBudget
	if budget <= 0 {
		budget = 500
	}

	stack := []node{{path: "", value: map[string]any(record)}}
	for len(stack) > 0 && budget > 0 {
		budget--
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := n.value.(type) {
		case map[string]any:
			for key, child := range v {
				childPath := joinPath(n.path, key)
				if str, ok := child.(string); ok {
					if _, textual := textFields[key]; textual && containsTerm(str, term) {
						if _, named := v["nom"]; named {
							return childPath, v
						}
						if _, named := v["name"]; named {
							return childPath, v
						}
						return childPath, nil
					}
					continue
				}
				stack = append(stack, node{path: childPath, value: child})
			}
		case []any:
			for i, child := range v {
				stack = append(stack, node{path: fmt.Sprintf("%s[%d]", n.path, i), value: child})
			}
		}
	}
	return "", nil
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func containsTerm(haystack, term string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), term)
}
