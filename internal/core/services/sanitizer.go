package services

import (
	"strings"
	"time"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/logger"
)

// sentinelValues are placeholder literals the upstream generator sometimes
// leaves unsubstituted. An identifier clause carrying one is dropped
// entirely; the rest of the predicate still executes.
var sentinelValues = map[string]struct{}{
	"USER_ID":         {},
	"PRODUCER_ID":     {},
	"CURRENT_USER":    {},
	"CURRENT_USER_ID": {},
	"RESTAURANT_ID":   {},
	"SELF":            {},
}

// identifier wrapper keys the generator nests equality values under, e.g.
// {"_id": {"equals": {"tag": "<hex>"}}}.
var wrapperKeys = []string{"equals", "$eq", "eq", "id", "_id", "oid", "$oid", "tag", "value"}

// dateLayouts accepted during temporal normalization, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// SanitizePredicate normalizes one machine-generated predicate tree for a
// collection so it is safe to hand to the store's native filter syntax:
// nested identifier wrappers collapse to plain strings, sentinel
// placeholders are stripped, and date encodings become native time values
// with their comparison operators preserved.
//
// It never fails: on any parse problem the offending clause is dropped
// with a warning, and a panic degrades to an empty predicate that matches
// everything.
func SanitizePredicate(pred domain.Predicate, collection string) (out domain.Predicate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("sanitizer: panic on %s predicate, returning empty: %v", collection, r)
			out = domain.Predicate{}
		}
	}()
	if pred == nil {
		return domain.Predicate{}
	}
	return sanitizeTree(pred, collection)
}

func sanitizeTree(pred domain.Predicate, collection string) domain.Predicate {
	out := make(domain.Predicate, len(pred))
	for field, value := range pred {
		switch {
		case value == nil:
			logger.Warn("sanitizer: dropping nil clause %s.%s", collection, field)

		case field == "$or" || field == "$and" || field == "$nor":
			if branches := sanitizeBranches(value, collection); len(branches) > 0 {
				out[field] = branches
			}

		case domain.IdentifierField(field):
			if v, keep := sanitizeIdentifier(field, value, collection); keep {
				out[field] = v
			}

		case temporalField(field):
			if v, keep := normalizeTemporal(value); keep {
				out[field] = v
			} else {
				logger.Warn("sanitizer: dropping unparseable date clause %s.%s (%v)", collection, field, value)
			}

		default:
			out[field] = value
		}
	}
	return out
}

// sanitizeBranches applies the sanitizer to each arm of a logical operator,
// dropping arms that sanitize to nothing.
func sanitizeBranches(value any, collection string) []any {
	arms, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(arms))
	for _, arm := range arms {
		m, ok := arm.(map[string]any)
		if !ok {
			continue
		}
		clean := sanitizeTree(domain.Predicate(m), collection)
		if len(clean) > 0 {
			out = append(out, map[string]any(clean))
		}
	}
	return out
}

// sanitizeIdentifier collapses wrapper forms around an identifier value and
// rejects sentinel placeholders. Operator maps ($ne, $in, $nin, $exists)
// keep their operator with each operand unwrapped and sentinel-checked; the
// second result is false when the whole clause must be dropped.
func sanitizeIdentifier(field string, value any, collection string) (any, bool) {
	if m, ok := value.(map[string]any); ok && isOperatorMap(m) {
		return sanitizeIdentifierOperators(field, m, collection)
	}

	s, ok := unwrapIdentifier(value)
	if !ok {
		logger.Warn("sanitizer: dropping malformed identifier clause %s.%s (%v)", collection, field, value)
		return nil, false
	}
	if isSentinel(s) {
		logger.Warn("sanitizer: dropping sentinel placeholder %s.%s (%q)", collection, field, s)
		return nil, false
	}
	return canonicalOrRaw(s), true
}

// isOperatorMap reports whether every key of the map is a recognized
// non-equality store operator, distinguishing shapes like {"$ne": id} from
// the generator's equality wrappers like {"equals": id} or {"$eq": id},
// which collapse to plain strings instead.
func isOperatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for key := range m {
		switch key {
		case "$ne", "$in", "$nin", "$exists":
		default:
			return false
		}
	}
	return true
}

// sanitizeIdentifierOperators rebuilds an identifier operator map, cleaning
// the operands of each comparison or membership operator. The clause is
// dropped when nothing usable survives.
func sanitizeIdentifierOperators(field string, m map[string]any, collection string) (any, bool) {
	out := make(map[string]any, len(m))
	for op, raw := range m {
		switch op {
		case "$exists":
			out[op] = raw

		case "$ne":
			s, ok := unwrapIdentifier(raw)
			if !ok || isSentinel(s) {
				logger.Warn("sanitizer: dropping %s operand on %s.%s (%v)", op, collection, field, raw)
				continue
			}
			out[op] = canonicalOrRaw(s)

		case "$in", "$nin":
			members, _ := raw.([]any)
			clean := make([]any, 0, len(members))
			for _, member := range members {
				if s, ok := unwrapIdentifier(member); ok && !isSentinel(s) {
					clean = append(clean, canonicalOrRaw(s))
				}
			}
			if len(clean) == 0 {
				logger.Warn("sanitizer: dropping empty identifier membership %s.%s", collection, field)
				continue
			}
			out[op] = clean
		}
	}
	if len(out) == 0 {
		logger.Warn("sanitizer: dropping identifier clause %s.%s, no usable operators", collection, field)
		return nil, false
	}
	return out, true
}

// unwrapIdentifier descends nested wrapper maps until it reaches a plain
// string.
func unwrapIdentifier(value any) (string, bool) {
	for depth := 0; depth < 8; depth++ {
		switch v := value.(type) {
		case string:
			return v, true
		case map[string]any:
			inner, ok := innerWrapperValue(v)
			if !ok {
				return "", false
			}
			value = inner
		default:
			return "", false
		}
	}
	return "", false
}

func innerWrapperValue(m map[string]any) (any, bool) {
	for _, key := range wrapperKeys {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// canonicalOrRaw lowercases valid hex identifiers and leaves anything else
// untouched; a bad value surfaces as a store type mismatch and triggers the
// executor's relaxed retry.
func canonicalOrRaw(s string) string {
	if id, ok := domain.CanonicalID(s); ok {
		return id
	}
	return s
}

func isSentinel(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "<>{}[]")
	_, ok := sentinelValues[strings.ToUpper(s)]
	return ok
}

func temporalField(field string) bool {
	switch field {
	case "date", "createdAt", "updatedAt":
		return true
	}
	return strings.HasSuffix(field, "Date") || strings.HasSuffix(field, "_date")
}

// normalizeTemporal converts the generator's assorted date encodings into
// native time values. Recognized forms: a bare date, a lower bound and a
// lower+upper bound range, each possibly nested under "date" or "range"
// wrappers or spelled with after/before/from/to aliases.
func normalizeTemporal(value any) (any, bool) {
	if t, ok := parseDate(value); ok {
		return t, true
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	// Wrapper forms first.
	if inner, ok := m["date"]; ok {
		return normalizeTemporal(inner)
	}
	if inner, ok := m["range"]; ok {
		return normalizeTemporal(inner)
	}

	bounds := make(map[string]any, 2)
	for key, raw := range m {
		op, ok := boundOperator(key)
		if !ok {
			return nil, false
		}
		t, ok := parseDate(raw)
		if !ok {
			return nil, false
		}
		bounds[op] = t
	}
	if len(bounds) == 0 {
		return nil, false
	}
	return bounds, true
}

func boundOperator(key string) (string, bool) {
	switch key {
	case "$gte", "from", "start", "after", "min":
		return "$gte", true
	case "$lte", "to", "end", "before", "max":
		return "$lte", true
	case "$gt":
		return "$gt", true
	case "$lt":
		return "$lt", true
	}
	return "", false
}

func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
