package domain

import (
	"strconv"
	"time"
)

// Record is one document from a store collection. Records are map-backed so
// the engine can work over heterogeneous verticals without per-collection
// struct types; BSON decodes into this shape directly.
type Record map[string]any

// Ephemeral fields attached to record copies during post-processing. They
// are never written back to the store and are stripped from persisted data.
const (
	FieldScore       = "_score"
	FieldMatchedItem = "_matchedItem"
	FieldMatchPath   = "_matchPath"
	FieldCollection  = "_collection"
	FieldRefName     = "_refName"
	FieldRefRating   = "_refRating"
)

// ID returns the record identifier as a plain string. Both string ids and
// fmt.Stringer ids (e.g. bson.ObjectID) are supported.
func (r Record) ID() string {
	v, ok := r["_id"]
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case interface{ Hex() string }:
		return id.Hex()
	case interface{ String() string }:
		return id.String()
	}
	return ""
}

// String returns the string value of a field, or "" when absent or not a
// string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Float returns the numeric value of a field as a float64. JSON numbers,
// BSON int32/int64 and string-encoded numbers are all accepted; ok is false
// when the field is absent or non-numeric.
func (r Record) Float(field string) (float64, bool) {
	return toFloat(r[field])
}

// Int returns the numeric value of a field truncated to int.
func (r Record) Int(field string) (int, bool) {
	f, ok := toFloat(r[field])
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Time returns the field as a time.Time when it holds a native date.
func (r Record) Time(field string) (time.Time, bool) {
	t, ok := r[field].(time.Time)
	return t, ok
}

// Array returns the field as a generic slice, or nil.
func (r Record) Array(field string) []any {
	a, _ := r[field].([]any)
	return a
}

// Map returns the field as a nested map, or nil.
func (r Record) Map(field string) map[string]any {
	m, _ := r[field].(map[string]any)
	return m
}

// Score returns the ephemeral relevance score attached by the scorer.
func (r Record) Score() float64 {
	f, _ := toFloat(r[FieldScore])
	return f
}

// Copy returns a shallow copy of the record. Post-processing operators only
// ever mutate copies, never the executor's source records.
func (r Record) Copy() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
