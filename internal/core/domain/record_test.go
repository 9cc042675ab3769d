package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hexID string

func (h hexID) Hex() string { return string(h) }

func TestRecordID(t *testing.T) {
	tests := []struct {
		name string
		r    Record
		want string
	}{
		{"string id", Record{"_id": "507f1f77bcf86cd799439011"}, "507f1f77bcf86cd799439011"},
		{"hex stringer id", Record{"_id": hexID("507f1f77bcf86cd799439011")}, "507f1f77bcf86cd799439011"},
		{"missing", Record{}, ""},
		{"non-id value", Record{"_id": 42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.ID())
		})
	}
}

func TestRecordFloat(t *testing.T) {
	r := Record{
		"f64": 4.5,
		"i":   3,
		"i32": int32(7),
		"i64": int64(9),
		"str": "2.5",
		"bad": "pas un nombre",
	}

	for field, want := range map[string]float64{"f64": 4.5, "i": 3, "i32": 7, "i64": 9, "str": 2.5} {
		got, ok := r.Float(field)
		require.True(t, ok, "field %s", field)
		assert.Equal(t, want, got)
	}

	_, ok := r.Float("bad")
	assert.False(t, ok)
	_, ok = r.Float("absent")
	assert.False(t, ok)
}

func TestRecordAccessors(t *testing.T) {
	now := time.Now()
	r := Record{
		"nom":  "Chez Nina",
		"date": now,
		"menu": []any{"a"},
		"geo":  map[string]any{"lat": 48.85},
	}

	assert.Equal(t, "Chez Nina", r.String("nom"))
	assert.Equal(t, "", r.String("absent"))

	tv, ok := r.Time("date")
	require.True(t, ok)
	assert.Equal(t, now, tv)

	assert.Len(t, r.Array("menu"), 1)
	assert.Nil(t, r.Array("nom"))
	assert.Equal(t, 48.85, r.Map("geo")["lat"])

	n, ok := r.Int("geo")
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestRecordCopyIsIndependent(t *testing.T) {
	src := Record{"_id": "507f1f77bcf86cd799439011", "nom": "Chez Nina"}

	dst := src.Copy()
	dst[FieldScore] = 12.0
	dst["nom"] = "Autre"

	assert.Equal(t, "Chez Nina", src.String("nom"))
	_, tainted := src[FieldScore]
	assert.False(t, tainted)
	assert.Equal(t, 12.0, dst.Score())
	assert.Zero(t, src.Score())
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", "507f1f77bcf86cd799439011", true},
		{"  507f1f77bcf86cd799439011  ", "507f1f77bcf86cd799439011", true},
		{"507f1f77bcf86cd79943901", "", false},
		{"507f1f77bcf86cd7994390zz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalID(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestIdentifierField(t *testing.T) {
	for _, field := range []string{"_id", "id", "producerId", "restaurant_id"} {
		assert.True(t, IdentifierField(field), field)
	}
	for _, field := range []string{"nom", "note", "idee", "identity"} {
		assert.False(t, IdentifierField(field), field)
	}
}
