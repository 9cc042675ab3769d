package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

func TestTranslatePredicate_CoercesIdentifier(t *testing.T) {
	filter, err := TranslatePredicate(domain.Predicate{"_id": "507f1f77bcf86cd799439011"})

	require.NoError(t, err)
	id, ok := filter["_id"].(bson.ObjectID)
	require.True(t, ok, "string identifier becomes an ObjectID")
	assert.Equal(t, "507f1f77bcf86cd799439011", id.Hex())
}

func TestTranslatePredicate_MalformedIdentifier(t *testing.T) {
	_, err := TranslatePredicate(domain.Predicate{"_id": "not-an-id"})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestTranslatePredicate_IdentifierInsideOperator(t *testing.T) {
	filter, err := TranslatePredicate(domain.Predicate{
		"_id": map[string]any{"$ne": "507f1f77bcf86cd799439011"},
	})

	require.NoError(t, err)
	ops, ok := filter["_id"].(bson.M)
	require.True(t, ok)
	id, ok := ops["$ne"].(bson.ObjectID)
	require.True(t, ok, "operator values on _id coerce too")
	assert.Equal(t, "507f1f77bcf86cd799439011", id.Hex())
}

func TestTranslatePredicate_IdentifierMembership(t *testing.T) {
	filter, err := TranslatePredicate(domain.Predicate{
		"_id": map[string]any{"$in": []any{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439012"}},
	})

	require.NoError(t, err)
	ops := filter["_id"].(bson.M)
	members, ok := ops["$in"].(bson.A)
	require.True(t, ok)
	require.Len(t, members, 2)
	for _, member := range members {
		_, isID := member.(bson.ObjectID)
		assert.True(t, isID)
	}
}

func TestTranslatePredicate_IdentifierInsideOrBranch(t *testing.T) {
	filter, err := TranslatePredicate(domain.Predicate{
		"$or": []any{
			map[string]any{"_id": "507f1f77bcf86cd799439011"},
			map[string]any{"categorie": "Italien"},
		},
	})

	require.NoError(t, err)
	arms, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, arms, 2)

	first := arms[0].(bson.M)
	_, isID := first["_id"].(bson.ObjectID)
	assert.True(t, isID, "branch fields resolve against their own names")

	second := arms[1].(bson.M)
	assert.Equal(t, "Italien", second["categorie"])
}

func TestTranslatePredicate_NonIdentifierValuesPassThrough(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filter, err := TranslatePredicate(domain.Predicate{
		"categorie": "Italien",
		"note":      map[string]any{"$gte": 4.0},
		"date":      map[string]any{"$gte": now},
	})

	require.NoError(t, err)
	assert.Equal(t, "Italien", filter["categorie"])
	assert.Equal(t, bson.M{"$gte": 4.0}, filter["note"])
	assert.Equal(t, bson.M{"$gte": now}, filter["date"])
}

func TestFromBSON_Normalizes(t *testing.T) {
	id, err := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	when := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	record := fromBSON(bson.M{
		"_id":  id,
		"nom":  "Chez Nina",
		"geo":  bson.M{"lat": 48.85},
		"tags": bson.A{"terrasse"},
		"date": bson.NewDateTimeFromTime(when),
	})

	assert.Equal(t, "507f1f77bcf86cd799439011", record.ID())
	assert.Equal(t, "Chez Nina", record.String("nom"))
	assert.Equal(t, 48.85, record.Map("geo")["lat"])
	assert.Equal(t, []any{"terrasse"}, record.Array("tags"))
	got, ok := record.Time("date")
	require.True(t, ok)
	assert.True(t, got.Equal(when))
}
