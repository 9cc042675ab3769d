package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownCollection(t *testing.T) {
	for _, name := range []string{
		CollectionRestaurants, CollectionEvents, CollectionLeisure,
		CollectionWellness, CollectionUsers,
	} {
		assert.True(t, KnownCollection(name), name)
	}
	assert.False(t, KnownCollection("starships"))
	assert.False(t, KnownCollection(""))
}

func TestDisplayNamePerVertical(t *testing.T) {
	tests := []struct {
		collection string
		record     Record
		want       string
	}{
		{CollectionRestaurants, Record{"nom": "Chez Nina"}, "Chez Nina"},
		{CollectionEvents, Record{"titre": "Concert", "nom": "ignored"}, "Concert"},
		{CollectionEvents, Record{"nom": "Repli"}, "Repli"},
		{CollectionWellness, Record{"etablissement": "Spa Azur", "nom": "autre"}, "Spa Azur"},
		{CollectionUsers, Record{"name": "Lou"}, "Lou"},
		{CollectionRestaurants, Record{}, ""},
	}
	for _, tt := range tests {
		v, ok := VerticalFor(tt.collection)
		require.True(t, ok)
		assert.Equal(t, tt.want, v.DisplayName(tt.record), "%s %v", tt.collection, tt.record)
	}
}

func TestVerticalProfile(t *testing.T) {
	v, _ := VerticalFor(CollectionRestaurants)
	p := v.Profile(Record{
		"_id":       "507f1f77bcf86cd799439011",
		"nom":       "Chez Nina",
		"adresse":   "3 rue du Port",
		"categorie": "Italien",
		"note":      4.6,
	})

	assert.Equal(t, "507f1f77bcf86cd799439011", p.ID)
	assert.Equal(t, "restaurant", p.Type)
	assert.Equal(t, "Chez Nina", p.DisplayName)
	assert.Equal(t, "3 rue du Port", p.Attributes["address"])
	assert.Equal(t, "Italien", p.Attributes["category"])
	assert.Equal(t, 4.6, p.Attributes["rating"])
}

func TestVerticalProfileOmitsAbsentAttributes(t *testing.T) {
	v, _ := VerticalFor(CollectionUsers)
	p := v.Profile(Record{"_id": "507f1f77bcf86cd799439011", "name": "Lou"})

	assert.Equal(t, "user", p.Type)
	assert.Empty(t, p.Attributes)
}

func TestProducerCollections(t *testing.T) {
	producers := ProducerCollections()
	assert.Contains(t, producers, CollectionRestaurants)
	assert.NotContains(t, producers, CollectionEvents)
	assert.NotContains(t, producers, CollectionUsers)
}

func TestEventProducerRef(t *testing.T) {
	v, _ := VerticalFor(CollectionEvents)
	assert.Equal(t, "producerId", v.ProducerRefField)

	v, _ = VerticalFor(CollectionRestaurants)
	assert.Empty(t, v.ProducerRefField)
}
