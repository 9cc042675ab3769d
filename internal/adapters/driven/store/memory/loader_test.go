package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeSeed(t, `{
		"restaurants": [
			{"_id": "507f1f77bcf86cd799439011", "nom": "Chez Nina", "note": 4.6}
		],
		"events": [
			{"_id": "507f1f77bcf86cd799439021", "titre": "Concert"}
		]
	}`)

	s := NewDocumentStore()
	require.NoError(t, s.LoadFile(path))

	records, err := s.Find(context.Background(), domain.CollectionRestaurants, domain.Predicate{}, driven.FindOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Chez Nina", records[0].String("nom"))

	records, err = s.Find(context.Background(), domain.CollectionEvents, domain.Predicate{}, driven.FindOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadFile_UnknownCollectionRejected(t *testing.T) {
	path := writeSeed(t, `{"starships": []}`)

	err := NewDocumentStore().LoadFile(path)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestLoadFile_MalformedJSON(t *testing.T) {
	path := writeSeed(t, "{not json")

	assert.Error(t, NewDocumentStore().LoadFile(path))
}

func TestLoadFile_Missing(t *testing.T) {
	assert.Error(t, NewDocumentStore().LoadFile(filepath.Join(t.TempDir(), "absent.json")))
}
