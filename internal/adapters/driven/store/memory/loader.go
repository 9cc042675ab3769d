package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

// LoadFile seeds the store from a JSON file of the shape
// {"restaurants": [...], "events": [...]}. Unknown top-level keys are
// rejected so typos fail fast.
func (s *DocumentStore) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var collections map[string][]map[string]any
	if err := json.Unmarshal(data, &collections); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	for name, rawRecords := range collections {
		if !domain.KnownCollection(name) {
			return fmt.Errorf("seed file: %w: %q", domain.ErrUnknownCollection, name)
		}
		records := make([]domain.Record, len(rawRecords))
		for i, raw := range rawRecords {
			records[i] = domain.Record(raw)
		}
		s.Seed(name, records...)
	}
	return nil
}
