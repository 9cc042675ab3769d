package domain

// Store collection names. A query spec naming anything else is dropped with
// a warning at execution time.
const (
	CollectionRestaurants = "restaurants"
	CollectionEvents      = "events"
	CollectionLeisure     = "loisirs"
	CollectionWellness    = "bienetre"
	CollectionUsers       = "users"
	CollectionQueryLogs   = "querylogs"
)

// Vertical describes how one collection's records map onto the stable
// normalized shape. Per-vertical field naming is historical: restaurants
// use "nom", events "titre", wellness venues "etablissement", and so on.
type Vertical struct {
	Collection  string
	ProfileType string

	// NameFields in priority order; the first non-empty one wins.
	NameFields []string

	// AddressFields in priority order.
	AddressFields []string

	CategoryField    string
	DescriptionField string
	RatingField      string
	ReviewCountField string
	PriceField       string

	// ProducerRefField names the field referencing a producer id, for
	// verticals whose records point at a producer (events).
	ProducerRefField string
}

var verticals = map[string]Vertical{
	CollectionRestaurants: {
		Collection:       CollectionRestaurants,
		ProfileType:      "restaurant",
		NameFields:       []string{"nom", "name"},
		AddressFields:    []string{"adresse", "address"},
		CategoryField:    "categorie",
		DescriptionField: "description",
		RatingField:      "note",
		ReviewCountField: "nombreAvis",
		PriceField:       "prixMoyen",
	},
	CollectionEvents: {
		Collection:       CollectionEvents,
		ProfileType:      "event",
		NameFields:       []string{"titre", "nom", "name"},
		AddressFields:    []string{"lieu", "adresse"},
		CategoryField:    "categorie",
		DescriptionField: "description",
		RatingField:      "note",
		ProducerRefField: "producerId",
	},
	CollectionLeisure: {
		Collection:       CollectionLeisure,
		ProfileType:      "loisir",
		NameFields:       []string{"nom", "name"},
		AddressFields:    []string{"adresse", "address"},
		CategoryField:    "categorie",
		DescriptionField: "description",
		RatingField:      "note",
		ReviewCountField: "nombreAvis",
		PriceField:       "prixMoyen",
	},
	CollectionWellness: {
		Collection:       CollectionWellness,
		ProfileType:      "bienetre",
		NameFields:       []string{"etablissement", "nom", "name"},
		AddressFields:    []string{"adresse", "address"},
		CategoryField:    "categorie",
		DescriptionField: "description",
		RatingField:      "note",
		ReviewCountField: "nombreAvis",
		PriceField:       "prixMoyen",
	},
	CollectionUsers: {
		Collection:  CollectionUsers,
		ProfileType: "user",
		NameFields:  []string{"name", "nom"},
	},
}

// KnownCollection reports whether name is a collection the engine serves.
func KnownCollection(name string) bool {
	_, ok := verticals[name]
	return ok
}

// ProducerCollections lists the verticals that represent listed businesses.
func ProducerCollections() []string {
	return []string{CollectionRestaurants, CollectionLeisure, CollectionWellness}
}

// VerticalFor returns the adapter for a collection. The second result is
// false for unknown collections.
func VerticalFor(collection string) (Vertical, bool) {
	v, ok := verticals[collection]
	return v, ok
}

// DisplayName resolves the record's display name through the vertical's
// field priority list.
func (v Vertical) DisplayName(r Record) string {
	for _, f := range v.NameFields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return ""
}

// Address resolves the record's address likewise.
func (v Vertical) Address(r Record) string {
	for _, f := range v.AddressFields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return ""
}

// Rating returns the record's rating, ok false when unset.
func (v Vertical) Rating(r Record) (float64, bool) {
	if v.RatingField == "" {
		return 0, false
	}
	return r.Float(v.RatingField)
}

// Profile normalizes a record into the stable profile shape used by
// responses.
func (v Vertical) Profile(r Record) Profile {
	attrs := make(map[string]any)
	if addr := v.Address(r); addr != "" {
		attrs["address"] = addr
	}
	if v.CategoryField != "" {
		if c := r.String(v.CategoryField); c != "" {
			attrs["category"] = c
		}
	}
	if rating, ok := v.Rating(r); ok {
		attrs["rating"] = rating
	}
	return Profile{
		ID:          r.ID(),
		Type:        v.ProfileType,
		DisplayName: v.DisplayName(r),
		Attributes:  attrs,
	}
}
