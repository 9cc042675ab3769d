package domain

// ScoringWeights are the hand-tuned relevance weights. They have no derived
// semantics; keep them as named, overridable configuration rather than
// burying them in the scorer.
type ScoringWeights struct {
	// Category is added when the search term appears in the record's
	// top-level category.
	Category float64 `toml:"category"`

	// Description is added when the term appears in the top-level
	// description.
	Description float64 `toml:"description"`

	// MenuSection is added when the term appears in a menu section label.
	MenuSection float64 `toml:"menu_section"`

	// MenuItemName is added when the term appears in a menu item name.
	MenuItemName float64 `toml:"menu_item_name"`

	// MenuItemDescription is added when the term appears in a menu item
	// description.
	MenuItemDescription float64 `toml:"menu_item_description"`

	// DeepMatch is the flat weight for a hit found by the deep traversal
	// fallback.
	DeepMatch float64 `toml:"deep_match"`

	// DeepVisitBudget caps the number of nodes the deep traversal visits
	// per record.
	DeepVisitBudget int `toml:"deep_visit_budget"`
}

// AnalyticsThresholds tune the competitive analytics engine.
type AnalyticsThresholds struct {
	// ExcellentRating marks an absolute-strength rating.
	ExcellentRating float64 `toml:"excellent_rating"`

	// LowRating marks an absolute-weakness rating.
	LowRating float64 `toml:"low_rating"`

	// CompetitorCap bounds the competitor set size.
	CompetitorCap int `toml:"competitor_cap"`

	// TopCompetitors is the size of the trimmed competitor reference list.
	TopCompetitors int `toml:"top_competitors"`

	// MenuGapMinPeers is the minimum number of competitors offering a menu
	// category before its absence counts as a gap.
	MenuGapMinPeers int `toml:"menu_gap_min_peers"`

	// PricePremiumRatio is the price-to-competitor-average ratio above
	// which a pricing review is recommended.
	PricePremiumRatio float64 `toml:"price_premium_ratio"`
}

// Settings is the engine configuration threaded into every pipeline entry
// point. Defaulted once at process start; no hidden global state.
type Settings struct {
	// Enabled gates the whole query engine. When false every entry point
	// returns a disabled result without touching external services.
	Enabled bool `toml:"enabled"`

	// ContextItems bounds how many representative records per collection
	// the synthesizer includes in the generation context.
	ContextItems int `toml:"context_items"`

	Scoring   ScoringWeights      `toml:"scoring"`
	Analytics AnalyticsThresholds `toml:"analytics"`
}

// NewDefaultSettings returns the tuned defaults.
func NewDefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		ContextItems: 5,
		Scoring: ScoringWeights{
			Category:            3,
			Description:         5,
			MenuSection:         10,
			MenuItemName:        30,
			MenuItemDescription: 25,
			DeepMatch:           10,
			DeepVisitBudget:     500,
		},
		Analytics: AnalyticsThresholds{
			ExcellentRating:   4.5,
			LowRating:         3.5,
			CompetitorCap:     50,
			TopCompetitors:    5,
			MenuGapMinPeers:   3,
			PricePremiumRatio: 1.2,
		},
	}
}
