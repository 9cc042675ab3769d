package domain

// MetricStats summarizes one metric across the competitor distribution.
type MetricStats struct {
	Average float64 `json:"average"`
	Max     float64 `json:"max"`

	// Percentile is the target producer's standing within the competitor
	// distribution, 0-100.
	Percentile float64 `json:"percentile"`
}

// DishRef references a single menu item with its rating, used for top-dish
// comparisons.
type DishRef struct {
	Name     string  `json:"name"`
	Producer string  `json:"producer,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// MenuComparison compares the target producer's menu against the competitor
// set.
type MenuComparison struct {
	TargetMinPrice      float64        `json:"targetMinPrice"`
	TargetMaxPrice      float64        `json:"targetMaxPrice"`
	TargetAvgPrice      float64        `json:"targetAvgPrice"`
	CompetitorMinPrice  float64        `json:"competitorMinPrice"`
	CompetitorMaxPrice  float64        `json:"competitorMaxPrice"`
	CompetitorAvgPrice  float64        `json:"competitorAvgPrice"`
	TargetItemCount     int            `json:"targetItemCount"`
	CompetitorAvgItems  float64        `json:"competitorAvgItems"`
	CategoryPresence    map[string]int `json:"categoryPresence"`
	TargetTopDishes     []DishRef      `json:"targetTopDishes"`
	CompetitorTopDishes []DishRef      `json:"competitorTopDishes"`

	// MenuGaps are categories popular with several competitors but absent
	// from the target's menu.
	MenuGaps []string `json:"menuGaps"`
}

// Recommendation is one entry from the fixed analytics decision table.
type Recommendation struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Recommendation kinds.
const (
	RecommendQuality     = "quality"
	RecommendReviews     = "reviews"
	RecommendMenuSize    = "menu_expansion"
	RecommendPricing     = "pricing_review"
	RecommendNewCategory = "category_addition"
)

// CompetitiveReport is the analytics engine output for one producer.
type CompetitiveReport struct {
	Producer        Profile          `json:"producer"`
	CompetitorCount int              `json:"competitorCount"`
	Rating          MetricStats      `json:"rating"`
	Price           MetricStats      `json:"price"`
	ReviewCount     MetricStats      `json:"reviewCount"`
	Menu            MenuComparison   `json:"menu"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Recommendations []Recommendation `json:"recommendations"`
	TopCompetitors  []Profile        `json:"topCompetitors"`
}
