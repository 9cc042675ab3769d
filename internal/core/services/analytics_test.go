package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranda-labs/concierge/internal/adapters/driven/store/memory"
	"github.com/veranda-labs/concierge/internal/core/domain"
)

func testAnalytics(store *memory.DocumentStore) *Analytics {
	return NewAnalytics(NewExecutor(store), domain.NewDefaultSettings().Analytics)
}

func restaurant(id, name, category string, rating float64, extra map[string]any) domain.Record {
	r := domain.Record{"_id": id, "nom": name, "note": rating}
	if category != "" {
		r["categorie"] = category
	}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestAnalytics_NoPeersYieldsEmptyCompetitorsAndAbsoluteAssessment(t *testing.T) {
	store := memory.NewDocumentStore()
	store.Seed(domain.CollectionRestaurants,
		restaurant("507f1f77bcf86cd799439011", "L'Unique", "Moléculaire", 4.8, nil),
		restaurant("507f1f77bcf86cd799439012", "Burger Spot", "Burger", 4.0, nil),
	)

	report, err := testAnalytics(store).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", nil)

	require.NoError(t, err)
	assert.Zero(t, report.CompetitorCount)
	assert.Empty(t, report.TopCompetitors)
	assert.Empty(t, report.Recommendations, "no recommendations without peers")

	require.Len(t, report.Strengths, 1, "only the absolute threshold applies")
	assert.Contains(t, report.Strengths[0], "excellent overall rating")
	assert.Empty(t, report.Weaknesses)
}

func TestAnalytics_HigherRatingIsStrengthNotWeakness(t *testing.T) {
	store := memory.NewDocumentStore()
	store.Seed(domain.CollectionRestaurants,
		restaurant("507f1f77bcf86cd799439011", "Chez Nina", "Italien", 4.8, nil),
		restaurant("507f1f77bcf86cd799439012", "Roma", "Italien", 4.2, nil),
	)

	report, err := testAnalytics(store).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.CompetitorCount)
	assert.InDelta(t, 4.2, report.Rating.Average, 1e-9)
	assert.InDelta(t, 100.0, report.Rating.Percentile, 1e-9)

	assert.Contains(t, report.Strengths, "rated above the competitor average (4.8 vs 4.2)")
	for _, w := range report.Weaknesses {
		assert.NotContains(t, w, "rated below")
	}
}

func TestAnalytics_Percentile(t *testing.T) {
	store := memory.NewDocumentStore()
	store.Seed(domain.CollectionRestaurants,
		restaurant("507f1f77bcf86cd799439011", "Milieu", "Italien", 4.0, nil),
		restaurant("507f1f77bcf86cd799439012", "Bas", "Italien", 3.0, nil),
		restaurant("507f1f77bcf86cd799439013", "Haut", "Italien", 5.0, nil),
		restaurant("507f1f77bcf86cd799439014", "Egal", "Italien", 4.0, nil),
	)

	report, err := testAnalytics(store).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", []string{MetricRating})

	require.NoError(t, err)
	// Competitors score 3.0, 5.0 and 4.0; two of three sit at or below 4.0.
	assert.InDelta(t, 100.0*2/3, report.Rating.Percentile, 1e-9)
}

func TestAnalytics_MenuGapsRequireEnoughPeers(t *testing.T) {
	menuWith := func(sections ...string) []any {
		var menu []any
		for _, s := range sections {
			menu = append(menu, map[string]any{"section": s, "items": []any{}})
		}
		return menu
	}

	store := memory.NewDocumentStore()
	store.Seed(domain.CollectionRestaurants,
		restaurant("507f1f77bcf86cd799439011", "Cible", "Italien", 4.0, map[string]any{
			"menu": menuWith("Pizzas"),
		}),
		restaurant("507f1f77bcf86cd799439012", "Peer1", "Italien", 4.1, map[string]any{
			"menu": menuWith("Pizzas", "Desserts"),
		}),
		restaurant("507f1f77bcf86cd799439013", "Peer2", "Italien", 4.2, map[string]any{
			"menu": menuWith("Desserts", "Antipasti"),
		}),
		restaurant("507f1f77bcf86cd799439014", "Peer3", "Italien", 4.3, map[string]any{
			"menu": menuWith("Desserts"),
		}),
	)

	report, err := testAnalytics(store).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", []string{MetricMenu})

	require.NoError(t, err)
	// Desserts is offered by all three peers; Antipasti only by one.
	assert.Equal(t, []string{"Desserts"}, report.Menu.MenuGaps)
}

func TestAnalytics_RecommendationTable(t *testing.T) {
	menu := func(n int, avgPrice float64) []any {
		items := make([]any, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, map[string]any{"nom": "Plat", "prix": avgPrice})
		}
		return []any{map[string]any{"section": "Plats", "items": items}}
	}

	store := memory.NewDocumentStore()
	store.Seed(domain.CollectionRestaurants,
		restaurant("507f1f77bcf86cd799439011", "Cible", "Italien", 3.8, map[string]any{
			"nombreAvis": 10.0,
			"menu":       menu(2, 30.0),
		}),
		restaurant("507f1f77bcf86cd799439012", "Peer1", "Italien", 4.6, map[string]any{
			"nombreAvis": 200.0,
			"menu":       menu(10, 15.0),
		}),
		restaurant("507f1f77bcf86cd799439013", "Peer2", "Italien", 4.4, map[string]any{
			"nombreAvis": 150.0,
			"menu":       menu(8, 18.0),
		}),
	)

	report, err := testAnalytics(store).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", nil)

	require.NoError(t, err)
	kinds := make(map[string]bool)
	for _, rec := range report.Recommendations {
		kinds[rec.Kind] = true
	}
	assert.True(t, kinds[domain.RecommendQuality], "below-average rating triggers a quality recommendation")
	assert.True(t, kinds[domain.RecommendReviews])
	assert.True(t, kinds[domain.RecommendMenuSize])
	assert.True(t, kinds[domain.RecommendPricing], "30 vs ~16 average price crosses the premium ratio")
}

func TestAnalytics_UnknownProducer(t *testing.T) {
	report, err := testAnalytics(memory.NewDocumentStore()).CompareProducer(context.Background(), "507f1f77bcf86cd799439011", nil)

	assert.Nil(t, report)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAnalytics_TopCompetitorsCapped(t *testing.T) {
	store := memory.NewDocumentStore()
	ids := []string{
		"507f1f77bcf86cd799439011",
		"507f1f77bcf86cd799439012",
		"507f1f77bcf86cd799439013",
		"507f1f77bcf86cd799439014",
		"507f1f77bcf86cd799439015",
		"507f1f77bcf86cd799439016",
		"507f1f77bcf86cd799439017",
	}
	records := make([]domain.Record, 0, len(ids))
	for i, id := range ids {
		records = append(records, restaurant(id, "Resto", "Italien", 3.5+float64(i)*0.1, nil))
	}
	// Seed replaces a collection, so all records must go in one call.
	store.Seed(domain.CollectionRestaurants, records...)

	report, err := testAnalytics(store).CompareProducer(context.Background(), ids[0], nil)

	require.NoError(t, err)
	assert.Equal(t, len(ids)-1, report.CompetitorCount)
	assert.Len(t, report.TopCompetitors, domain.NewDefaultSettings().Analytics.TopCompetitors)
	// Rating-ranked: the best peer leads the list.
	require.NotEmpty(t, report.TopCompetitors)
	assert.Equal(t, ids[len(ids)-1], report.TopCompetitors[0].ID)
}
