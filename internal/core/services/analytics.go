package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Metric names accepted by the analytics engine's optional subset filter.
const (
	MetricRating  = "rating"
	MetricPrice   = "price"
	MetricReviews = "reviews"
	MetricMenu    = "menu"
)

// Analytics computes comparative statistics and recommendations for one
// producer against its same-category peers.
type Analytics struct {
	executor   *Executor
	thresholds domain.AnalyticsThresholds
}

// NewAnalytics creates the analytics engine over an executor.
func NewAnalytics(executor *Executor, thresholds domain.AnalyticsThresholds) *Analytics {
	return &Analytics{executor: executor, thresholds: thresholds}
}

// CompareProducer builds the competitive report for a producer. metrics
// optionally restricts which stats are computed; empty means all. With no
// same-category peers the competitor list is empty and strengths and
// weaknesses derive only from absolute thresholds.
func (a *Analytics) CompareProducer(ctx context.Context, producerID string, metrics []string) (*domain.CompetitiveReport, error) {
	target, collection, err := a.findProducer(ctx, producerID)
	if err != nil {
		return nil, err
	}
	vertical, _ := domain.VerticalFor(collection)

	competitors := a.findCompetitors(ctx, target, collection, vertical)
	logger.Debug("analytics: producer %s has %d same-category competitors", producerID, len(competitors))

	report := &domain.CompetitiveReport{
		Producer:        vertical.Profile(target),
		CompetitorCount: len(competitors),
	}

	if wantMetric(metrics, MetricRating) {
		report.Rating = metricStats(target, competitors, vertical.RatingField)
	}
	if wantMetric(metrics, MetricPrice) {
		report.Price = metricStats(target, competitors, vertical.PriceField)
	}
	if wantMetric(metrics, MetricReviews) {
		report.ReviewCount = metricStats(target, competitors, vertical.ReviewCountField)
	}
	if wantMetric(metrics, MetricMenu) {
		report.Menu = a.compareMenus(target, competitors, vertical)
	}

	report.Strengths, report.Weaknesses = a.assess(target, competitors, vertical, report)
	report.Recommendations = a.recommend(target, competitors, vertical, report)
	report.TopCompetitors = a.topCompetitors(competitors, vertical)
	return report, nil
}

// findProducer looks the producer up across the producer verticals.
func (a *Analytics) findProducer(ctx context.Context, producerID string) (domain.Record, string, error) {
	id, ok := domain.CanonicalID(producerID)
	if !ok {
		id = producerID
	}
	plan := &domain.QueryPlan{Description: "producer lookup"}
	for _, collection := range domain.ProducerCollections() {
		plan.Specs = append(plan.Specs, domain.QuerySpec{
			Collection: collection,
			Predicate:  domain.Predicate{"_id": id},
			Limit:      1,
		})
	}
	rs := a.executor.Execute(ctx, plan)
	for _, collection := range domain.ProducerCollections() {
		if records := rs.Collections[collection]; len(records) > 0 {
			return records[0], collection, nil
		}
	}
	return nil, "", fmt.Errorf("producer %s: %w", producerID, domain.ErrNotFound)
}

// findCompetitors returns same-category peers excluding the target,
// rating-ranked and capped.
func (a *Analytics) findCompetitors(ctx context.Context, target domain.Record, collection string, vertical domain.Vertical) []domain.Record {
	category := target.String(vertical.CategoryField)
	pred := domain.Predicate{"_id": map[string]any{"$ne": target.ID()}}
	if category != "" {
		pred[vertical.CategoryField] = category
	}
	plan := &domain.QueryPlan{
		Description: "competitor lookup",
		Specs: []domain.QuerySpec{{
			Collection: collection,
			Predicate:  pred,
			Limit:      a.thresholds.CompetitorCap,
			Sort:       &domain.SortSpec{Field: vertical.RatingField, Desc: true},
		}},
	}
	rs := a.executor.Execute(ctx, plan)
	competitors := rs.Collections[collection]

	// The store excluded by id; drop category misses defensively when the
	// category predicate was relaxed away.
	if category == "" {
		return nil
	}
	kept := competitors[:0]
	for _, c := range competitors {
		if c.ID() != target.ID() && c.String(vertical.CategoryField) == category {
			kept = append(kept, c)
		}
	}
	return kept
}

// metricStats computes average, max and the target's percentile within the
// competitor distribution for one numeric field.
func metricStats(target domain.Record, competitors []domain.Record, field string) domain.MetricStats {
	if field == "" || len(competitors) == 0 {
		return domain.MetricStats{}
	}
	values := make([]float64, 0, len(competitors))
	for _, c := range competitors {
		if v, ok := c.Float(field); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return domain.MetricStats{}
	}

	sum, max := 0.0, values[0]
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	stats := domain.MetricStats{Average: sum / float64(len(values)), Max: max}

	if tv, ok := target.Float(field); ok {
		below := 0
		for _, v := range values {
			if v <= tv {
				below++
			}
		}
		stats.Percentile = 100 * float64(below) / float64(len(values))
	}
	return stats
}

// menuItems flattens a producer's menu into (section, item) pairs.
func menuItems(r domain.Record) []map[string]any {
	var items []map[string]any
	for _, rawSection := range r.Array("menu") {
		section, ok := rawSection.(map[string]any)
		if !ok {
			continue
		}
		list, _ := section["items"].([]any)
		for _, rawItem := range list {
			if item, ok := rawItem.(map[string]any); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

func menuSections(r domain.Record) []string {
	var names []string
	for _, rawSection := range r.Array("menu") {
		if section, ok := rawSection.(map[string]any); ok {
			if name, _ := section["section"].(string); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// compareMenus builds the price extrema/average comparison, section
// presence histogram, top-rated dishes and menu gaps.
func (a *Analytics) compareMenus(target domain.Record, competitors []domain.Record, vertical domain.Vertical) domain.MenuComparison {
	cmp := domain.MenuComparison{CategoryPresence: make(map[string]int)}

	targetItems := menuItems(target)
	cmp.TargetItemCount = len(targetItems)
	cmp.TargetMinPrice, cmp.TargetMaxPrice, cmp.TargetAvgPrice = priceExtrema(targetItems)
	cmp.TargetTopDishes = topDishes(targetItems, vertical.DisplayName(target), 3)

	var (
		allCompetitorItems []map[string]any
		totalItems         int
	)
	sectionPeers := make(map[string]int)
	for _, c := range competitors {
		items := menuItems(c)
		totalItems += len(items)
		for _, item := range items {
			item = withProducer(item, vertical.DisplayName(c))
			allCompetitorItems = append(allCompetitorItems, item)
		}
		seen := make(map[string]bool)
		for _, section := range menuSections(c) {
			if !seen[section] {
				sectionPeers[section]++
				seen[section] = true
			}
		}
	}
	cmp.CategoryPresence = sectionPeers
	cmp.CompetitorMinPrice, cmp.CompetitorMaxPrice, cmp.CompetitorAvgPrice = priceExtrema(allCompetitorItems)
	cmp.CompetitorTopDishes = topDishes(allCompetitorItems, "", 3)
	if len(competitors) > 0 {
		cmp.CompetitorAvgItems = float64(totalItems) / float64(len(competitors))
	}

	targetSections := make(map[string]bool)
	for _, section := range menuSections(target) {
		targetSections[section] = true
	}
	for section, peers := range sectionPeers {
		if peers >= a.thresholds.MenuGapMinPeers && !targetSections[section] {
			cmp.MenuGaps = append(cmp.MenuGaps, section)
		}
	}
	sort.Strings(cmp.MenuGaps)
	return cmp
}

func withProducer(item map[string]any, producer string) map[string]any {
	out := make(map[string]any, len(item)+1)
	for k, v := range item {
		out[k] = v
	}
	out["_producer"] = producer
	return out
}

func priceExtrema(items []map[string]any) (min, max, avg float64) {
	sum, n := 0.0, 0
	for _, item := range items {
		price, ok := toFloatAny(item["prix"])
		if !ok {
			continue
		}
		if n == 0 || price < min {
			min = price
		}
		if price > max {
			max = price
		}
		sum += price
		n++
	}
	if n > 0 {
		avg = sum / float64(n)
	}
	return min, max, avg
}

func topDishes(items []map[string]any, producer string, limit int) []domain.DishRef {
	refs := make([]domain.DishRef, 0, len(items))
	for _, item := range items {
		rating, ok := toFloatAny(item["note"])
		if !ok {
			continue
		}
		name, _ := item["nom"].(string)
		price, _ := toFloatAny(item["prix"])
		ref := domain.DishRef{Name: name, Price: price, Rating: rating, Producer: producer}
		if p, _ := item["_producer"].(string); p != "" {
			ref.Producer = p
		}
		refs = append(refs, ref)
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Rating > refs[j].Rating })
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs
}

// assess derives the strengths/weaknesses list. Relative comparisons apply
// when peers exist; absolute thresholds always apply.
func (a *Analytics) assess(target domain.Record, competitors []domain.Record, vertical domain.Vertical, report *domain.CompetitiveReport) (strengths, weaknesses []string) {
	rating, hasRating := target.Float(vertical.RatingField)

	if hasRating {
		if rating >= a.thresholds.ExcellentRating {
			strengths = append(strengths, fmt.Sprintf("excellent overall rating (%.1f)", rating))
		}
		if rating < a.thresholds.LowRating {
			weaknesses = append(weaknesses, fmt.Sprintf("low overall rating (%.1f)", rating))
		}
	}

	if len(competitors) > 0 {
		if hasRating && report.Rating.Average > 0 {
			if rating > report.Rating.Average {
				strengths = append(strengths, fmt.Sprintf("rated above the competitor average (%.1f vs %.1f)", rating, report.Rating.Average))
			} else if rating < report.Rating.Average {
				weaknesses = append(weaknesses, fmt.Sprintf("rated below the competitor average (%.1f vs %.1f)", rating, report.Rating.Average))
			}
		}
		if reviews, ok := target.Float(vertical.ReviewCountField); ok && report.ReviewCount.Average > 0 {
			if reviews > report.ReviewCount.Average {
				strengths = append(strengths, "more reviews than the competitor average")
			} else if reviews < report.ReviewCount.Average {
				weaknesses = append(weaknesses, "fewer reviews than the competitor average")
			}
		}
		if price, ok := target.Float(vertical.PriceField); ok && report.Price.Average > 0 && price < report.Price.Average {
			strengths = append(strengths, "priced below the competitor average")
		}
		if len(report.Menu.MenuGaps) > 0 {
			weaknesses = append(weaknesses, fmt.Sprintf("menu misses %d categories competitors offer", len(report.Menu.MenuGaps)))
		}
	}
	return strengths, weaknesses
}

// recommend applies the fixed decision table.
func (a *Analytics) recommend(target domain.Record, competitors []domain.Record, vertical domain.Vertical, report *domain.CompetitiveReport) []domain.Recommendation {
	var recs []domain.Recommendation
	if len(competitors) == 0 {
		return recs
	}

	if rating, ok := target.Float(vertical.RatingField); ok && report.Rating.Average > 0 && rating < report.Rating.Average {
		recs = append(recs, domain.Recommendation{
			Kind:    domain.RecommendQuality,
			Message: "rating is below the competitor average; focus on service and food quality",
		})
	}
	if reviews, ok := target.Float(vertical.ReviewCountField); ok && report.ReviewCount.Average > 0 && reviews < report.ReviewCount.Average {
		recs = append(recs, domain.Recommendation{
			Kind:    domain.RecommendReviews,
			Message: "review count is below the competitor average; encourage satisfied customers to leave reviews",
		})
	}
	if report.Menu.CompetitorAvgItems > 0 && float64(report.Menu.TargetItemCount) < report.Menu.CompetitorAvgItems {
		recs = append(recs, domain.Recommendation{
			Kind:    domain.RecommendMenuSize,
			Message: "menu is smaller than the competitor average; consider expanding the offer",
		})
	}
	if report.Menu.CompetitorAvgPrice > 0 && report.Menu.TargetAvgPrice >= report.Menu.CompetitorAvgPrice*a.thresholds.PricePremiumRatio {
		recs = append(recs, domain.Recommendation{
			Kind:    domain.RecommendPricing,
			Message: "average price sits well above competitors; review pricing",
		})
	}
	if len(report.Menu.MenuGaps) > 0 {
		recs = append(recs, domain.Recommendation{
			Kind:    domain.RecommendNewCategory,
			Message: fmt.Sprintf("competitors commonly offer %v; consider adding these categories", report.Menu.MenuGaps),
		})
	}
	return recs
}

func (a *Analytics) topCompetitors(competitors []domain.Record, vertical domain.Vertical) []domain.Profile {
	limit := a.thresholds.TopCompetitors
	if limit <= 0 || limit > len(competitors) {
		limit = len(competitors)
	}
	profiles := make([]domain.Profile, 0, limit)
	for _, c := range competitors[:limit] {
		profiles = append(profiles, vertical.Profile(c))
	}
	return profiles
}

func wantMetric(metrics []string, name string) bool {
	if len(metrics) == 0 {
		return true
	}
	for _, m := range metrics {
		if m == name {
			return true
		}
	}
	return false
}

func toFloatAny(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
