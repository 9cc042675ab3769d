package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/logger"
)

// Analyzer classifies a query's intent and extracts structured entities.
// Like every generative stage it degrades deterministically: an analysis
// failure substitutes a keyword-derived default and is never surfaced.
type Analyzer struct {
	generator driven.Generator
}

// NewAnalyzer creates an analyzer. generator may be nil.
func NewAnalyzer(generator driven.Generator) *Analyzer {
	return &Analyzer{generator: generator}
}

type analysisReply struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
}

const analyzerSystemPrompt = `You classify questions about local restaurants, events, leisure and wellness venues.

Intents: restaurant_search, dish_search, event_search, leisure_search, wellness_search, producer_analytics, general_search.

Entities to extract when present: location, cuisine, dish, category, priceLevel, date.

Respond with valid JSON only: {"intent": "<intent>", "entities": {...}}`

// Analyze returns the query analysis, never an error.
func (a *Analyzer) Analyze(ctx context.Context, text string) domain.QueryAnalysis {
	if a.generator != nil {
		reply, err := a.generator.Generate(ctx, analyzerSystemPrompt, text, driven.GenerateOptions{
			Temperature: 0,
			JSONOnly:    true,
		})
		if err == nil {
			var dto analysisReply
			if jsonErr := json.Unmarshal([]byte(stripFences(reply)), &dto); jsonErr == nil && domain.ValidIntent(dto.Intent) {
				return domain.QueryAnalysis{Intent: domain.Intent(dto.Intent), Entities: dto.Entities}
			}
			logger.Warn("analyzer: malformed reply, using keyword fallback")
		} else {
			logger.Warn("analyzer: generation failed (%v), using keyword fallback", err)
		}
	}
	return keywordAnalysis(text)
}

// intentKeywords drive the deterministic fallback classification.
var intentKeywords = []struct {
	intent domain.Intent
	words  []string
}{
	{domain.IntentProducerAnalytics, []string{"competitor", "concurrent", "compare", "comparer", "standing", "performance"}},
	{domain.IntentEventSearch, []string{"event", "événement", "evenement", "concert", "festival", "soirée", "soiree"}},
	{domain.IntentWellnessSearch, []string{"spa", "massage", "bien-être", "bien etre", "wellness", "yoga"}},
	{domain.IntentLeisureSearch, []string{"loisir", "activité", "activite", "musée", "musee", "cinéma", "cinema", "bowling"}},
	{domain.IntentDishSearch, []string{"plat", "dish", "saumon", "pizza", "sushi", "burger", "dessert"}},
	{domain.IntentRestaurantSearch, []string{"restaurant", "manger", "eat", "dinner", "déjeuner", "dejeuner", "brunch"}},
}

func keywordAnalysis(text string) domain.QueryAnalysis {
	lower := strings.ToLower(text)
	for _, candidate := range intentKeywords {
		for _, word := range candidate.words {
			if strings.Contains(lower, word) {
				return domain.QueryAnalysis{Intent: candidate.intent, Entities: map[string]any{}}
			}
		}
	}
	return domain.QueryAnalysis{Intent: domain.IntentGeneralSearch, Entities: map[string]any{}}
}
