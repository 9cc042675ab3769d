package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/logger"
)

// NoResultsMessage is returned verbatim for empty result sets, without an
// external call.
const NoResultsMessage = "Je n'ai rien trouvé qui corresponde à votre recherche. Essayez de reformuler ou d'élargir votre question."

// ApologyMessage substitutes for the generated text when synthesis fails.
const ApologyMessage = "Désolé, je n'ai pas pu formuler de réponse cette fois-ci. Voici tout de même ce que j'ai trouvé."

// refMarker matches the positional inline markers the model is instructed
// to emit, e.g. [ref:2].
var refMarker = regexp.MustCompile(`\[ref:(\d+)\]`)

// contextOrder fixes the order collections appear in the generation
// context, and therefore the order of the profile list.
var contextOrder = []string{
	domain.CollectionRestaurants,
	domain.CollectionEvents,
	domain.CollectionLeisure,
	domain.CollectionWellness,
	domain.CollectionUsers,
}

// Synthesizer turns a processed result set into natural-language text plus
// the ordered, navigable profile list.
type Synthesizer struct {
	generator    driven.Generator
	contextItems int
}

// NewSynthesizer creates a synthesizer. generator may be nil, in which case
// responses are deterministic summaries.
func NewSynthesizer(generator driven.Generator, contextItems int) *Synthesizer {
	if contextItems <= 0 {
		contextItems = 5
	}
	return &Synthesizer{generator: generator, contextItems: contextItems}
}

const synthesizerSystemPrompt = `You are a local-discovery concierge. Using ONLY the numbered context entries, answer the user's question conversationally in the user's language.

Whenever you mention a context entry, cite it with its positional marker exactly as [ref:N]. Do not invent entries, prices or ratings that are not in the context. Keep the answer under 150 words.`

// Synthesize formats the bounded textual context, delegates generation, and
// rewrites every positional marker into a structured profile reference.
// Zero-result sets short-circuit to a literal no-results message.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, analysis domain.QueryAnalysis, processed *domain.ProcessedResultSet) (string, []domain.Profile) {
	if processed == nil || processed.Total == 0 {
		return NoResultsMessage, []domain.Profile{}
	}

	contextText, profiles := s.buildContext(processed)

	text, err := s.generate(ctx, query, contextText)
	if err != nil {
		logger.Warn("synthesizer: generation failed (%v), substituting apology", err)
		return ApologyMessage + "\n\n" + deterministicSummary(profiles), profiles
	}
	return s.resolveMarkers(text, profiles), profiles
}

// buildContext renders per-collection summaries, bounded to the configured
// number of representative items each, and collects profiles in exactly the
// order the context lists them.
func (s *Synthesizer) buildContext(processed *domain.ProcessedResultSet) (string, []domain.Profile) {
	var (
		b        strings.Builder
		profiles []domain.Profile
	)

	for _, collection := range contextOrder {
		records := processed.Collections[collection]
		if len(records) == 0 {
			continue
		}
		vertical, _ := domain.VerticalFor(collection)
		fmt.Fprintf(&b, "%s (%d results):\n", collection, len(records))
		shown := 0
		for _, r := range records {
			if shown >= s.contextItems {
				break
			}
			shown++
			profile := vertical.Profile(r)
			profiles = append(profiles, profile)
			fmt.Fprintf(&b, "  [%d] %s", len(profiles), profile.DisplayName)
			if c, ok := profile.Attributes["category"]; ok {
				fmt.Fprintf(&b, " — %v", c)
			}
			if rating, ok := profile.Attributes["rating"]; ok {
				fmt.Fprintf(&b, " (note %v)", rating)
			}
			if item, ok := r[domain.FieldMatchedItem].(map[string]any); ok {
				if name, _ := item["nom"].(string); name != "" {
					fmt.Fprintf(&b, " — plat: %s", name)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(processed.Aggregations) > 0 {
		fmt.Fprintf(&b, "aggregations: %v\n", processed.Aggregations)
	}
	if processed.Competitive != nil {
		writeCompetitiveContext(&b, processed.Competitive)
	}
	return b.String(), profiles
}

func writeCompetitiveContext(b *strings.Builder, report *domain.CompetitiveReport) {
	fmt.Fprintf(b, "competitive analysis for %s: %d competitors, rating avg %.1f (percentile %.0f)\n",
		report.Producer.DisplayName, report.CompetitorCount, report.Rating.Average, report.Rating.Percentile)
	if len(report.Strengths) > 0 {
		fmt.Fprintf(b, "strengths: %s\n", strings.Join(report.Strengths, "; "))
	}
	if len(report.Weaknesses) > 0 {
		fmt.Fprintf(b, "weaknesses: %s\n", strings.Join(report.Weaknesses, "; "))
	}
	for _, rec := range report.Recommendations {
		fmt.Fprintf(b, "recommendation (%s): %s\n", rec.Kind, rec.Message)
	}
}

func (s *Synthesizer) generate(ctx context.Context, query, contextText string) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}
	user := fmt.Sprintf("QUESTION: %s\n\nCONTEXT:\n%s", query, contextText)
	return s.generator.Generate(ctx, synthesizerSystemPrompt, user, driven.GenerateOptions{
		Temperature: 0.4,
		MaxTokens:   400,
	})
}

// resolveMarkers rewrites every [ref:N] marker into a structured reference
// against the profile list; markers that resolve to no profile stay as
// plain text.
func (s *Synthesizer) resolveMarkers(text string, profiles []domain.Profile) string {
	return refMarker.ReplaceAllStringFunc(text, func(marker string) string {
		matches := refMarker.FindStringSubmatch(marker)
		n, err := strconv.Atoi(matches[1])
		if err != nil || n < 1 || n > len(profiles) {
			return marker
		}
		p := profiles[n-1]
		return fmt.Sprintf("@[%s](profile:%s/%s)", p.DisplayName, p.Type, p.ID)
	})
}

// deterministicSummary lists the surfaced entities when no generated text
// is available.
func deterministicSummary(profiles []domain.Profile) string {
	if len(profiles) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range profiles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- @[%s](profile:%s/%s)", p.DisplayName, p.Type, p.ID)
	}
	return b.String()
}
