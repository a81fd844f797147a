// Package scorer ranks marketplace candidates against a requested outfit
// item. It is pure: no I/O, no mutation of inputs, deterministic output.
package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
)

// Weights are the relevance sub-score weights. They are empirical tuning
// values carried as configuration, not invariants.
type Weights struct {
	Category float64
	Name     float64
	Color    float64
	Style    float64
}

// DefaultWeights returns the tuned weight set.
func DefaultWeights() Weights {
	return Weights{Category: 0.3, Name: 0.4, Color: 0.2, Style: 0.1}
}

// Ranker scores, filters, sorts and deduplicates candidates.
type Ranker struct {
	weights  Weights
	minScore float64
}

// New creates a Ranker from config, falling back to defaults for zero values.
func New(cfg config.ScorerConfig) *Ranker {
	w := Weights{
		Category: cfg.CategoryWeight,
		Name:     cfg.NameWeight,
		Color:    cfg.ColorWeight,
		Style:    cfg.StyleWeight,
	}
	if w.Category == 0 && w.Name == 0 && w.Color == 0 && w.Style == 0 {
		w = DefaultWeights()
	}
	minScore := cfg.MinScore
	if minScore == 0 {
		minScore = 0.3
	}
	return &Ranker{weights: w, minScore: minScore}
}

// Score computes the weighted relevance of one candidate against the
// requested item, clamped to [0, 1], with a human-readable reason naming
// the sub-scores that fired.
func (r *Ranker) Score(item model.OutfitItemSpec, p model.CandidateProduct) (float64, string) {
	var score float64
	var reasons []string

	if categoryMatches(item, p) {
		score += r.weights.Category
		reasons = append(reasons, "category")
	}

	if overlap := nameOverlap(item.Name, p.Name); overlap > 0 {
		score += r.weights.Name * overlap
		reasons = append(reasons, fmt.Sprintf("name %.0f%%", overlap*100))
	}

	if overlap := colorOverlap(item.Colors, p); overlap > 0 {
		score += r.weights.Color * overlap
		reasons = append(reasons, "color")
	}

	if styleMatches(item.Style, p.Name) {
		score += r.weights.Style
		reasons = append(reasons, "style")
	}

	if score > 1 {
		score = 1
	}
	return score, strings.Join(reasons, ", ")
}

// Rank scores candidates, drops those below the minimum relevance, sorts by
// relevance (ties: rating, then budget fit, then discount) and deduplicates
// by (marketplace, id).
func (r *Ranker) Rank(item model.OutfitItemSpec, budget model.BudgetRange, candidates []model.CandidateProduct) []model.ScoredProduct {
	type key struct {
		marketplace model.Marketplace
		id          string
	}
	seen := make(map[key]bool, len(candidates))

	scored := make([]model.ScoredProduct, 0, len(candidates))
	for _, c := range candidates {
		k := key{c.Marketplace, c.ID}
		if seen[k] {
			continue
		}
		seen[k] = true

		score, reason := r.Score(item, c)
		if score < r.minScore {
			continue
		}
		scored = append(scored, model.ScoredProduct{
			CandidateProduct: c,
			RelevanceScore:   score,
			MatchReason:      reason,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		aIn, bIn := budget.Contains(a.Price), budget.Contains(b.Price)
		if aIn != bIn {
			return aIn
		}
		return a.Discount > b.Discount
	})

	return scored
}

// MinScore exposes the configured cut-off (used by synthetic fallbacks so
// they survive ranking).
func (r *Ranker) MinScore() float64 {
	return r.minScore
}

func categoryMatches(item model.OutfitItemSpec, p model.CandidateProduct) bool {
	want := normalize(item.Category)
	if want == "" {
		return false
	}
	name := normalize(p.Name)
	for _, kw := range categoryKeywords[want] {
		if strings.Contains(name, kw) {
			return true
		}
	}
	// Direct hit for candidates whose name carries the category literally.
	return strings.Contains(name, want)
}

// nameOverlap returns the fraction of requested-name tokens present in the
// candidate name. Stop-short tokens (< 3 runes) are skipped.
func nameOverlap(want, got string) float64 {
	wantTokens := tokenize(want)
	if len(wantTokens) == 0 {
		return 0
	}
	gotNorm := normalize(got)

	matched := 0
	for _, tok := range wantTokens {
		if strings.Contains(gotNorm, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(wantTokens))
}

// colorOverlap returns the fraction of requested colors present either in
// the candidate's color list or in its name.
func colorOverlap(wanted []string, p model.CandidateProduct) float64 {
	if len(wanted) == 0 {
		return 0
	}
	haystack := normalize(p.Name)
	for _, c := range p.Colors {
		haystack += " " + normalize(c)
	}

	matched := 0
	for _, want := range wanted {
		for _, synonym := range colorSynonyms(want) {
			if strings.Contains(haystack, synonym) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(wanted))
}

func styleMatches(style, name string) bool {
	style = normalize(style)
	if style == "" {
		return false
	}
	name = normalize(name)
	if strings.Contains(name, style) {
		return true
	}
	for _, synonym := range styleSynonyms[style] {
		if strings.Contains(name, synonym) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(normalize(s), func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '-' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'а' && r <= 'я')
}
