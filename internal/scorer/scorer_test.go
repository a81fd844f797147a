package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
)

func defaultRanker() *Ranker {
	return New(config.ScorerConfig{
		CategoryWeight: 0.3,
		NameWeight:     0.4,
		ColorWeight:    0.2,
		StyleWeight:    0.1,
		MinScore:       0.3,
	})
}

func TestScore_LinenShirtScenario(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{
		Category: "top",
		Name:     "Льняная рубашка",
		Colors:   []string{"белый"},
		Style:    "casual",
	}

	shirt := model.CandidateProduct{
		ID:          "1",
		Name:        "Рубашка льняная белая casual",
		Marketplace: model.MarketplaceWildberries,
	}
	sneakers := model.CandidateProduct{
		ID:          "2",
		Name:        "Кроссовки",
		Marketplace: model.MarketplaceWildberries,
	}

	shirtScore, reason := r.Score(item, shirt)
	assert.Greater(t, shirtScore, 0.7)
	assert.Contains(t, reason, "category")
	assert.Contains(t, reason, "color")

	sneakersScore, _ := r.Score(item, sneakers)
	assert.Less(t, sneakersScore, 0.1)

	ranked := r.Rank(item, model.BudgetRange{}, []model.CandidateProduct{sneakers, shirt})
	require.Len(t, ranked, 1, "sneakers must be filtered out")
	assert.Equal(t, "1", ranked[0].ID)
	assert.Greater(t, ranked[0].RelevanceScore, 0.7)
}

func TestScore_ColorMonotonic(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{
		Category: "bottom",
		Name:     "Джинсы прямого кроя",
		Colors:   []string{"синий"},
	}

	without := model.CandidateProduct{ID: "1", Name: "Джинсы прямого кроя"}
	with := without
	with.Colors = []string{"Синий"}

	scoreWithout, _ := r.Score(item, without)
	scoreWith, _ := r.Score(item, with)
	assert.GreaterOrEqual(t, scoreWith, scoreWithout)
	assert.Greater(t, scoreWith, scoreWithout, "matching color must raise the score here")
}

func TestScore_ColorSynonymAndYo(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{
		Category: "top",
		Name:     "Футболка",
		Colors:   []string{"чёрный"},
	}

	p := model.CandidateProduct{ID: "1", Name: "Футболка black оверсайз"}
	score, reason := r.Score(item, p)
	assert.Contains(t, reason, "color")
	assert.Greater(t, score, 0.5)
}

func TestScore_ClampedToOne(t *testing.T) {
	// Inflated weights must still produce a score within [0, 1].
	r := New(config.ScorerConfig{
		CategoryWeight: 1,
		NameWeight:     1,
		ColorWeight:    1,
		StyleWeight:    1,
		MinScore:       0.3,
	})
	item := model.OutfitItemSpec{
		Category: "top",
		Name:     "Рубашка",
		Colors:   []string{"белый"},
		Style:    "casual",
	}
	p := model.CandidateProduct{ID: "1", Name: "Рубашка белая casual", Colors: []string{"белый"}}

	score, _ := r.Score(item, p)
	assert.LessOrEqual(t, score, 1.0)
}

func TestRank_Deduplicates(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{Category: "top", Name: "Рубашка"}

	dup := model.CandidateProduct{ID: "42", Name: "Рубашка классическая", Marketplace: model.MarketplaceWildberries}
	other := dup
	other.Marketplace = model.MarketplaceOzon // same id, different marketplace: kept

	ranked := r.Rank(item, model.BudgetRange{}, []model.CandidateProduct{dup, dup, other})
	assert.Len(t, ranked, 2)
}

func TestRank_TieBreakers(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{Category: "footwear", Name: "Кроссовки"}
	budget := model.ParseBudgetRange("2000-6000")

	lowRated := model.CandidateProduct{ID: "a", Name: "Кроссовки", Rating: 4.0, Price: 3000}
	highRated := model.CandidateProduct{ID: "b", Name: "Кроссовки", Rating: 4.9, Price: 30000}
	inBudget := model.CandidateProduct{ID: "c", Name: "Кроссовки", Rating: 4.0, Price: 4000}
	discounted := model.CandidateProduct{ID: "d", Name: "Кроссовки", Rating: 4.0, Price: 3000, Discount: 40}

	ranked := r.Rank(item, budget, []model.CandidateProduct{lowRated, highRated, inBudget, discounted})
	require.Len(t, ranked, 4)
	// Identical relevance: rating first.
	assert.Equal(t, "b", ranked[0].ID)
	// Among equal ratings, discount decides within the in-budget group.
	assert.Equal(t, "d", ranked[1].ID)
}

func TestRank_PureInputsUntouched(t *testing.T) {
	r := defaultRanker()
	item := model.OutfitItemSpec{Category: "top", Name: "Рубашка"}

	candidates := []model.CandidateProduct{
		{ID: "1", Name: "Кеды"},
		{ID: "2", Name: "Рубашка"},
	}
	_ = r.Rank(item, model.BudgetRange{}, candidates)

	assert.Equal(t, "1", candidates[0].ID, "input order must not change")
	assert.Equal(t, "2", candidates[1].ID)
}

func TestNameOverlap_StopsShortTokens(t *testing.T) {
	// Short connective tokens must not dilute the overlap fraction.
	assert.Equal(t, 1.0, nameOverlap("Пальто из шерсти", "Пальто шерстяное из новой коллекции шерсти"))
}

func TestParseBudgetRange(t *testing.T) {
	cases := []struct {
		in       string
		min, max float64
	}{
		{"3000-15000", 3000, 15000},
		{"до 5000", 0, 5000},
		{"5000", 0, 5000},
		{"3 000-15 000", 3000, 15000},
		{"", 0, 0},
		{"дорого", 0, 0},
	}
	for _, tc := range cases {
		got := model.ParseBudgetRange(tc.in)
		assert.Equal(t, tc.min, got.Min, tc.in)
		assert.Equal(t, tc.max, got.Max, tc.in)
	}
}

func TestBudgetContains(t *testing.T) {
	b := model.ParseBudgetRange("1000-2000")
	assert.True(t, b.Contains(1500))
	assert.False(t, b.Contains(500))
	assert.False(t, b.Contains(2500))
	assert.True(t, model.BudgetRange{}.Contains(999999))
}
