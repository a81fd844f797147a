package resolver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/looksy-group/stylist-api/internal/model"
)

// syntheticTier never fails and never returns an empty slice. It sits at the
// bottom of a chain so every outfit slot ends up with at least something the
// user can click through to a real marketplace search.
type syntheticTier struct {
	marketplace model.Marketplace

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSyntheticTier returns the terminal fallback tier for a marketplace.
func NewSyntheticTier(marketplace model.Marketplace, r *rand.Rand) Tier {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &syntheticTier{marketplace: marketplace, rand: r}
}

func (t *syntheticTier) Name() string                   { return string(t.marketplace) + "_synthetic" }
func (t *syntheticTier) Marketplace() model.Marketplace { return t.marketplace }

var syntheticLabels = []string{"Рекомендуем", "Популярное"}

func (t *syntheticTier) Search(_ context.Context, q Query) ([]model.CandidateProduct, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 1 + t.rand.IntN(2)
	products := make([]model.CandidateProduct, 0, count)
	for i := 0; i < count && i < len(syntheticLabels); i++ {
		products = append(products, t.build(q, syntheticLabels[i]))
	}
	return products, nil
}

func (t *syntheticTier) build(q Query, label string) model.CandidateProduct {
	name := q.Item.Name
	if name == "" {
		name = categoryQueryWord(q.Item.Category)
	}

	price := t.syntheticPrice(q.Budget)
	original := price * (1 + 0.1*float64(1+t.rand.IntN(4)))

	p := model.CandidateProduct{
		ID:            "syn-" + uuid.NewString(),
		Name:          fmt.Sprintf("%s: %s", label, name),
		Price:         roundToTens(price),
		OriginalPrice: roundToTens(original),
		Rating:        4.0 + float64(t.rand.IntN(10))/10,
		Reviews:       50 + t.rand.IntN(950),
		PurchaseURL:   searchPageURL(t.marketplace, q.Text()),
		Marketplace:   t.marketplace,
		Colors:        append([]string(nil), q.Item.Colors...),
		Sizes:         defaultSizes(q.Item.Category),
		Synthetic:     true,
	}
	if p.OriginalPrice > p.Price {
		p.Discount = int((1 - p.Price/p.OriginalPrice) * 100)
	}
	return p
}

// syntheticPrice picks a price inside the requested budget, or a plausible
// mid-range value when no budget is given.
func (t *syntheticTier) syntheticPrice(budget model.BudgetRange) float64 {
	min, max := budget.Min, budget.Max
	if max <= 0 {
		min, max = 1000, 5000
	}
	if min <= 0 {
		min = max / 4
	}
	if min >= max {
		return min
	}
	return min + t.rand.Float64()*(max-min)
}

func roundToTens(v float64) float64 {
	return float64(int(v/10)) * 10
}
