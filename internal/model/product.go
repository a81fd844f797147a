package model

import (
	"strconv"
	"strings"
)

// Marketplace identifies a known e-commerce site.
type Marketplace string

const (
	MarketplaceWildberries Marketplace = "wildberries"
	MarketplaceOzon        Marketplace = "ozon"
)

// CandidateProduct is one marketplace search result, normalized from the
// provider-specific shape. Created per search call, never persisted.
type CandidateProduct struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Price         float64     `json:"price"`
	OriginalPrice float64     `json:"original_price,omitempty"`
	Discount      int         `json:"discount,omitempty"` // percent
	Rating        float64     `json:"rating"`
	Reviews       int         `json:"reviews"`
	ImageURL      string      `json:"image_url,omitempty"`
	PurchaseURL   string      `json:"purchase_url"`
	Marketplace   Marketplace `json:"marketplace"`
	Colors        []string    `json:"colors,omitempty"`
	Sizes         []string    `json:"sizes,omitempty"`
	Synthetic     bool        `json:"synthetic,omitempty"` // fallback-ladder product, not a live result
}

// ScoredProduct is a CandidateProduct with its relevance against the
// requested item.
type ScoredProduct struct {
	CandidateProduct
	RelevanceScore float64 `json:"relevance_score"`
	MatchReason    string  `json:"match_reason,omitempty"`
}

// ItemProducts pairs one requested outfit slot with its ranked matches.
type ItemProducts struct {
	Item     OutfitItemSpec  `json:"item"`
	Products []ScoredProduct `json:"products"`
}

// BudgetRange is a parsed "min-max" price range in whole currency units.
type BudgetRange struct {
	Min float64
	Max float64
}

// Contains reports whether price falls inside the range. A zero range
// contains everything.
func (b BudgetRange) Contains(price float64) bool {
	if b.Min == 0 && b.Max == 0 {
		return true
	}
	if b.Max == 0 {
		return price >= b.Min
	}
	return price >= b.Min && price <= b.Max
}

// ParseBudgetRange parses free-text ranges like "3000-15000", "до 5000" or
// "5000". Unparseable input yields the zero range.
func ParseBudgetRange(s string) BudgetRange {
	s = strings.TrimSpace(s)
	if s == "" {
		return BudgetRange{}
	}
	s = strings.NewReplacer("₽", "", "руб", "", ".", "", " ", "").Replace(s)
	if rest, ok := strings.CutPrefix(s, "до"); ok {
		max, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return BudgetRange{}
		}
		return BudgetRange{Max: max}
	}
	if min, max, ok := strings.Cut(s, "-"); ok {
		lo, errLo := strconv.ParseFloat(min, 64)
		hi, errHi := strconv.ParseFloat(max, 64)
		if errLo != nil || errHi != nil {
			return BudgetRange{}
		}
		return BudgetRange{Min: lo, Max: hi}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return BudgetRange{}
	}
	return BudgetRange{Max: v}
}
