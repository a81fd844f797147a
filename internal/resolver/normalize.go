package resolver

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/looksy-group/stylist-api/internal/model"
)

// normalizer fills fields the providers frequently omit. The UI always
// renders rating/reviews/colors/sizes, so absent values become plausible
// synthetic ones rather than zero values.
type normalizer struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func newNormalizer(r *rand.Rand) *normalizer {
	return &normalizer{rand: r}
}

// kopecksToRubles converts the minor-unit price fields some endpoints use
// (e.g. Wildberries priceU).
func kopecksToRubles(v int64) float64 {
	return float64(v) / 100
}

// Fill defaults the absent fields of p in place and returns it.
func (n *normalizer) Fill(p model.CandidateProduct, q Query) model.CandidateProduct {
	n.mu.Lock()
	defer n.mu.Unlock()

	if p.Rating == 0 {
		p.Rating = 3.8 + n.rand.Float64()*1.1 // 3.8..4.9
		p.Rating = math.Round(p.Rating*10) / 10
	}
	if p.Reviews == 0 {
		p.Reviews = 10 + n.rand.IntN(1990)
	}
	if len(p.Colors) == 0 && len(q.Item.Colors) > 0 {
		p.Colors = append([]string(nil), q.Item.Colors...)
	}
	if len(p.Sizes) == 0 {
		p.Sizes = defaultSizes(q.Item.Category)
	}
	if p.OriginalPrice > p.Price && p.Price > 0 {
		p.Discount = int(math.Round((1 - p.Price/p.OriginalPrice) * 100))
	}
	return p
}

func defaultSizes(category string) []string {
	if strings.EqualFold(category, "footwear") {
		return []string{"36", "37", "38", "39", "40", "41", "42", "43"}
	}
	return []string{"XS", "S", "M", "L", "XL"}
}

// searchPageURL is the human-facing search URL for a marketplace. Synthetic
// fallback products deep-link here so the user can still search manually.
func searchPageURL(m model.Marketplace, query string) string {
	escaped := strings.ReplaceAll(strings.TrimSpace(query), " ", "+")
	switch m {
	case model.MarketplaceWildberries:
		return "https://www.wildberries.ru/catalog/0/search.aspx?search=" + escaped
	case model.MarketplaceOzon:
		return "https://www.ozon.ru/search/?text=" + escaped
	default:
		return fmt.Sprintf("https://%s/search?q=%s", m, escaped)
	}
}
