package resolver

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/rotisserie/eris"

	"github.com/looksy-group/stylist-api/internal/model"
)

// productCache memoizes per-marketplace search results so repeated outfit
// requests within the TTL skip the tier cascade entirely.
type productCache struct {
	cache *cache.Cache[[]model.CandidateProduct]
	ttl   time.Duration
}

// NewProductCache builds an in-memory TTL cache sized for a single process.
func NewProductCache(ttl time.Duration) (*productCache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, eris.Wrap(err, "resolver: init product cache")
	}

	st := ristretto_store.NewRistretto(inner, store.WithExpiration(ttl))
	return &productCache{
		cache: cache.New[[]model.CandidateProduct](st),
		ttl:   ttl,
	}, nil
}

func cacheKey(marketplace model.Marketplace, query string) string {
	return string(marketplace) + "|" + query
}

func (c *productCache) Get(ctx context.Context, marketplace model.Marketplace, query string) ([]model.CandidateProduct, bool) {
	if c == nil {
		return nil, false
	}
	products, err := c.cache.Get(ctx, cacheKey(marketplace, query))
	if err != nil || len(products) == 0 {
		return nil, false
	}
	return products, true
}

func (c *productCache) Set(ctx context.Context, marketplace model.Marketplace, query string, products []model.CandidateProduct) {
	if c == nil || len(products) == 0 {
		return
	}
	// Ristretto sets are best-effort; a dropped entry just means a re-fetch.
	_ = c.cache.Set(ctx, cacheKey(marketplace, query), products,
		store.WithCost(1), store.WithExpiration(c.ttl))
}
