// Package resolver finds marketplace products for requested outfit items.
// Each marketplace exposes several query strategies ("tiers") of decreasing
// fidelity; a chain tries them in priority order and treats every failure
// as "no results, try the next one".
package resolver

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/looksy-group/stylist-api/internal/model"
)

// Query is one product search: the requested item plus outfit-level context.
type Query struct {
	Item     model.OutfitItemSpec
	Gender   model.Gender
	Occasion string
	Season   string
	Budget   model.BudgetRange
	Limit    int
}

// Text builds the free-text query string: item name + category + colors +
// translated style/occasion/gender keywords. Inherently approximate; the
// scorer filters irrelevant hits downstream.
func (q Query) Text() string {
	parts := make([]string, 0, 8)
	if q.Item.Name != "" {
		parts = append(parts, q.Item.Name)
	}
	if kw := categoryQueryWord(q.Item.Category); kw != "" && !strings.Contains(strings.ToLower(q.Item.Name), kw) {
		parts = append(parts, kw)
	}
	parts = append(parts, q.Item.Colors...)
	if kw := translateKeyword(q.Item.Style); kw != "" {
		parts = append(parts, kw)
	}
	if kw := translateKeyword(q.Occasion); kw != "" {
		parts = append(parts, kw)
	}
	if kw := genderQueryWord(q.Gender); kw != "" {
		parts = append(parts, kw)
	}
	return strings.Join(parts, " ")
}

// Tier is one specific network strategy (API shape + host) for a marketplace.
type Tier interface {
	Name() string
	Marketplace() model.Marketplace
	Search(ctx context.Context, q Query) ([]model.CandidateProduct, error)
}

// Chain tries a marketplace's tiers in priority order. The first tier that
// returns a non-empty result wins; errors and empty results both fall
// through to the next tier.
type Chain struct {
	marketplace model.Marketplace
	tiers       []Tier
	tierTimeout time.Duration
	limiter     *rate.Limiter
	cache       *productCache
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithTierTimeout bounds each tier attempt.
func WithTierTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.tierTimeout = d
	}
}

// WithRateLimit spaces requests to the marketplace's hosts.
func WithRateLimit(rps float64) ChainOption {
	return func(c *Chain) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithCache enables the short-TTL per-session result cache.
func WithCache(cache *productCache) ChainOption {
	return func(c *Chain) {
		c.cache = cache
	}
}

// NewChain creates a Chain over the given tiers, in priority order.
func NewChain(marketplace model.Marketplace, tiers []Tier, opts ...ChainOption) *Chain {
	c := &Chain{
		marketplace: marketplace,
		tiers:       tiers,
		tierTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Marketplace returns the marketplace this chain queries.
func (c *Chain) Marketplace() model.Marketplace {
	return c.marketplace
}

// Search runs the tier cascade for one query. It never returns an error:
// when every tier fails or comes back empty, the result is an empty slice
// and the caller's fallback ladder takes over.
func (c *Chain) Search(ctx context.Context, q Query) []model.CandidateProduct {
	queryText := q.Text()

	if c.cache != nil {
		if products, ok := c.cache.Get(ctx, c.marketplace, queryText); ok {
			zap.L().Debug("resolver: cache hit",
				zap.String("marketplace", string(c.marketplace)),
				zap.String("query", queryText),
			)
			return products
		}
	}

	for _, tier := range c.tiers {
		products := c.attempt(ctx, tier, q)
		if len(products) == 0 {
			continue
		}

		zap.L().Info("resolver: tier succeeded",
			zap.String("marketplace", string(c.marketplace)),
			zap.String("tier", tier.Name()),
			zap.String("query", queryText),
			zap.Int("products", len(products)),
		)
		if c.cache != nil {
			c.cache.Set(ctx, c.marketplace, queryText, products)
		}
		return products
	}

	zap.L().Warn("resolver: all tiers exhausted",
		zap.String("marketplace", string(c.marketplace)),
		zap.String("query", queryText),
	)
	return nil
}

// attempt runs one tier with its own timeout; a thrown error or timeout is
// "no results", never fatal.
func (c *Chain) attempt(ctx context.Context, tier Tier, q Query) []model.CandidateProduct {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil
		}
	}

	tierCtx, cancel := context.WithTimeout(ctx, c.tierTimeout)
	defer cancel()

	products, err := tier.Search(tierCtx, q)
	if err != nil {
		zap.L().Debug("resolver: tier failed, trying next",
			zap.String("marketplace", string(c.marketplace)),
			zap.String("tier", tier.Name()),
			zap.Error(err),
		)
		return nil
	}
	return products
}

// Multi fans one query out across all enabled marketplaces.
type Multi struct {
	chains []*Chain
}

// NewMulti groups per-marketplace chains.
func NewMulti(chains ...*Chain) *Multi {
	return &Multi{chains: chains}
}

// Search queries every marketplace concurrently and merges the results.
// Marketplaces share no mutable state, so the fan-out is safe.
func (m *Multi) Search(ctx context.Context, q Query) []model.CandidateProduct {
	results := make([][]model.CandidateProduct, len(m.chains))

	g, gCtx := errgroup.WithContext(ctx)
	for i, chain := range m.chains {
		g.Go(func() error {
			results[i] = chain.Search(gCtx, q)
			return nil
		})
	}
	_ = g.Wait()

	var merged []model.CandidateProduct
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
