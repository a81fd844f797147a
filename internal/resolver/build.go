package resolver

import (
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
)

// Build wires the full multi-marketplace resolver from configuration. The
// rand source is shared across header rotation, default filling and the
// synthetic tiers so tests can pin it.
func Build(cfg config.ResolverConfig, httpClient *http.Client, r *rand.Rand) (*Multi, error) {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	f := newFetcher(httpClient, newHeaderSource(r))
	norm := newNormalizer(r)

	var cache *productCache
	if cfg.CacheTTLMinutes > 0 {
		var err error
		cache, err = NewProductCache(time.Duration(cfg.CacheTTLMinutes) * time.Minute)
		if err != nil {
			return nil, err
		}
	}

	opts := []ChainOption{
		WithRateLimit(cfg.RequestsPerSec),
		WithCache(cache),
	}
	if cfg.TierTimeoutSecs > 0 {
		opts = append(opts, WithTierTimeout(time.Duration(cfg.TierTimeoutSecs)*time.Second))
	}

	var chains []*Chain
	for _, name := range cfg.Marketplaces {
		switch model.Marketplace(name) {
		case model.MarketplaceWildberries:
			tiers := NewWildberriesTiers(f, norm, WBOptions{
				Locale:   cfg.Locale,
				Currency: cfg.Currency,
			})
			tiers = append(tiers, NewSyntheticTier(model.MarketplaceWildberries, r))
			chains = append(chains, NewChain(model.MarketplaceWildberries, tiers, opts...))
		case model.MarketplaceOzon:
			tiers := NewOzonTiers(f, norm, OzonOptions{})
			tiers = append(tiers, NewSyntheticTier(model.MarketplaceOzon, r))
			chains = append(chains, NewChain(model.MarketplaceOzon, tiers, opts...))
		default:
			zap.L().Warn("resolver: unknown marketplace in config, skipping",
				zap.String("marketplace", name))
		}
	}
	return NewMulti(chains...), nil
}
