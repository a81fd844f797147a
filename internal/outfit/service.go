package outfit

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
	"github.com/looksy-group/stylist-api/internal/resolver"
	"github.com/looksy-group/stylist-api/internal/scorer"
	"github.com/looksy-group/stylist-api/pkg/gigachat"
)

// ProductSearcher is the resolver surface the service needs; *resolver.Multi
// satisfies it.
type ProductSearcher interface {
	Search(ctx context.Context, q resolver.Query) []model.CandidateProduct
}

// Service runs the full generation pipeline: chat call, parse, per-item
// product search, ranking. Every failure downgrades to synthetic data; the
// service itself never returns an error for generation.
type Service struct {
	chat     gigachat.Client
	products ProductSearcher
	ranker   *scorer.Ranker
	parser   *Parser
	library  *Library

	maxPerItem    int
	maxConcurrent int
	rand          *rand.Rand
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRand pins the randomness used for synthetic fallbacks.
func WithRand(r *rand.Rand) ServiceOption {
	return func(s *Service) {
		s.rand = r
	}
}

// NewService wires the pipeline.
func NewService(chat gigachat.Client, products ProductSearcher, ranker *scorer.Ranker, cfg config.Config, opts ...ServiceOption) *Service {
	library := NewLibrary()
	s := &Service{
		chat:          chat,
		products:      products,
		ranker:        ranker,
		parser:        NewParser(library),
		library:       library,
		maxPerItem:    cfg.Resolver.MaxPerItem,
		maxConcurrent: cfg.Search.MaxConcurrentItems,
	}
	if s.maxPerItem <= 0 {
		s.maxPerItem = 6
	}
	if s.maxConcurrent <= 0 {
		s.maxConcurrent = 4
	}
	for _, o := range opts {
		o(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// GenerateOutfit asks the chat provider for an outfit and parses the reply.
// Chat-level failures (auth degraded, network, provider errors) drop to the
// template library instead of surfacing.
func (s *Service) GenerateOutfit(ctx context.Context, req model.OutfitRequest) model.GeneratedOutfit {
	text, err := s.chat.GenerateText(ctx, systemPrompt+"\n\n"+buildPrompt(req), gigachat.GenerateOptions{})
	if err != nil {
		zap.L().Warn("outfit: chat call failed, using template fallback",
			zap.Error(err),
			zap.String("style", req.Style),
			zap.String("occasion", req.Occasion),
		)
		return s.library.Build(req)
	}
	return s.parser.Parse(text, req)
}

// SearchProducts resolves and ranks marketplace products for every item of
// an outfit. Item searches are independent and run concurrently with a
// bounded fan-out. Every slot comes back with at least one product.
func (s *Service) SearchProducts(ctx context.Context, outfit model.GeneratedOutfit, req model.OutfitRequest) []model.ItemProducts {
	budget := model.ParseBudgetRange(req.BudgetRange)
	results := make([]model.ItemProducts, len(outfit.Items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, item := range outfit.Items {
		g.Go(func() error {
			results[i] = s.searchItem(gCtx, item, req, budget)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) searchItem(ctx context.Context, item model.OutfitItemSpec, req model.OutfitRequest, budget model.BudgetRange) model.ItemProducts {
	itemBudget := budget
	if b := model.ParseBudgetRange(item.Price); b.Max > 0 {
		itemBudget = b
	}

	q := resolver.Query{
		Item:     item,
		Gender:   req.Gender,
		Occasion: req.Occasion,
		Season:   req.Season,
		Budget:   itemBudget,
		Limit:    s.maxPerItem * 3, // over-fetch, the ranker prunes
	}

	candidates := s.products.Search(ctx, q)
	ranked := s.ranker.Rank(item, itemBudget, candidates)
	if len(ranked) > s.maxPerItem {
		ranked = ranked[:s.maxPerItem]
	}

	// The ladder: ranked results, else unranked candidates, else synthetic.
	if len(ranked) == 0 && len(candidates) > 0 {
		zap.L().Debug("outfit: no candidate passed relevance filter, keeping raw results",
			zap.String("item", item.Name),
			zap.Int("candidates", len(candidates)),
		)
		ranked = s.unranked(candidates)
	}
	if len(ranked) == 0 {
		ranked = s.syntheticProducts(ctx, q)
	}

	return model.ItemProducts{Item: item, Products: ranked}
}

func (s *Service) unranked(candidates []model.CandidateProduct) []model.ScoredProduct {
	n := len(candidates)
	if n > s.maxPerItem {
		n = s.maxPerItem
	}
	out := make([]model.ScoredProduct, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, model.ScoredProduct{
			CandidateProduct: c,
			RelevanceScore:   s.ranker.MinScore(),
			MatchReason:      "низкая релевантность, показан как есть",
		})
	}
	return out
}

// syntheticProducts is the terminal rung: reachable only when no marketplace
// chain is configured at all, since chains end in their own synthetic tier.
func (s *Service) syntheticProducts(ctx context.Context, q resolver.Query) []model.ScoredProduct {
	tier := resolver.NewSyntheticTier(model.MarketplaceWildberries, s.rand)
	products, _ := tier.Search(ctx, q)

	out := make([]model.ScoredProduct, 0, len(products))
	for _, p := range products {
		out = append(out, model.ScoredProduct{
			CandidateProduct: p,
			RelevanceScore:   s.ranker.MinScore(),
			MatchReason:      "подобрано по запросу",
		})
	}
	return out
}
