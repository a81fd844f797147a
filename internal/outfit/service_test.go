package outfit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/model"
	"github.com/looksy-group/stylist-api/internal/resolver"
	"github.com/looksy-group/stylist-api/internal/scorer"
	"github.com/looksy-group/stylist-api/pkg/gigachat"
)

type stubChat struct {
	reply string
	err   error
	calls int
}

func (c *stubChat) ChatCompletion(_ context.Context, _ gigachat.ChatCompletionRequest) (*gigachat.ChatCompletionResponse, error) {
	panic("not used in tests")
}

func (c *stubChat) GenerateText(_ context.Context, _ string, _ gigachat.GenerateOptions) (string, error) {
	c.calls++
	return c.reply, c.err
}

type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]model.CandidateProduct
	queries []resolver.Query
}

func (s *stubSearcher) Search(_ context.Context, q resolver.Query) []model.CandidateProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.results[q.Item.Name]
}

func newTestService(chat gigachat.Client, products ProductSearcher) *Service {
	cfg := config.Config{}
	cfg.Scorer = config.ScorerConfig{
		CategoryWeight: 0.3, NameWeight: 0.4, ColorWeight: 0.2, StyleWeight: 0.1,
		MinScore: 0.3,
	}
	return NewService(chat, products, scorer.New(cfg.Scorer), cfg,
		WithRand(rand.New(rand.NewPCG(1, 2))))
}

func TestGenerateOutfit_ParsesChatReply(t *testing.T) {
	chat := &stubChat{reply: wellFormedReply}
	svc := newTestService(chat, &stubSearcher{})

	got := svc.GenerateOutfit(context.Background(), testRequest())

	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, model.ParseSourceStrict, got.ParseSource)
	assert.Equal(t, "Летний кэжуал", got.Name)
	require.Len(t, got.Items, 2)
}

func TestGenerateOutfit_ChatUnreachableFallsToTemplate(t *testing.T) {
	chat := &stubChat{err: errors.New("dial tcp: connection refused")}
	svc := newTestService(chat, &stubSearcher{})

	got := svc.GenerateOutfit(context.Background(), testRequest())

	assert.NotEmpty(t, got.Items)
	assert.LessOrEqual(t, got.Confidence, 0.8)
	assert.True(t, got.Fallback())
}

func TestGenerateOutfit_AuthDegradedFallsToTemplate(t *testing.T) {
	chat := &stubChat{err: gigachat.ErrAuthDegraded}
	svc := newTestService(chat, &stubSearcher{})

	got := svc.GenerateOutfit(context.Background(), testRequest())

	assert.NotEmpty(t, got.Items)
	assert.True(t, got.Fallback())
}

func outfitWithItems(items ...model.OutfitItemSpec) model.GeneratedOutfit {
	return model.GeneratedOutfit{ID: "o-1", Name: "Тест", Items: items}
}

func TestSearchProducts_RanksPerItem(t *testing.T) {
	shirt := model.OutfitItemSpec{Category: "top", Name: "Льняная рубашка", Colors: []string{"белый"}, Style: "casual"}
	searcher := &stubSearcher{results: map[string][]model.CandidateProduct{
		"Льняная рубашка": {
			{ID: "1", Name: "Рубашка льняная белая casual", Price: 2500, Rating: 4.5, Marketplace: model.MarketplaceWildberries},
			{ID: "2", Name: "Кроссовки беговые", Price: 4000, Rating: 4.9, Marketplace: model.MarketplaceWildberries},
		},
	}}
	svc := newTestService(&stubChat{}, searcher)

	got := svc.SearchProducts(context.Background(), outfitWithItems(shirt), testRequest())

	require.Len(t, got, 1)
	require.Len(t, got[0].Products, 1, "irrelevant candidate is filtered")
	assert.Equal(t, "1", got[0].Products[0].ID)
	assert.Greater(t, got[0].Products[0].RelevanceScore, 0.7)
}

func TestSearchProducts_EmptyResolverStillFillsSlot(t *testing.T) {
	item := model.OutfitItemSpec{Category: "top", Name: "Рубашка", Price: "1000-3000"}
	svc := newTestService(&stubChat{}, &stubSearcher{})

	got := svc.SearchProducts(context.Background(), outfitWithItems(item), testRequest())

	require.Len(t, got, 1)
	require.NotEmpty(t, got[0].Products, "a slot never comes back empty")
	for _, p := range got[0].Products {
		assert.True(t, p.Synthetic)
		assert.NotEmpty(t, p.PurchaseURL)
	}
}

func TestSearchProducts_LowRelevanceKeptWhenNothingPasses(t *testing.T) {
	item := model.OutfitItemSpec{Category: "top", Name: "Рубашка", Colors: []string{"белый"}}
	searcher := &stubSearcher{results: map[string][]model.CandidateProduct{
		"Рубашка": {
			{ID: "x", Name: "Чехол для телефона", Price: 300, Marketplace: model.MarketplaceOzon},
		},
	}}
	svc := newTestService(&stubChat{}, searcher)

	got := svc.SearchProducts(context.Background(), outfitWithItems(item), testRequest())

	require.Len(t, got, 1)
	require.Len(t, got[0].Products, 1)
	assert.Equal(t, "x", got[0].Products[0].ID, "raw results beat synthetic ones")
}

func TestSearchProducts_ItemPriceBandNarrowsBudget(t *testing.T) {
	item := model.OutfitItemSpec{Category: "top", Name: "Рубашка", Price: "2000-4000"}
	searcher := &stubSearcher{}
	svc := newTestService(&stubChat{}, searcher)

	req := testRequest()
	req.BudgetRange = "1000-50000"
	_ = svc.SearchProducts(context.Background(), outfitWithItems(item), req)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, model.BudgetRange{Min: 2000, Max: 4000}, searcher.queries[0].Budget)
}

func TestSearchProducts_AllItemsSearchedConcurrently(t *testing.T) {
	items := []model.OutfitItemSpec{
		{Category: "top", Name: "Рубашка"},
		{Category: "bottom", Name: "Брюки"},
		{Category: "footwear", Name: "Кеды"},
		{Category: "accessory", Name: "Ремень"},
		{Category: "outerwear", Name: "Пиджак"},
	}
	searcher := &stubSearcher{}
	svc := newTestService(&stubChat{}, searcher)

	got := svc.SearchProducts(context.Background(), outfitWithItems(items...), testRequest())

	require.Len(t, got, 5)
	for i, ip := range got {
		assert.Equal(t, items[i].Name, ip.Item.Name, "result order follows item order")
		assert.NotEmpty(t, ip.Products)
	}
	assert.Len(t, searcher.queries, 5)
}

func TestBuildPrompt_IncludesRequestAndSchema(t *testing.T) {
	req := model.OutfitRequest{
		Gender:      model.GenderFemale,
		Style:       "business",
		Occasion:    "работа",
		Season:      "осень",
		BudgetRange: "5000-20000",
		Colors:      []string{"черный", "бордовый"},
		HeightCm:    170,
		WeightKg:    60,
	}

	prompt := buildPrompt(req)

	assert.Contains(t, prompt, "женский")
	assert.Contains(t, prompt, "170 см")
	assert.Contains(t, prompt, "business")
	assert.Contains(t, prompt, "5000-20000")
	assert.Contains(t, prompt, "черный, бордовый")
	assert.Contains(t, prompt, `"colorPalette"`)
	assert.True(t, strings.Contains(prompt, `"items"`), "schema must name the items array")
}
