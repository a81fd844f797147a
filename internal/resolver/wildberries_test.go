package resolver

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksy-group/stylist-api/internal/model"
)

func newTestFetcher(t *testing.T) (*fetcher, *normalizer) {
	t.Helper()
	r := rand.New(rand.NewPCG(5, 6))
	return newFetcher(&http.Client{}, newHeaderSource(r)), newNormalizer(r)
}

const wbSearchFixture = `{
  "data": {
    "products": [
      {
        "id": 141592653,
        "name": "Рубашка льняная оверсайз",
        "brand": "LookLab",
        "priceU": 459900,
        "salePriceU": 249900,
        "sale": 46,
        "rating": 4.8,
        "feedbacks": 1250,
        "colors": [{"name": "белый"}],
        "sizes": [{"name": "M"}, {"name": "L"}]
      },
      {
        "id": 271828182,
        "name": "Рубашка из льна",
        "brand": "",
        "priceU": 319900,
        "salePriceU": 0,
        "rating": 0,
        "feedbacks": 0
      }
    ]
  }
}`

func TestWBSearchTier_ParsesAndConvertsKopecks(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/exactmatch/ru/common/v5/search")
		assert.Equal(t, "popular", r.URL.Query().Get("sort"))
		assert.Equal(t, "rub", r.URL.Query().Get("curr"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Referer"))
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(wbSearchFixture))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{SearchBaseURL: srv.URL})[0]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Contains(t, gotQuery, "Льняная рубашка")

	first := got[0]
	assert.Equal(t, "141592653", first.ID)
	assert.Equal(t, "LookLab / Рубашка льняная оверсайз", first.Name)
	assert.Equal(t, 2499.0, first.Price, "salePriceU is in kopecks")
	assert.Equal(t, 4599.0, first.OriginalPrice)
	assert.Equal(t, 46, first.Discount)
	assert.Equal(t, 4.8, first.Rating)
	assert.Equal(t, 1250, first.Reviews)
	assert.Equal(t, []string{"белый"}, first.Colors)
	assert.Equal(t, []string{"M", "L"}, first.Sizes)
	assert.Equal(t, model.MarketplaceWildberries, first.Marketplace)
	assert.Contains(t, first.PurchaseURL, "/catalog/141592653/detail.aspx")
	assert.False(t, first.Synthetic)

	// Absent fields get plausible defaults, not zeros.
	second := got[1]
	assert.Equal(t, 3199.0, second.Price, "missing sale price falls back to priceU")
	assert.GreaterOrEqual(t, second.Rating, 3.8)
	assert.Positive(t, second.Reviews)
}

func TestWBSearchTier_RespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wbSearchFixture))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{SearchBaseURL: srv.URL})[0]

	q := testQuery()
	q.Limit = 1
	got, err := tier.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWBSearchTier_HTTPErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{SearchBaseURL: srv.URL})[0]

	_, err := tier.Search(context.Background(), testQuery())
	require.Error(t, err)
}

func TestWBMobileTier_PostsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["query"], "рубашка")

		_, _ = w.Write([]byte(`{"products":[{"id":42,"name":"Рубашка","priceU":199900,"salePriceU":149900}]}`))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{MobileBaseURL: srv.URL})[1]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].ID)
	assert.Equal(t, 1499.0, got[0].Price)
}

func TestWBCategoryTier_UnmappedCategorySkips(t *testing.T) {
	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{})[3]

	q := testQuery()
	q.Item.Category = "gadgets"
	got, err := tier.Search(context.Background(), q)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWBHTMLTier_ExtractsStateBlob(t *testing.T) {
	page := `<!doctype html><html><head><script>
window.__INITIAL_STATE__ = {"search":{"results":{"products":[
  {"id":314159,"name":"Рубашка белая лён","priceU":299900,"salePriceU":259900,"rating":4.6,"feedbacks":320}
]}}};
</script></head><body></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{SiteBaseURL: srv.URL})[4]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "314159", got[0].ID)
	assert.Equal(t, "Рубашка белая лён", got[0].Name)
	assert.Equal(t, 2599.0, got[0].Price)
}

func TestWBHTMLTier_FallsBackToCardRegexes(t *testing.T) {
	page := `<html><body>
<div class="product-card" data-nm-id="777001">
  <img src="https://images.example.com/777001.webp">
  <span class="product-card__name">Льняная рубашка прямого кроя</span>
  <ins class="price__lower-price">2 890</ins>
</div>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewWildberriesTiers(f, norm, WBOptions{SiteBaseURL: srv.URL})[4]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "777001", got[0].ID)
	assert.Equal(t, "Льняная рубашка прямого кроя", got[0].Name)
	assert.Equal(t, 2890.0, got[0].Price)
	assert.Equal(t, "https://images.example.com/777001.webp", got[0].ImageURL)
}

func TestExtractStateBlob_BalancesBracesInsideStrings(t *testing.T) {
	page := `window.__INITIAL_STATE__ = {"a":"literal } brace","b":{"c":1}};rest`

	blob, ok := extractStateBlob(page, "__INITIAL_STATE__")
	require.True(t, ok)
	assert.Equal(t, `{"a":"literal } brace","b":{"c":1}}`, blob)
	assert.True(t, json.Valid([]byte(blob)))
}

func TestExtractStateBlob_MissingGlobal(t *testing.T) {
	_, ok := extractStateBlob("<html></html>", "__INITIAL_STATE__", "__NUXT__")
	assert.False(t, ok)
}
