package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksy-group/stylist-api/internal/model"
)

func ozonComposerFixture(t *testing.T) []byte {
	t.Helper()

	// Widget states arrive as JSON strings inside the outer document.
	state := map[string]any{
		"items": []map[string]any{
			{
				"sku":    987654321,
				"link":   "/product/rubashka-lnyanaya-belaya-987654321/",
				"images": []string{"https://cdn1.ozone.ru/s3/multimedia/987654321.jpg"},
				"mainState": []map[string]any{
					{
						"type": "atom",
						"atom": map[string]any{
							"type":     "textAtom",
							"textAtom": map[string]any{"text": "Рубашка льняная белая свободного кроя"},
						},
					},
					{
						"type": "atom",
						"atom": map[string]any{
							"type": "price",
							"price": map[string]any{
								"price":         "2 499 ₽",
								"originalPrice": "3 999 ₽",
							},
						},
					},
				},
			},
		},
	}
	encoded, err := json.Marshal(state)
	require.NoError(t, err)

	doc, err := json.Marshal(map[string]any{
		"widgetStates": map[string]string{
			"searchResultsV2-3741928-default-1": string(encoded),
			"megaPaginator-12345-default-1":     `{"page":1}`,
		},
	})
	require.NoError(t, err)
	return doc
}

func TestOzonComposerTier_ParsesWidgetStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/composer-api.bx/page/json/v2", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["url"], "/search/?text=")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(ozonComposerFixture(t))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewOzonTiers(f, norm, OzonOptions{APIBaseURL: srv.URL, SiteBaseURL: "https://www.ozon.ru"})[0]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, "987654321", p.ID)
	assert.Equal(t, "Рубашка льняная белая свободного кроя", p.Name)
	assert.Equal(t, 2499.0, p.Price)
	assert.Equal(t, 3999.0, p.OriginalPrice)
	assert.Equal(t, 38, p.Discount)
	assert.Equal(t, "https://www.ozon.ru/product/rubashka-lnyanaya-belaya-987654321/", p.PurchaseURL)
	assert.Equal(t, "https://cdn1.ozone.ru/s3/multimedia/987654321.jpg", p.ImageURL)
	assert.Equal(t, model.MarketplaceOzon, p.Marketplace)
}

func TestOzonComposerTier_IgnoresUnrelatedWidgets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"widgetStates":{"megaPaginator-1":"{\"page\":1}"}}`))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewOzonTiers(f, norm, OzonOptions{APIBaseURL: srv.URL})[0]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOzonHTMLTier_ScrapesProductLinks(t *testing.T) {
	page := `<html><body>
<a href="/product/rubashka-lnyanaya-belaya-1111111/" class="tile">x</a>
<a href="/product/rubashka-lnyanaya-belaya-1111111/" class="tile">dup</a>
<a href="/product/bryuki-lnyanye-2222222/" class="tile">y</a>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/", r.URL.Path)
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f, norm := newTestFetcher(t)
	tier := NewOzonTiers(f, norm, OzonOptions{SiteBaseURL: srv.URL})[1]

	got, err := tier.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, got, 2, "duplicate links collapse to one product")

	assert.Equal(t, "1111111", got[0].ID)
	assert.Equal(t, "rubashka lnyanaya belaya", got[0].Name)
	assert.Equal(t, srv.URL+"/product/rubashka-lnyanaya-belaya-1111111/", got[0].PurchaseURL)
	assert.Equal(t, "2222222", got[1].ID)
}

func TestParseRubPrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2 499 ₽", 2499},
		{"3 999 ₽", 3999},
		{"1299", 1299},
		{"", 0},
		{"от 500 ₽", 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseRubPrice(tc.in), "input %q", tc.in)
	}
}

func TestNameFromSlug(t *testing.T) {
	assert.Equal(t, "rubashka lnyanaya belaya", nameFromSlug("/product/rubashka-lnyanaya-belaya-987654321/"))
	assert.Equal(t, "x", nameFromSlug("/product/x-1/"))
}
