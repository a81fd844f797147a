package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/looksy-group/stylist-api/internal/model"
)

// Wildberries endpoints. All of these are undocumented and drift without
// notice; every tier tolerates shape changes by defaulting and continuing.
const (
	wbSearchBaseURL  = "https://search.wb.ru"
	wbMobileBaseURL  = "https://mobile.wb.ru"
	wbCatalogBaseURL = "https://catalog.wb.ru"
	wbSiteBaseURL    = "https://www.wildberries.ru"
)

// WBOptions configures the Wildberries tier set.
type WBOptions struct {
	SearchBaseURL  string
	MobileBaseURL  string
	CatalogBaseURL string
	SiteBaseURL    string
	Locale         string
	Currency       string
}

func (o *WBOptions) applyDefaults() {
	if o.SearchBaseURL == "" {
		o.SearchBaseURL = wbSearchBaseURL
	}
	if o.MobileBaseURL == "" {
		o.MobileBaseURL = wbMobileBaseURL
	}
	if o.CatalogBaseURL == "" {
		o.CatalogBaseURL = wbCatalogBaseURL
	}
	if o.SiteBaseURL == "" {
		o.SiteBaseURL = wbSiteBaseURL
	}
	if o.Locale == "" {
		o.Locale = "ru"
	}
	if o.Currency == "" {
		o.Currency = "rub"
	}
}

// NewWildberriesTiers returns the Wildberries strategies in priority order:
// search API, mobile API, catalog query, category browse, HTML scrape.
func NewWildberriesTiers(f *fetcher, norm *normalizer, opts WBOptions) []Tier {
	opts.applyDefaults()
	return []Tier{
		&wbSearchTier{fetcher: f, norm: norm, opts: opts},
		&wbMobileTier{fetcher: f, norm: norm, opts: opts},
		&wbCatalogTier{fetcher: f, norm: norm, opts: opts},
		&wbCategoryTier{fetcher: f, norm: norm, opts: opts},
		&wbHTMLTier{fetcher: f, norm: norm, opts: opts},
	}
}

// wbProduct is the record shape shared by the WB JSON endpoints.
type wbProduct struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	PriceU     int64   `json:"priceU"`     // kopecks
	SalePriceU int64   `json:"salePriceU"` // kopecks
	Sale       int     `json:"sale"`       // percent
	Rating     float64 `json:"rating"`
	Feedbacks  int     `json:"feedbacks"`
	Colors     []struct {
		Name string `json:"name"`
	} `json:"colors"`
	Sizes []struct {
		Name string `json:"name"`
	} `json:"sizes"`
}

// wbSearchResponse covers both `{data:{products:[…]}}` and `{products:[…]}`.
type wbSearchResponse struct {
	Data struct {
		Products []wbProduct `json:"products"`
	} `json:"data"`
	Products []wbProduct `json:"products"`
}

func (r *wbSearchResponse) products() []wbProduct {
	if len(r.Data.Products) > 0 {
		return r.Data.Products
	}
	return r.Products
}

func (t *wbSearchTier) convert(records []wbProduct, q Query) []model.CandidateProduct {
	return convertWBProducts(t.norm, t.opts, records, q)
}

func convertWBProducts(norm *normalizer, opts WBOptions, records []wbProduct, q Query) []model.CandidateProduct {
	limit := q.Limit
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	products := make([]model.CandidateProduct, 0, limit)
	for _, rec := range records[:limit] {
		if rec.ID == 0 {
			continue
		}
		name := rec.Name
		if rec.Brand != "" && !strings.Contains(name, rec.Brand) {
			name = rec.Brand + " / " + name
		}

		p := model.CandidateProduct{
			ID:            strconv.FormatInt(rec.ID, 10),
			Name:          name,
			Price:         kopecksToRubles(rec.SalePriceU),
			OriginalPrice: kopecksToRubles(rec.PriceU),
			Discount:      rec.Sale,
			Rating:        rec.Rating,
			Reviews:       rec.Feedbacks,
			ImageURL:      wbImageURL(rec.ID),
			PurchaseURL:   fmt.Sprintf("%s/catalog/%d/detail.aspx", opts.SiteBaseURL, rec.ID),
			Marketplace:   model.MarketplaceWildberries,
		}
		if p.Price == 0 {
			p.Price = p.OriginalPrice
		}
		for _, c := range rec.Colors {
			p.Colors = append(p.Colors, c.Name)
		}
		for _, s := range rec.Sizes {
			p.Sizes = append(p.Sizes, s.Name)
		}
		products = append(products, norm.Fill(p, q))
	}
	return products
}

// wbImageURL reconstructs the basket CDN path from a product id.
func wbImageURL(id int64) string {
	vol := id / 100000
	part := id / 1000
	return fmt.Sprintf("https://basket-01.wbbasket.ru/vol%d/part%d/%d/images/c516x688/1.webp", vol, part, id)
}

// --- tier 1: primary search API ---

type wbSearchTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    WBOptions
}

func (t *wbSearchTier) Name() string                   { return "wb_search_api" }
func (t *wbSearchTier) Marketplace() model.Marketplace { return model.MarketplaceWildberries }

func (t *wbSearchTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	params := url.Values{
		"appType":   {"1"},
		"curr":      {t.opts.Currency},
		"locale":    {t.opts.Locale},
		"dest":      {"-1257786"},
		"sort":      {"popular"},
		"resultset": {"catalog"},
		"page":      {"1"},
		"spp":       {"30"},
		"query":     {q.Text()},
	}

	var resp wbSearchResponse
	err := t.fetcher.GetJSON(ctx, t.Name(),
		t.opts.SearchBaseURL+"/exactmatch/ru/common/v5/search?"+params.Encode(), &resp)
	if err != nil {
		return nil, err
	}
	return t.convert(resp.products(), q), nil
}

// --- tier 2: mobile API variant ---

type wbMobileTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    WBOptions
}

func (t *wbMobileTier) Name() string                   { return "wb_mobile_api" }
func (t *wbMobileTier) Marketplace() model.Marketplace { return model.MarketplaceWildberries }

func (t *wbMobileTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	payload := map[string]any{
		"query":    q.Text(),
		"page":     1,
		"limit":    30,
		"locale":   t.opts.Locale,
		"currency": t.opts.Currency,
	}

	var resp wbSearchResponse
	err := t.fetcher.PostJSON(ctx, t.Name(),
		t.opts.MobileBaseURL+"/api/v2/search", payload, &resp)
	if err != nil {
		return nil, err
	}
	return convertWBProducts(t.norm, t.opts, resp.products(), q), nil
}

// --- tier 3: catalog structured query on a second host ---

type wbCatalogTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    WBOptions
}

func (t *wbCatalogTier) Name() string                   { return "wb_catalog_query" }
func (t *wbCatalogTier) Marketplace() model.Marketplace { return model.MarketplaceWildberries }

func (t *wbCatalogTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	payload := map[string]any{
		"query": "query productSearch($text: String!) { products(search: $text, first: 30) { id name brand salePriceU priceU rating feedbacks } }",
		"variables": map[string]any{
			"text": q.Text(),
		},
	}

	var resp struct {
		Data struct {
			Products []wbProduct `json:"products"`
		} `json:"data"`
	}
	err := t.fetcher.PostJSON(ctx, t.Name(), t.opts.CatalogBaseURL+"/graphql", payload, &resp)
	if err != nil {
		return nil, err
	}
	return convertWBProducts(t.norm, t.opts, resp.Data.Products, q), nil
}

// --- tier 4: category browse fallback ---

// wbSubjectIDs maps slot categories to WB subject ids for category listing
// when free-text search yields nothing.
var wbSubjectIDs = map[string]int{
	"top":       192, // рубашки
	"bottom":    204, // брюки
	"footwear":  2808,
	"accessory": 1023,
	"outerwear": 161,
	"dress":     69,
}

type wbCategoryTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    WBOptions
}

func (t *wbCategoryTier) Name() string                   { return "wb_category_browse" }
func (t *wbCategoryTier) Marketplace() model.Marketplace { return model.MarketplaceWildberries }

func (t *wbCategoryTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	subject, ok := wbSubjectIDs[strings.ToLower(q.Item.Category)]
	if !ok {
		return nil, nil // no mapped category, nothing to browse
	}

	params := url.Values{
		"appType": {"1"},
		"curr":    {t.opts.Currency},
		"locale":  {t.opts.Locale},
		"dest":    {"-1257786"},
		"sort":    {"popular"},
		"subject": {strconv.Itoa(subject)},
		"page":    {"1"},
	}

	var resp wbSearchResponse
	err := t.fetcher.GetJSON(ctx, t.Name(),
		t.opts.CatalogBaseURL+"/catalog/subject/v2/catalog?"+params.Encode(), &resp)
	if err != nil {
		return nil, err
	}
	return convertWBProducts(t.norm, t.opts, resp.products(), q), nil
}

// --- tier 5: HTML scrape ---

type wbHTMLTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    WBOptions
}

func (t *wbHTMLTier) Name() string                   { return "wb_html_scrape" }
func (t *wbHTMLTier) Marketplace() model.Marketplace { return model.MarketplaceWildberries }

func (t *wbHTMLTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	page, err := t.fetcher.GetHTML(ctx, t.Name(),
		t.opts.SiteBaseURL+"/catalog/0/search.aspx?search="+url.QueryEscape(q.Text()))
	if err != nil {
		return nil, err
	}

	// Preferred: the embedded state blob carries the same records as the API.
	if blob, ok := extractStateBlob(page, "__INITIAL_STATE__", "__NUXT__", "__WB_STATE__"); ok {
		if records := wbProductsFromBlob(blob); len(records) > 0 {
			return convertWBProducts(t.norm, t.opts, records, q), nil
		}
	}

	// Last resort: product-card fragments.
	cards := extractProductCards(page)
	products := make([]model.CandidateProduct, 0, len(cards))
	for _, card := range cards {
		p := model.CandidateProduct{
			ID:          card.ID,
			Name:        card.Name,
			Price:       card.Price,
			ImageURL:    card.ImageURL,
			PurchaseURL: fmt.Sprintf("%s/catalog/%s/detail.aspx", t.opts.SiteBaseURL, card.ID),
			Marketplace: model.MarketplaceWildberries,
		}
		products = append(products, t.norm.Fill(p, q))
	}
	return products, nil
}
