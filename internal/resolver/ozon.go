package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/looksy-group/stylist-api/internal/model"
)

const (
	ozonAPIBaseURL  = "https://api.ozon.ru"
	ozonSiteBaseURL = "https://www.ozon.ru"
)

// OzonOptions configures the Ozon tier set.
type OzonOptions struct {
	APIBaseURL  string
	SiteBaseURL string
}

func (o *OzonOptions) applyDefaults() {
	if o.APIBaseURL == "" {
		o.APIBaseURL = ozonAPIBaseURL
	}
	if o.SiteBaseURL == "" {
		o.SiteBaseURL = ozonSiteBaseURL
	}
}

// NewOzonTiers returns the Ozon strategies in priority order: composer API,
// then HTML scrape.
func NewOzonTiers(f *fetcher, norm *normalizer, opts OzonOptions) []Tier {
	opts.applyDefaults()
	return []Tier{
		&ozonComposerTier{fetcher: f, norm: norm, opts: opts},
		&ozonHTMLTier{fetcher: f, norm: norm, opts: opts},
	}
}

// --- tier 1: composer API ---

type ozonComposerTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    OzonOptions
}

func (t *ozonComposerTier) Name() string                   { return "ozon_composer_api" }
func (t *ozonComposerTier) Marketplace() model.Marketplace { return model.MarketplaceOzon }

// ozonItem is the per-product record inside a searchResultsV2 widget state.
type ozonItem struct {
	SKU    json.Number `json:"sku"`
	Link   string      `json:"link"`
	Images []string    `json:"images"`
	// mainState mixes titles, prices and labels as typed atoms.
	MainState []struct {
		Type string `json:"type"`
		Atom struct {
			Type     string `json:"type"`
			TextAtom *struct {
				Text string `json:"text"`
			} `json:"textAtom"`
			PriceAtom *struct {
				Price         string `json:"price"`
				OriginalPrice string `json:"originalPrice"`
			} `json:"price"`
			LabelList *struct {
				Items []struct {
					Title string `json:"title"`
				} `json:"items"`
			} `json:"labelList"`
		} `json:"atom"`
	} `json:"mainState"`
}

func (t *ozonComposerTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	payload := map[string]any{
		"url": "/search/?text=" + url.QueryEscape(q.Text()) + "&sorting=rating",
	}

	var resp struct {
		WidgetStates map[string]string `json:"widgetStates"`
	}
	err := t.fetcher.PostJSON(ctx, t.Name(),
		t.opts.APIBaseURL+"/composer-api.bx/page/json/v2", payload, &resp)
	if err != nil {
		return nil, err
	}

	var items []ozonItem
	for key, raw := range resp.WidgetStates {
		if !strings.HasPrefix(key, "searchResultsV2") {
			continue
		}
		var state struct {
			Items []ozonItem `json:"items"`
		}
		// Widget states are JSON-encoded strings inside the outer JSON.
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue
		}
		items = append(items, state.Items...)
	}
	return t.convert(items, q), nil
}

func (t *ozonComposerTier) convert(items []ozonItem, q Query) []model.CandidateProduct {
	limit := q.Limit
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	products := make([]model.CandidateProduct, 0, limit)
	for _, it := range items[:limit] {
		id := it.SKU.String()
		if id == "" || id == "0" {
			continue
		}

		p := model.CandidateProduct{
			ID:          id,
			PurchaseURL: t.opts.SiteBaseURL + it.Link,
			Marketplace: model.MarketplaceOzon,
		}
		if it.Link == "" {
			p.PurchaseURL = fmt.Sprintf("%s/product/%s/", t.opts.SiteBaseURL, id)
		}
		if len(it.Images) > 0 {
			p.ImageURL = it.Images[0]
		}
		for _, s := range it.MainState {
			switch {
			case s.Atom.TextAtom != nil && p.Name == "":
				p.Name = s.Atom.TextAtom.Text
			case s.Atom.PriceAtom != nil:
				p.Price = parseRubPrice(s.Atom.PriceAtom.Price)
				p.OriginalPrice = parseRubPrice(s.Atom.PriceAtom.OriginalPrice)
			}
		}
		if p.Name == "" {
			continue
		}
		products = append(products, t.norm.Fill(p, q))
	}
	return products
}

var rubPriceCleanRe = regexp.MustCompile(`[^\d,.]`)

// parseRubPrice parses display prices like "2 499 ₽".
func parseRubPrice(raw string) float64 {
	cleaned := rubPriceCleanRe.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0
	}
	var v float64
	if _, err := fmt.Sscanf(cleaned, "%f", &v); err != nil {
		return 0
	}
	return v
}

// --- tier 2: HTML scrape ---

type ozonHTMLTier struct {
	fetcher *fetcher
	norm    *normalizer
	opts    OzonOptions
}

func (t *ozonHTMLTier) Name() string                   { return "ozon_html_scrape" }
func (t *ozonHTMLTier) Marketplace() model.Marketplace { return model.MarketplaceOzon }

var ozonLinkRe = regexp.MustCompile(`href="(/product/[^"]+-(\d+)/)"[^>]*>`)

func (t *ozonHTMLTier) Search(ctx context.Context, q Query) ([]model.CandidateProduct, error) {
	page, err := t.fetcher.GetHTML(ctx, t.Name(),
		t.opts.SiteBaseURL+"/search/?text="+url.QueryEscape(q.Text()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var products []model.CandidateProduct
	for _, m := range ozonLinkRe.FindAllStringSubmatch(page, 60) {
		link, id := m[1], m[2]
		if seen[id] {
			continue
		}
		seen[id] = true

		p := model.CandidateProduct{
			ID:          id,
			Name:        nameFromSlug(link),
			PurchaseURL: t.opts.SiteBaseURL + link,
			Marketplace: model.MarketplaceOzon,
		}
		products = append(products, t.norm.Fill(p, q))
		if len(products) >= 20 {
			break
		}
	}
	return products, nil
}

// nameFromSlug recovers a readable name from a product URL slug:
// "/product/rubashka-lnyanaya-belaya-123/" -> "rubashka lnyanaya belaya".
func nameFromSlug(link string) string {
	slug := strings.Trim(strings.TrimPrefix(link, "/product/"), "/")
	if i := strings.LastIndex(slug, "-"); i > 0 {
		slug = slug[:i]
	}
	return strings.ReplaceAll(slug, "-", " ")
}
