package resolver

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// extractStateBlob finds the first of the named globals assigned in an inline
// script (`window.__INITIAL_STATE__ = {…}`) and slices out the balanced JSON
// object that follows the `=`.
func extractStateBlob(page string, names ...string) (string, bool) {
	for _, name := range names {
		idx := strings.Index(page, name)
		if idx < 0 {
			continue
		}
		rest := page[idx+len(name):]
		eq := strings.Index(rest, "=")
		if eq < 0 || eq > 8 {
			continue
		}
		blob, ok := sliceBalancedObject(rest[eq+1:])
		if ok {
			return blob, true
		}
	}
	return "", false
}

// sliceBalancedObject returns the first {…} object in s with balanced braces,
// skipping braces inside string literals.
func sliceBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// wbProductsFromBlob pulls the products array out of a state blob without
// committing to the blob's full (and unstable) schema.
func wbProductsFromBlob(blob string) []wbProduct {
	idx := strings.Index(blob, `"products"`)
	if idx < 0 {
		return nil
	}
	rest := blob[idx+len(`"products"`):]
	open := strings.IndexByte(rest, '[')
	if open < 0 {
		return nil
	}
	arr, ok := sliceBalancedArray(rest[open:])
	if !ok {
		return nil
	}

	var records []wbProduct
	if err := json.Unmarshal([]byte(arr), &records); err != nil {
		return nil
	}
	return records
}

func sliceBalancedArray(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1], true
				}
			}
		}
	}
	return "", false
}

// productCard is a minimal record recovered from raw markup.
type productCard struct {
	ID       string
	Name     string
	Price    float64
	ImageURL string
}

var (
	cardIDRe    = regexp.MustCompile(`data-(?:nm|popup-nm|product)-id="(\d+)"`)
	cardNameRe  = regexp.MustCompile(`(?:class="product-card__name"[^>]*>|aria-label=")([^<"]{3,200})`)
	cardPriceRe = regexp.MustCompile(`(?:class="price__lower-price"[^>]*>|"price":)\s*([\d\s&nbsp;]+)`)
	cardImgRe   = regexp.MustCompile(`<img[^>]+src="(https://[^"]+\.(?:webp|jpg|jpeg|png))"`)
)

// extractProductCards scrapes card fragments out of the listing markup. It is
// intentionally loose: any card missing an id is dropped, everything else is
// defaulted downstream.
func extractProductCards(page string) []productCard {
	ids := cardIDRe.FindAllStringSubmatch(page, 30)
	names := cardNameRe.FindAllStringSubmatch(page, 30)
	prices := cardPriceRe.FindAllStringSubmatch(page, 30)
	imgs := cardImgRe.FindAllStringSubmatch(page, 30)

	cards := make([]productCard, 0, len(ids))
	for i, m := range ids {
		card := productCard{ID: m[1]}
		if i < len(names) {
			card.Name = strings.TrimSpace(html.UnescapeString(names[i][1]))
		}
		if i < len(prices) {
			card.Price = parseCardPrice(prices[i][1])
		}
		if i < len(imgs) {
			card.ImageURL = imgs[i][1]
		}
		cards = append(cards, card)
	}
	return cards
}

func parseCardPrice(raw string) float64 {
	cleaned := strings.NewReplacer(" ", "", " ", "", "&nbsp;", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
