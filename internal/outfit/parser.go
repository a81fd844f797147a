// Package outfit turns chat-model text into structured outfits and
// orchestrates product search for each outfit item.
package outfit

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/model"
	"github.com/looksy-group/stylist-api/internal/resilience"
)

// Confidence by how the outfit was recovered from the model's reply.
const (
	confidenceStrict    = 0.95
	confidenceRepaired  = 0.9
	confidenceExtracted = 0.85
	confidenceSynthetic = 0.7
)

// Field placeholders for values regex extraction could not recover.
const (
	defaultCategory  = "clothing"
	defaultPriceBand = "1000-3000"
	defaultColor     = "белый"
)

// Parser coerces free-form model output into a GeneratedOutfit. Chat models
// wrap JSON in markdown fences, single-quote array literals, drop closing
// braces on truncation; each attempt tolerates one more class of damage.
type Parser struct {
	templates *Library
}

// NewParser builds a Parser backed by the given template library for the
// terminal synthetic fallback.
func NewParser(templates *Library) *Parser {
	return &Parser{templates: templates}
}

// Parse never fails: when every recovery attempt is exhausted it returns a
// synthetic outfit from the template library. Confidence reflects how far
// down the cascade the result came from.
func (p *Parser) Parse(raw string, req model.OutfitRequest) model.GeneratedOutfit {
	candidate := extractCandidate(raw)

	if out, ok := parseStrict(candidate); ok {
		return p.finish(out, req, model.ParseSourceStrict, confidenceStrict)
	}

	if out, ok := parseStrict(repairText(candidate)); ok {
		zap.L().Debug("outfit: parsed after textual repair")
		return p.finish(out, req, model.ParseSourceRepaired, confidenceRepaired)
	}

	if out, ok := extractFields(candidate); ok {
		zap.L().Info("outfit: recovered fields by regex extraction")
		return p.finish(out, req, model.ParseSourceExtracted, confidenceExtracted)
	}

	zap.L().Warn("outfit: response unrecoverable, using synthetic outfit",
		zap.Error(&resilience.ParseError{Stage: "extraction", Err: errors.New("no items recovered")}),
		zap.Int("response_len", len(raw)),
	)
	return p.templates.Build(req)
}

// finish converts the raw payload into the public shape, defaulting anything
// the model left out.
func (p *Parser) finish(out rawOutfit, req model.OutfitRequest, source model.ParseSource, confidence float64) model.GeneratedOutfit {
	g := model.GeneratedOutfit{
		ID:           uuid.NewString(),
		Name:         out.Name,
		Description:  out.Description,
		Occasion:     firstNonEmpty(out.Occasion, req.Occasion),
		Season:       firstNonEmpty(out.Season, req.Season),
		TotalPrice:   string(out.TotalPrice),
		StyleNotes:   out.StyleNotes,
		ColorPalette: out.ColorPalette,
		Confidence:   confidence,
		ParseSource:  source,
	}
	if g.Name == "" {
		g.Name = p.templates.nameFor(req)
	}

	for _, it := range out.Items {
		item := model.OutfitItemSpec{
			Category:    strings.ToLower(strings.TrimSpace(it.Category)),
			Name:        strings.TrimSpace(it.Name),
			Description: it.Description,
			Colors:      it.Colors,
			Style:       it.Style,
			Fit:         it.Fit,
			Price:       string(it.Price),
		}
		if item.Name == "" {
			continue
		}
		if item.Category == "" {
			item.Category = defaultCategory
		}
		if item.Price == "" {
			item.Price = defaultPriceBand
		}
		if len(item.Colors) == 0 {
			item.Colors = []string{defaultColor}
		}
		g.Items = append(g.Items, item)
	}

	// A parse that produced zero usable items is a failed parse.
	if len(g.Items) == 0 {
		return p.templates.Build(req)
	}
	if len(g.ColorPalette) == 0 {
		g.ColorPalette = paletteFromItems(g.Items)
	}
	return g
}

// rawOutfit mirrors the prompt's JSON schema with malformation-tolerant
// field types.
type rawOutfit struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Occasion     string      `json:"occasion"`
	Season       string      `json:"season"`
	Items        []rawItem   `json:"items"`
	TotalPrice   flexString  `json:"totalPrice"`
	StyleNotes   string      `json:"styleNotes"`
	ColorPalette flexStrings `json:"colorPalette"`
}

type rawItem struct {
	Category    string      `json:"category"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Colors      flexStrings `json:"colors"`
	Style       string      `json:"style"`
	Fit         string      `json:"fit"`
	Price       flexString  `json:"price"`
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// flexStrings accepts an array of strings, a single string (optionally
// comma-separated), or an array of numbers.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, el := range arr {
			var v flexString
			if err := json.Unmarshal(el, &v); err != nil {
				return err
			}
			out = append(out, string(v))
		}
		*s = out
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	for _, part := range strings.Split(single, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// extractCandidate slices the JSON-looking region out of the full reply:
// fenced block first, else first `{` through last `}`.
func extractCandidate(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func parseStrict(candidate string) (rawOutfit, bool) {
	var out rawOutfit
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return rawOutfit{}, false
	}
	return out, true
}

var (
	arrayLiteralRe  = regexp.MustCompile(`"(colors|colorPalette)"\s*:\s*\[[^\]]*\]`)
	doubleQuotePair = regexp.MustCompile(`""([^"\n]+)""`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// repairText applies the textual fixes for the malformations GigaChat-style
// models actually emit, in order of observed frequency.
func repairText(candidate string) string {
	// Single-quoted strings inside colors/colorPalette array literals.
	repaired := arrayLiteralRe.ReplaceAllStringFunc(candidate, func(lit string) string {
		return strings.ReplaceAll(lit, "'", `"`)
	})

	// Stray duplicated quotes around values: ""белый"" -> "белый".
	repaired = doubleQuotePair.ReplaceAllString(repaired, `"$1"`)

	// Unquoted object keys: {name: "x"} -> {"name": "x"}.
	repaired = unquotedKeyRe.ReplaceAllString(repaired, `$1"$2":`)

	// Trailing commas before a closing brace/bracket.
	repaired = trailingCommaRe.ReplaceAllString(repaired, `$1`)

	return closeTruncated(repaired)
}

// closeTruncated appends the closing brackets a cut-off response is missing.
func closeTruncated(s string) string {
	var stack []byte
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
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	// A reply cut mid-value often ends with a dangling comma.
	s = strings.TrimRight(s, ", \n\t")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

var (
	itemsArrayRe = regexp.MustCompile(`['"]?items['"]?\s*:\s*\[`)

	fieldRes = map[string]*regexp.Regexp{
		"name":        fieldRe("name"),
		"description": fieldRe("description"),
		"totalPrice":  fieldRe("totalPrice"),
		"styleNotes":  fieldRe("styleNotes"),
		"category":    fieldRe("category"),
		"style":       fieldRe("style"),
		"fit":         fieldRe("fit"),
		"price":       fieldRe("price"),
	}
	colorsListRe  = regexp.MustCompile(`['"]?colors['"]?\s*:\s*\[([^\]]*)\]`)
	paletteListRe = regexp.MustCompile(`['"]?colorPalette['"]?\s*:\s*\[([^\]]*)\]`)
	quotedValRe   = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

func fieldRe(name string) *regexp.Regexp {
	// Keys and values may be single- or double-quoted by this point;
	// Cyrillic values are the common case.
	return regexp.MustCompile(`['"]?` + name + `['"]?\s*:\s*['"]([^'"\n]+)['"]`)
}

// extractFields is the last resort before synthetic data: recover fields one
// by one from text that no longer parses as JSON at all.
func extractFields(candidate string) (rawOutfit, bool) {
	out := rawOutfit{
		Name:       extractField(candidate, "name"),
		StyleNotes: extractField(candidate, "styleNotes"),
		TotalPrice: flexString(extractField(candidate, "totalPrice")),
	}
	if m := paletteListRe.FindStringSubmatch(candidate); m != nil {
		out.ColorPalette = quotedValues(m[1])
	}

	itemsRegion := candidate
	if loc := itemsArrayRe.FindStringIndex(candidate); loc != nil {
		itemsRegion = candidate[loc[1]:]
		// The outfit-level description precedes the items array.
		out.Description = extractField(candidate[:loc[0]], "description")
	}

	for _, obj := range objectSlices(itemsRegion) {
		item := rawItem{
			Name:        extractField(obj, "name"),
			Category:    extractField(obj, "category"),
			Description: extractField(obj, "description"),
			Style:       extractField(obj, "style"),
			Fit:         extractField(obj, "fit"),
			Price:       flexString(extractField(obj, "price")),
		}
		if m := colorsListRe.FindStringSubmatch(obj); m != nil {
			item.Colors = quotedValues(m[1])
		}
		if item.Name != "" {
			out.Items = append(out.Items, item)
		}
	}
	return out, len(out.Items) > 0
}

func extractField(s, name string) string {
	if m := fieldRes[name].FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func quotedValues(list string) []string {
	var out []string
	for _, m := range quotedValRe.FindAllStringSubmatch(list, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// objectSlices returns every top-level {…} in s. Truncated responses drop
// closing braces, so a `{` that opens at depth 1 without a preceding `:`
// (i.e. not a nested value) is treated as the start of the next object.
func objectSlices(s string) []string {
	var objects []string
	depth := 0
	start := -1
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
		case '{':
			if inString {
				break
			}
			switch {
			case depth == 0:
				start = i
				depth = 1
			case depth == 1 && lastMeaningfulByte(s[:i]) != ':':
				objects = append(objects, s[start:i])
				start = i
			default:
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					objects = append(objects, s[start:i+1])
					start = -1
				}
			}
		}
	}
	// Truncated trailing object: still worth mining for fields.
	if start >= 0 {
		objects = append(objects, s[start:])
	}
	return objects
}

func lastMeaningfulByte(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func paletteFromItems(items []model.OutfitItemSpec) []string {
	seen := make(map[string]bool)
	var palette []string
	for _, it := range items {
		for _, c := range it.Colors {
			if !seen[c] {
				seen[c] = true
				palette = append(palette, c)
			}
		}
	}
	return palette
}
