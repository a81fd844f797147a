// Package model defines the shared domain types for outfit generation and
// product search.
package model

// Gender constrains generation prompts and marketplace queries.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderUnisex Gender = "unisex"
)

// ParseSource records which tier of the parse cascade produced an outfit.
type ParseSource string

const (
	ParseSourceStrict    ParseSource = "strict"    // clean JSON, parsed directly
	ParseSourceRepaired  ParseSource = "repaired"  // parsed after textual repairs
	ParseSourceExtracted ParseSource = "extracted" // field-level regex extraction
	ParseSourceSynthetic ParseSource = "synthetic" // template fallback, no model output used
)

// OutfitRequest carries the user attributes an outfit is generated for.
type OutfitRequest struct {
	Gender      Gender   `json:"gender"`
	Style       string   `json:"style"`
	Occasion    string   `json:"occasion"`
	Season      string   `json:"season"`
	BudgetRange string   `json:"budget_range,omitempty"` // e.g. "3000-15000"
	Colors      []string `json:"colors,omitempty"`
	HeightCm    int      `json:"height_cm,omitempty"`
	WeightKg    int      `json:"weight_kg,omitempty"`
}

// OutfitItemSpec is one clothing slot requested from the model. Immutable
// once parsed.
type OutfitItemSpec struct {
	Category    string   `json:"category"` // "top", "bottom", "footwear", "accessory"
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Style       string   `json:"style,omitempty"`
	Fit         string   `json:"fit,omitempty"`
	Price       string   `json:"price,omitempty"` // free-text range, e.g. "2000-5000"
}

// GeneratedOutfit is the aggregate produced by one generation request.
// Never mutated after creation.
type GeneratedOutfit struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Occasion     string           `json:"occasion,omitempty"`
	Season       string           `json:"season,omitempty"`
	Items        []OutfitItemSpec `json:"items"`
	TotalPrice   string           `json:"total_price,omitempty"`
	StyleNotes   string           `json:"style_notes,omitempty"`
	ColorPalette []string         `json:"color_palette,omitempty"`
	Confidence   float64          `json:"confidence"`
	ParseSource  ParseSource      `json:"parse_source"`
}

// Fallback reports whether the outfit was produced without usable model
// output. The UI shows a demo-mode indicator for these.
func (o *GeneratedOutfit) Fallback() bool {
	return o.ParseSource == ParseSourceSynthetic
}
