package resolver

import (
	"strings"

	"github.com/looksy-group/stylist-api/internal/model"
)

// categoryQueryWord maps a slot category to the RU search word marketplaces
// index well. Unknown categories pass through as-is.
func categoryQueryWord(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "top":
		return "рубашка футболка"
	case "bottom":
		return "брюки джинсы"
	case "footwear":
		return "обувь"
	case "accessory":
		return "аксессуар"
	case "outerwear":
		return "куртка"
	case "dress":
		return "платье"
	case "":
		return ""
	default:
		return strings.ToLower(category)
	}
}

// keywordTranslations maps EN style/occasion vocabulary from the generation
// request to RU query words.
var keywordTranslations = map[string]string{
	"casual":     "повседневный",
	"business":   "деловой",
	"sport":      "спортивный",
	"evening":    "вечерний",
	"romantic":   "романтичный",
	"streetwear": "уличный",
	"work":       "офис",
	"date":       "свидание",
	"party":      "вечеринка",
	"walk":       "прогулка",
	"travel":     "путешествие",
}

func translateKeyword(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if ru, ok := keywordTranslations[s]; ok {
		return ru
	}
	return s
}

func genderQueryWord(g model.Gender) string {
	switch g {
	case model.GenderFemale:
		return "женский"
	case model.GenderMale:
		return "мужской"
	default:
		return ""
	}
}
