package scorer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerRu = cases.Lower(language.Russian)

// normalize lowercases (Russian-aware), folds ё to е, and trims the string
// so token and substring matching is stable across marketplaces.
func normalize(s string) string {
	s = lowerRu.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ё", "е")
}

// categoryKeywords maps a requested slot category to product-name keywords
// that identify it. Both RU and EN spellings occur in marketplace data.
var categoryKeywords = map[string][]string{
	"top": {
		"рубашка", "футболка", "блузка", "свитер", "джемпер", "худи",
		"лонгслив", "топ", "водолазка", "кардиган", "поло", "shirt", "hoodie",
	},
	"bottom": {
		"брюки", "джинсы", "юбка", "шорты", "леггинсы", "чиносы", "jeans", "pants",
	},
	"footwear": {
		"кроссовки", "ботинки", "туфли", "кеды", "лоферы", "сапоги",
		"босоножки", "сандалии", "sneakers", "boots",
	},
	"accessory": {
		"сумка", "ремень", "шарф", "очки", "часы", "рюкзак", "шапка",
		"перчатки", "браслет", "bag", "belt",
	},
	"outerwear": {
		"куртка", "пальто", "плащ", "пуховик", "бомбер", "тренч", "jacket", "coat",
	},
	"dress": {
		"платье", "сарафан", "dress",
	},
}

// colorTable maps a canonical color to the spellings seen in model output
// and marketplace listings.
var colorTable = map[string][]string{
	"белый":      {"белый", "белая", "белые", "белое", "white", "молочный"},
	"черный":     {"черный", "черная", "черные", "черное", "black"},
	"серый":      {"серый", "серая", "серые", "серое", "gray", "grey", "графит"},
	"синий":      {"синий", "синяя", "синие", "синее", "blue", "навы", "navy"},
	"голубой":    {"голубой", "голубая", "голубые", "light blue"},
	"красный":    {"красный", "красная", "красные", "red", "бордовый", "бордо"},
	"зеленый":    {"зеленый", "зеленая", "зеленые", "green", "хаки", "оливковый"},
	"бежевый":    {"бежевый", "бежевая", "бежевые", "beige", "песочный", "кремовый"},
	"коричневый": {"коричневый", "коричневая", "коричневые", "brown", "шоколадный"},
	"розовый":    {"розовый", "розовая", "розовые", "pink", "пудровый"},
	"желтый":     {"желтый", "желтая", "желтые", "yellow", "горчичный"},
}

// colorSynonyms expands one requested color into all matchable spellings.
// Unknown colors match only themselves.
func colorSynonyms(color string) []string {
	c := normalize(color)
	for canonical, spellings := range colorTable {
		if c == canonical {
			return spellings
		}
		for _, s := range spellings {
			if c == s {
				return spellings
			}
		}
	}
	return []string{c}
}

// styleSynonyms expands a style keyword into listing vocabulary.
var styleSynonyms = map[string][]string{
	"casual":    {"повседневный", "повседневная", "кэжуал", "casual"},
	"business":  {"деловой", "деловая", "офисный", "офисная", "классический", "классическая"},
	"sport":     {"спортивный", "спортивная", "спорт", "sport"},
	"evening":   {"вечерний", "вечерняя", "нарядный", "нарядная"},
	"romantic":  {"романтичный", "романтичная", "нежный", "нежная"},
	"streetwear": {"уличный", "оверсайз", "oversize", "стритвир"},
}
