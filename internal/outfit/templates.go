package outfit

import (
	"strings"

	"github.com/google/uuid"

	"github.com/looksy-group/stylist-api/internal/model"
)

// template is one canned outfit in the static library. Keys are matched
// loosely: the best-scoring template wins, and a generic outfit backstops
// requests nothing matches.
type template struct {
	gender   model.Gender
	style    string
	occasion string
	season   string

	name        string
	description string
	styleNotes  string
	palette     []string
	items       []model.OutfitItemSpec
}

// Library holds the canned outfits the ladder falls back to when the chat
// provider is unreachable or its reply is unrecoverable.
type Library struct {
	templates []template
}

// NewLibrary returns the built-in template set.
func NewLibrary() *Library {
	return &Library{templates: builtinTemplates}
}

// Build returns a synthetic outfit for the request: the closest template, or
// the generic four-item outfit when nothing matches.
func (l *Library) Build(req model.OutfitRequest) model.GeneratedOutfit {
	best, score := l.match(req)
	if score == 0 {
		return l.generic(req)
	}

	g := model.GeneratedOutfit{
		ID:           uuid.NewString(),
		Name:         best.name,
		Description:  best.description,
		Occasion:     firstNonEmpty(req.Occasion, best.occasion),
		Season:       firstNonEmpty(req.Season, best.season),
		Items:        append([]model.OutfitItemSpec(nil), best.items...),
		StyleNotes:   best.styleNotes,
		ColorPalette: append([]string(nil), best.palette...),
		Confidence:   confidenceSynthetic,
		ParseSource:  model.ParseSourceSynthetic,
	}
	return g
}

// match scores each template on how many request keys it shares; gender
// mismatches disqualify outright (a unisex template matches anyone).
func (l *Library) match(req model.OutfitRequest) (template, int) {
	var best template
	bestScore := 0
	for _, t := range l.templates {
		if t.gender != model.GenderUnisex && req.Gender != "" && t.gender != req.Gender {
			continue
		}
		// Gender gates but does not score: a gender-only hit is no match.
		score := 0
		if equalFold(t.style, req.Style) {
			score += 2
		}
		if equalFold(t.occasion, req.Occasion) {
			score += 2
		}
		if equalFold(t.season, req.Season) {
			score++
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore
}

func equalFold(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// generic is the minimal four-slot outfit: top, bottom, footwear, accessory,
// neutral colors, placeholder price bands.
func (l *Library) generic(req model.OutfitRequest) model.GeneratedOutfit {
	neutral := []string{"белый", "черный", "серый"}
	return model.GeneratedOutfit{
		ID:          uuid.NewString(),
		Name:        l.nameFor(req),
		Description: "Универсальный базовый комплект на каждый день.",
		Occasion:    req.Occasion,
		Season:      req.Season,
		Items: []model.OutfitItemSpec{
			{Category: "top", Name: "Базовая футболка", Colors: []string{"белый"}, Style: "casual", Fit: "regular", Price: defaultPriceBand},
			{Category: "bottom", Name: "Джинсы прямого кроя", Colors: []string{"синий"}, Style: "casual", Fit: "straight", Price: "2000-5000"},
			{Category: "footwear", Name: "Белые кроссовки", Colors: []string{"белый"}, Style: "casual", Fit: "regular", Price: "3000-7000"},
			{Category: "accessory", Name: "Минималистичные часы", Colors: []string{"черный"}, Style: "casual", Fit: "one size", Price: defaultPriceBand},
		},
		StyleNotes:   "Нейтральная база сочетается с любым цветовым акцентом.",
		ColorPalette: neutral,
		Confidence:   confidenceSynthetic,
		ParseSource:  model.ParseSourceSynthetic,
	}
}

// nameFor titles a synthetic outfit from whatever request context exists.
func (l *Library) nameFor(req model.OutfitRequest) string {
	switch {
	case req.Style != "" && req.Occasion != "":
		return "Образ " + req.Style + " для " + req.Occasion
	case req.Style != "":
		return "Образ в стиле " + req.Style
	case req.Occasion != "":
		return "Образ для " + req.Occasion
	default:
		return "Базовый образ"
	}
}

var builtinTemplates = []template{
	{
		gender: model.GenderFemale, style: "casual", occasion: "прогулка", season: "лето",
		name:        "Летняя прогулка",
		description: "Легкий повседневный образ для теплого дня.",
		styleNotes:  "Светлые натуральные ткани, минимум слоев.",
		palette:     []string{"белый", "бежевый", "голубой"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Льняная блуза", Colors: []string{"белый"}, Style: "casual", Fit: "oversized", Price: "1500-3500"},
			{Category: "bottom", Name: "Юбка миди", Colors: []string{"бежевый"}, Style: "casual", Fit: "a-line", Price: "2000-4000"},
			{Category: "footwear", Name: "Кожаные сандалии", Colors: []string{"бежевый"}, Style: "casual", Fit: "regular", Price: "2500-5000"},
			{Category: "accessory", Name: "Плетеная сумка", Colors: []string{"бежевый"}, Style: "casual", Fit: "one size", Price: "1500-3000"},
		},
	},
	{
		gender: model.GenderMale, style: "casual", occasion: "прогулка", season: "лето",
		name:        "Городское лето",
		description: "Расслабленный мужской образ для города.",
		styleNotes:  "Дышащие ткани, спокойные тона.",
		palette:     []string{"белый", "хаки", "синий"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Льняная рубашка", Colors: []string{"белый"}, Style: "casual", Fit: "regular", Price: "2000-4000"},
			{Category: "bottom", Name: "Чиносы", Colors: []string{"хаки"}, Style: "casual", Fit: "slim", Price: "2500-5000"},
			{Category: "footwear", Name: "Замшевые кеды", Colors: []string{"белый"}, Style: "casual", Fit: "regular", Price: "3000-6000"},
			{Category: "accessory", Name: "Холщовый рюкзак", Colors: []string{"хаки"}, Style: "casual", Fit: "one size", Price: "2000-4000"},
		},
	},
	{
		gender: model.GenderFemale, style: "business", occasion: "работа", season: "",
		name:        "Деловой акцент",
		description: "Строгий, но современный офисный образ.",
		styleNotes:  "Монохром с одним цветовым акцентом.",
		palette:     []string{"черный", "белый", "бордовый"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Шелковая блуза", Colors: []string{"белый"}, Style: "business", Fit: "regular", Price: "3000-6000"},
			{Category: "bottom", Name: "Брюки со стрелками", Colors: []string{"черный"}, Style: "business", Fit: "straight", Price: "3000-7000"},
			{Category: "outerwear", Name: "Приталенный жакет", Colors: []string{"черный"}, Style: "business", Fit: "fitted", Price: "5000-10000"},
			{Category: "footwear", Name: "Лодочки", Colors: []string{"черный"}, Style: "business", Fit: "regular", Price: "3500-7000"},
			{Category: "accessory", Name: "Кожаная сумка-тоут", Colors: []string{"бордовый"}, Style: "business", Fit: "one size", Price: "4000-9000"},
		},
	},
	{
		gender: model.GenderMale, style: "business", occasion: "работа", season: "",
		name:        "Офисная классика",
		description: "Сдержанный деловой комплект.",
		styleNotes:  "Темная база, фактура вместо цвета.",
		palette:     []string{"темно-синий", "белый", "коричневый"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Рубашка оксфорд", Colors: []string{"белый"}, Style: "business", Fit: "slim", Price: "2500-5000"},
			{Category: "bottom", Name: "Шерстяные брюки", Colors: []string{"темно-синий"}, Style: "business", Fit: "straight", Price: "4000-8000"},
			{Category: "outerwear", Name: "Пиджак", Colors: []string{"темно-синий"}, Style: "business", Fit: "regular", Price: "7000-15000"},
			{Category: "footwear", Name: "Дерби", Colors: []string{"коричневый"}, Style: "business", Fit: "regular", Price: "5000-10000"},
		},
	},
	{
		gender: model.GenderUnisex, style: "sport", occasion: "тренировка", season: "",
		name:        "Спортивный комплект",
		description: "Функциональный образ для зала и улицы.",
		styleNotes:  "Технологичные ткани, свободный крой.",
		palette:     []string{"черный", "серый", "белый"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Спортивная футболка", Colors: []string{"серый"}, Style: "sport", Fit: "regular", Price: "1000-2500"},
			{Category: "bottom", Name: "Джоггеры", Colors: []string{"черный"}, Style: "sport", Fit: "tapered", Price: "1500-3500"},
			{Category: "footwear", Name: "Беговые кроссовки", Colors: []string{"черный"}, Style: "sport", Fit: "regular", Price: "3500-8000"},
			{Category: "accessory", Name: "Спортивная сумка", Colors: []string{"черный"}, Style: "sport", Fit: "one size", Price: "1500-3000"},
		},
	},
	{
		gender: model.GenderFemale, style: "evening", occasion: "свидание", season: "",
		name:        "Вечерний выход",
		description: "Элегантный образ для вечера.",
		styleNotes:  "Один выразительный элемент, остальное — фон.",
		palette:     []string{"черный", "золотой"},
		items: []model.OutfitItemSpec{
			{Category: "dress", Name: "Платье-комбинация", Colors: []string{"черный"}, Style: "evening", Fit: "slip", Price: "4000-9000"},
			{Category: "outerwear", Name: "Укороченный жакет", Colors: []string{"черный"}, Style: "evening", Fit: "fitted", Price: "5000-10000"},
			{Category: "footwear", Name: "Босоножки на каблуке", Colors: []string{"черный"}, Style: "evening", Fit: "regular", Price: "3500-7000"},
			{Category: "accessory", Name: "Клатч", Colors: []string{"золотой"}, Style: "evening", Fit: "one size", Price: "2000-5000"},
		},
	},
	{
		gender: model.GenderUnisex, style: "casual", occasion: "", season: "зима",
		name:        "Теплая база",
		description: "Многослойный зимний комплект.",
		styleNotes:  "Слои: база, утепление, защита от ветра.",
		palette:     []string{"серый", "черный", "бежевый"},
		items: []model.OutfitItemSpec{
			{Category: "top", Name: "Шерстяной свитер", Colors: []string{"серый"}, Style: "casual", Fit: "oversized", Price: "2500-6000"},
			{Category: "bottom", Name: "Утепленные брюки", Colors: []string{"черный"}, Style: "casual", Fit: "straight", Price: "2500-5000"},
			{Category: "outerwear", Name: "Пуховик", Colors: []string{"бежевый"}, Style: "casual", Fit: "oversized", Price: "8000-18000"},
			{Category: "footwear", Name: "Зимние ботинки", Colors: []string{"черный"}, Style: "casual", Fit: "regular", Price: "5000-12000"},
		},
	},
}
