package outfit

import (
	"fmt"
	"strings"

	"github.com/looksy-group/stylist-api/internal/model"
)

const systemPrompt = `Ты — профессиональный стилист. Подбирай цельные, носибельные образы
под параметры клиента и отвечай строго в формате JSON без пояснений вокруг.`

// buildPrompt renders the generation request as a Russian instruction with an
// explicit JSON schema. The schema field names must stay in sync with
// rawOutfit: the parser's strict tier depends on them.
func buildPrompt(req model.OutfitRequest) string {
	var b strings.Builder

	b.WriteString("Составь образ для клиента:\n")
	if req.Gender != "" {
		fmt.Fprintf(&b, "- пол: %s\n", genderRu(req.Gender))
	}
	if req.HeightCm > 0 {
		fmt.Fprintf(&b, "- рост: %d см\n", req.HeightCm)
	}
	if req.WeightKg > 0 {
		fmt.Fprintf(&b, "- вес: %d кг\n", req.WeightKg)
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "- предпочитаемый стиль: %s\n", req.Style)
	}
	if req.Occasion != "" {
		fmt.Fprintf(&b, "- повод: %s\n", req.Occasion)
	}
	if req.Season != "" {
		fmt.Fprintf(&b, "- сезон: %s\n", req.Season)
	}
	if req.BudgetRange != "" {
		fmt.Fprintf(&b, "- бюджет: %s руб.\n", req.BudgetRange)
	}
	if len(req.Colors) > 0 {
		fmt.Fprintf(&b, "- любимые цвета: %s\n", strings.Join(req.Colors, ", "))
	}

	b.WriteString(`
Ответь ТОЛЬКО валидным JSON по схеме:
{
  "name": "название образа",
  "description": "краткое описание",
  "items": [
    {
      "category": "top|bottom|footwear|accessory|outerwear|dress",
      "name": "название вещи",
      "description": "описание",
      "colors": ["цвет"],
      "style": "стиль",
      "fit": "крой",
      "price": "диапазон цены, например 2000-5000"
    }
  ],
  "totalPrice": "суммарный диапазон",
  "styleNotes": "советы по стилю",
  "colorPalette": ["цвет"]
}
В items — от 3 до 6 вещей. Все тексты на русском языке.`)

	return b.String()
}

func genderRu(g model.Gender) string {
	switch g {
	case model.GenderFemale:
		return "женский"
	case model.GenderMale:
		return "мужской"
	default:
		return "унисекс"
	}
}
