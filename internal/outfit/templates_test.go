package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looksy-group/stylist-api/internal/model"
)

func TestLibraryBuild_MatchesClosestTemplate(t *testing.T) {
	lib := NewLibrary()

	got := lib.Build(model.OutfitRequest{
		Gender:   model.GenderMale,
		Style:    "business",
		Occasion: "работа",
	})

	assert.Equal(t, "Офисная классика", got.Name)
	assert.Equal(t, model.ParseSourceSynthetic, got.ParseSource)
	assert.Equal(t, 0.7, got.Confidence)
	require.NotEmpty(t, got.Items)
	assert.NotEmpty(t, got.ID)
}

func TestLibraryBuild_GenderMismatchDisqualifies(t *testing.T) {
	lib := NewLibrary()

	got := lib.Build(model.OutfitRequest{
		Gender: model.GenderMale,
		Style:  "evening",
	})

	// The only evening template is female; the unisex sport/casual ones
	// don't match either, so he gets the generic outfit.
	assert.NotEqual(t, "Вечерний выход", got.Name)
	require.Len(t, got.Items, 4)
}

func TestLibraryBuild_NoMatchYieldsGenericFourSlots(t *testing.T) {
	lib := NewLibrary()

	got := lib.Build(model.OutfitRequest{Gender: model.GenderUnisex})

	require.Len(t, got.Items, 4)
	categories := make([]string, 0, 4)
	for _, it := range got.Items {
		categories = append(categories, it.Category)
		assert.NotEmpty(t, it.Name)
		assert.NotEmpty(t, it.Colors)
		assert.NotEmpty(t, it.Price)
	}
	assert.ElementsMatch(t, []string{"top", "bottom", "footwear", "accessory"}, categories)
}

func TestLibraryBuild_RequestContextOverridesTemplateKeys(t *testing.T) {
	lib := NewLibrary()

	got := lib.Build(model.OutfitRequest{
		Gender:   model.GenderFemale,
		Style:    "casual",
		Occasion: "прогулка",
		Season:   "весна",
	})

	assert.Equal(t, "весна", got.Season, "request season wins over template season")
	assert.Equal(t, "прогулка", got.Occasion)
}

func TestLibraryBuild_UnisexTemplateMatchesEitherGender(t *testing.T) {
	lib := NewLibrary()

	for _, g := range []model.Gender{model.GenderFemale, model.GenderMale} {
		got := lib.Build(model.OutfitRequest{
			Gender:   g,
			Style:    "sport",
			Occasion: "тренировка",
		})
		assert.Equal(t, "Спортивный комплект", got.Name, "gender %s", g)
	}
}
