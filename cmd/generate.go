package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/model"
)

var generateFlags struct {
	gender       string
	style        string
	occasion     string
	season       string
	budget       string
	colors       []string
	heightCm     int
	weightKg     int
	withProducts bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one outfit and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}

		a, err := initApp(cfg)
		if err != nil {
			return err
		}

		req := model.OutfitRequest{
			Gender:      model.Gender(generateFlags.gender),
			Style:       generateFlags.style,
			Occasion:    generateFlags.occasion,
			Season:      generateFlags.season,
			BudgetRange: generateFlags.budget,
			Colors:      generateFlags.colors,
			HeightCm:    generateFlags.heightCm,
			WeightKg:    generateFlags.weightKg,
		}

		generated := a.service.GenerateOutfit(cmd.Context(), req)
		if generated.Fallback() {
			zap.L().Warn("outfit generated from fallback templates")
		}

		out := struct {
			Outfit   model.GeneratedOutfit `json:"outfit"`
			Fallback bool                  `json:"fallback"`
			Items    []model.ItemProducts  `json:"items,omitempty"`
		}{Outfit: generated, Fallback: generated.Fallback()}

		if generateFlags.withProducts {
			out.Items = a.service.SearchProducts(cmd.Context(), generated, req)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "encode result")
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.gender, "gender", "female", "gender: female, male or unisex")
	generateCmd.Flags().StringVar(&generateFlags.style, "style", "casual", "preferred style")
	generateCmd.Flags().StringVar(&generateFlags.occasion, "occasion", "", "occasion, in Russian")
	generateCmd.Flags().StringVar(&generateFlags.season, "season", "", "season, in Russian")
	generateCmd.Flags().StringVar(&generateFlags.budget, "budget", "", `budget range, e.g. "3000-15000"`)
	generateCmd.Flags().StringSliceVar(&generateFlags.colors, "colors", nil, "preferred colors, in Russian")
	generateCmd.Flags().IntVar(&generateFlags.heightCm, "height", 0, "height in cm")
	generateCmd.Flags().IntVar(&generateFlags.weightKg, "weight", 0, "weight in kg")
	generateCmd.Flags().BoolVar(&generateFlags.withProducts, "products", false, "also search marketplace products for each item")
	rootCmd.AddCommand(generateCmd)
}
