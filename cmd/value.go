package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homemetric/valuation-cli/internal/model"
	"github.com/homemetric/valuation-cli/internal/valuation"
)

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Value a single property",
	Long: `Estimate the market price of one property and explain the result.

Examples:
  # Value a default 1500 sqft property in Pune
  value --city Pune

  # A furnished 4BHK with AC on a main road
  value --city Mumbai --area 2400 --bedrooms 4 --bathrooms 3 --mainroad --ac --furnishing furnished

  # Reproducible output as JSON
  value --city Pune --seed 42 --format json`,
	RunE: runValue,
}

func init() {
	f := valueCmd.Flags()
	f.Float64("area", 0, "built-up area in square feet")
	f.Int("bedrooms", 0, "number of bedrooms")
	f.Int("bathrooms", 0, "number of bathrooms")
	f.Int("stories", 0, "number of stories")
	f.Int("parking", 0, "number of parking spots")
	f.Bool("mainroad", false, "property fronts a main road")
	f.Bool("guestroom", false, "has a guest room")
	f.Bool("basement", false, "has a basement")
	f.Bool("hotwater", false, "has hot water heating")
	f.Bool("ac", false, "has air conditioning")
	f.Bool("prefarea", false, "in a preferred area")
	f.String("furnishing", "unfurnished", "furnishing status: unfurnished, semi-furnished, or furnished")
	f.String("city", "", "city the property is in")
	f.String("format", "table", "output format: table or json")
	f.Bool("save", false, "save the valuation to history")
	f.Uint64("seed", 0, "seed for reproducible market simulation (0 = random)")

	rootCmd.AddCommand(valueCmd)
}

func runValue(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("value: --format must be table or json (got %q)", format)
	}
	save, _ := cmd.Flags().GetBool("save")

	env, err := initApp(ctx, save, engineOptions(cmd)...)
	if err != nil {
		return err
	}
	defer env.Close()

	in := propertyFromFlags(cmd)
	profile := env.resolver.Resolve(ctx, in.City)

	result, err := env.engine.Value(in, profile)
	if err != nil {
		return eris.Wrap(err, "value")
	}

	zap.L().Info("valuation complete",
		zap.String("city", profile.City),
		zap.Float64("point_estimate", result.Prediction.PointEstimate),
		zap.String("method", result.Prediction.Method),
		zap.String("verdict", string(result.Market.Recommendation)),
	)

	if save {
		record, err := env.store.SaveValuation(ctx, result)
		if err != nil {
			return eris.Wrap(err, "value: save")
		}
		fmt.Printf("Saved valuation %s\n\n", record.ID)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		printValuation(result)
		return nil
	}
}

func engineOptions(cmd *cobra.Command) []valuation.Option {
	if seed, _ := cmd.Flags().GetUint64("seed"); seed > 0 {
		return []valuation.Option{valuation.WithSeed(seed)}
	}
	return nil
}

func propertyFromFlags(cmd *cobra.Command) model.PropertyInput {
	f := cmd.Flags()
	area, _ := f.GetFloat64("area")
	bedrooms, _ := f.GetInt("bedrooms")
	bathrooms, _ := f.GetInt("bathrooms")
	stories, _ := f.GetInt("stories")
	parking, _ := f.GetInt("parking")
	mainroad, _ := f.GetBool("mainroad")
	guestroom, _ := f.GetBool("guestroom")
	basement, _ := f.GetBool("basement")
	hotwater, _ := f.GetBool("hotwater")
	ac, _ := f.GetBool("ac")
	prefarea, _ := f.GetBool("prefarea")
	furnishing, _ := f.GetString("furnishing")
	city, _ := f.GetString("city")

	return model.PropertyInput{
		Area:             area,
		Bedrooms:         bedrooms,
		Bathrooms:        bathrooms,
		Stories:          stories,
		Parking:          parking,
		MainRoad:         mainroad,
		GuestRoom:        guestroom,
		Basement:         basement,
		HotWaterHeating:  hotwater,
		AirConditioning:  ac,
		PreferredArea:    prefarea,
		FurnishingStatus: model.FurnishingStatus(strings.ToLower(furnishing)),
		City:             city,
	}
}

func printValuation(result model.ValuationResult) {
	p := result.Prediction

	fmt.Printf("City:        %s (crime %.1f, safety %.1f, multiplier %.2f)\n",
		result.CityProfile.City, result.CityProfile.CrimeIndex,
		result.CityProfile.SafetyScore, result.CityProfile.PriceMultiplier)
	fmt.Printf("Estimate:    %s (%s)\n", valuation.FormatINR(p.PointEstimate), p.Method)
	fmt.Printf("Range:       %s - %s\n", valuation.FormatINR(p.LowerBound), valuation.FormatINR(p.UpperBound))
	fmt.Printf("Confidence:  %.1f%%\n", p.Confidence)
	fmt.Printf("Per sqft:    ₹%.0f\n", p.PricePerSqft)

	fmt.Println("\nWhat drives this estimate:")
	for _, entry := range result.Attribution {
		fmt.Printf("  %-15s %+7.2f%%  %s\n", entry.Feature, entry.Percent, entry.Description)
	}

	m := result.Market
	fmt.Println("\nMarket comparison:")
	for _, q := range m.Quotes {
		fmt.Printf("  %-15s %s\n", q.Source, valuation.FormatINR(q.Price))
	}
	fmt.Printf("  %-15s %s\n", "Average", valuation.FormatINR(m.AverageMarket))
	fmt.Printf("\nVerdict:     %s (%+.1f%% vs market)\n", m.Recommendation, m.PercentDifference)
	fmt.Printf("Reasoning:   %s\n", m.Reasoning)
	fmt.Printf("Negotiation: %s\n", m.NegotiationTip)
}
