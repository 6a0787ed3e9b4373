package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/homemetric/valuation-cli/internal/cities"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List cities with built-in profiles",
	Long:  "Print the city table used for price adjustment: crime index, safety score, and price multiplier per city.",
	RunE:  runCities,
}

func init() {
	citiesCmd.Flags().String("format", "table", "output format: table or json")
	rootCmd.AddCommand(citiesCmd)
}

func runCities(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("cities: --format must be table or json (got %q)", format)
	}

	table := cities.DefaultTable()
	if cfg.Cities.TablePath != "" {
		var err error
		table, err = cities.LoadTable(cfg.Cities.TablePath)
		if err != nil {
			return eris.Wrap(err, "load city table")
		}
	}
	profiles := table.List()

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	fmt.Printf("%-22s %7s %7s %11s\n", "City", "Crime", "Safety", "Multiplier")
	for _, p := range profiles {
		fmt.Printf("%-22s %7.1f %7.1f %11.2f\n", p.City, p.CrimeIndex, p.SafetyScore, p.PriceMultiplier)
	}
	fmt.Printf("\n%d cities\n", len(profiles))
	return nil
}
