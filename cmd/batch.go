package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/homemetric/valuation-cli/internal/dataset"
	"github.com/homemetric/valuation-cli/internal/model"
	"github.com/homemetric/valuation-cli/internal/valuation"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Value a batch of properties from a CSV or XLSX file",
	Long: `Run the valuation pipeline over every property in a file.

The file needs a header row using the housing dataset column names
(area, bedrooms, bathrooms, stories, parking, mainroad, guestroom,
basement, hotwaterheating, airconditioning, prefarea, furnishingstatus,
city); column order does not matter.

Examples:
  batch properties.csv
  batch properties.xlsx --concurrency 8 --output results.csv --save`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.Int("concurrency", 0, "parallel valuations (default from config)")
	f.String("output", "", "write results CSV to this path (default: stdout summary only)")
	f.Bool("save", false, "save valuations to history")
	f.Uint64("seed", 0, "seed for reproducible market simulation (0 = random)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	save, _ := cmd.Flags().GetBool("save")
	outputPath, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Batch.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	env, err := initApp(ctx, save, engineOptions(cmd)...)
	if err != nil {
		return err
	}
	defer env.Close()

	properties, err := dataset.ReadProperties(args[0])
	if err != nil {
		return err
	}

	zap.L().Info("processing batch",
		zap.String("file", args[0]),
		zap.Int("properties", len(properties)),
		zap.Int("concurrency", concurrency),
	)

	results, failed := valueBatch(ctx, env, properties, concurrency)

	if save && len(results) > 0 {
		if _, err := env.store.SaveValuations(ctx, results); err != nil {
			return eris.Wrap(err, "batch: save")
		}
		fmt.Printf("Saved %d valuations to history\n", len(results))
	}

	if outputPath != "" {
		if err := writeBatchCSV(outputPath, results); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", outputPath)
	}

	printBatchSummary(results, failed)
	return nil
}

// valueBatch runs valuations concurrently, preserving input order in the
// returned results. Failed rows are counted, logged, and skipped.
func valueBatch(ctx context.Context, env *appEnv, properties []model.PropertyInput, concurrency int) ([]model.ValuationResult, int64) {
	slots := make([]*model.ValuationResult, len(properties))
	var failed atomic.Int64
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, in := range properties {
		g.Go(func() error {
			profile := env.resolver.Resolve(gctx, in.City)
			result, err := env.engine.Value(in, profile)
			if err != nil {
				failed.Add(1)
				env.runtime.RecordFailure()
				zap.L().Warn("batch valuation failed",
					zap.Int("row", i+2),
					zap.String("city", in.City),
					zap.Error(err),
				)
				return nil
			}
			env.runtime.RecordValuation(result.Prediction.Method == "closed_form")

			mu.Lock()
			slots[i] = &result
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	results := make([]model.ValuationResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, failed.Load()
}

func writeBatchCSV(path string, results []model.ValuationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "batch: create %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{"city", "area", "point_estimate", "lower_bound", "upper_bound", "confidence", "method", "verdict", "percent_difference"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "batch: write CSV header")
	}

	for _, r := range results {
		row := []string{
			r.CityProfile.City,
			fmt.Sprintf("%.0f", r.Property.Area),
			fmt.Sprintf("%.0f", r.Prediction.PointEstimate),
			fmt.Sprintf("%.0f", r.Prediction.LowerBound),
			fmt.Sprintf("%.0f", r.Prediction.UpperBound),
			fmt.Sprintf("%.1f", r.Prediction.Confidence),
			r.Prediction.Method,
			string(r.Market.Recommendation),
			fmt.Sprintf("%.2f", r.Market.PercentDifference),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "batch: write CSV row")
		}
	}
	return nil
}

func printBatchSummary(results []model.ValuationResult, failed int64) {
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Valued:  %d\n", len(results))
	fmt.Printf("Failed:  %d\n", failed)
	if len(results) == 0 {
		return
	}

	var sum float64
	verdicts := make(map[model.Verdict]int)
	for _, r := range results {
		sum += r.Prediction.PointEstimate
		verdicts[r.Market.Recommendation]++
	}
	fmt.Printf("Average: %s\n", valuation.FormatINR(sum/float64(len(results))))
	fmt.Println("Verdicts:")
	for _, v := range []model.Verdict{model.VerdictStrongBuy, model.VerdictGoodValue, model.VerdictFair, model.VerdictOverpriced, model.VerdictAvoid} {
		if verdicts[v] > 0 {
			fmt.Printf("  %-12s %d\n", v, verdicts[v])
		}
	}
}
