package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train [ticker...]",
	Short: "Train prediction pipelines for one or more tickers",
	Long: `Train the full pipeline for each ticker: fetch daily bars,
engineer features, train the model catalog in parallel, select by
validation score, and build the ensembles.

Example:
  go run ./cmd/alphadesk train AAPL
  go run ./cmd/alphadesk train AAPL MSFT NVDA`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	failed := 0
	for _, ticker := range args {
		start := time.Now()
		pipeline, err := app.service.Train(ctx, ticker)
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", ticker, err)
			continue
		}

		fmt.Printf("✓ %s  direction=%s (F1 %.3f)  magnitude=%s (R² %.3f)  confidence=%s  %s\n",
			ticker,
			pipeline.Direction.Best.Name, pipeline.Direction.Best.Validation.F1,
			pipeline.Magnitude.Best.Name, pipeline.Magnitude.Best.Validation.R2,
			pipeline.Confidence,
			time.Since(start).Round(time.Millisecond),
		)
	}

	if failed == len(args) {
		return fmt.Errorf("training failed for all %d tickers", failed)
	}
	return nil
}
