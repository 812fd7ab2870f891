package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkwon/alphadesk/internal/fundamentals"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// fundamentalsCmd represents the fundamentals command
var fundamentalsCmd = &cobra.Command{
	Use:   "fundamentals",
	Short: "Train the fundamentals direction model from labeled samples",
	Long: `Train the year-over-year fundamentals direction model from a JSON
file of labeled samples and report the holdout scorecard. With
--snapshot, also predict the direction for one company's two-period
financial snapshot.

Sample file: JSON array of {"latest": {...}, "prev": {...}, "price_change": 0.12}.
Snapshot file: {"ticker": "AAPL", "latest": {...}, "prev": {...}}.

Example:
  go run ./cmd/alphadesk fundamentals --samples samples.json
  go run ./cmd/alphadesk fundamentals --samples samples.json --snapshot aapl.json`,
	RunE: runFundamentals,
}

var (
	fundamentalsSamples  string
	fundamentalsSnapshot string
)

func init() {
	rootCmd.AddCommand(fundamentalsCmd)

	fundamentalsCmd.Flags().StringVar(&fundamentalsSamples, "samples", "", "JSON file of labeled training samples (required)")
	fundamentalsCmd.Flags().StringVar(&fundamentalsSnapshot, "snapshot", "", "JSON file with one financial snapshot to score")
	_ = fundamentalsCmd.MarkFlagRequired("samples")
}

// runFundamentals is file-driven and needs no database, Redis or
// market-data wiring, so it skips buildApp.
func runFundamentals(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	samples, err := fundamentals.LoadSamples(fundamentalsSamples)
	if err != nil {
		return err
	}

	trainer := fundamentals.NewTrainer(log, cfg.Training.Seed)
	artifact, report, err := trainer.Train(samples, fundamentals.MetricNames(samples))
	if err != nil {
		return fmt.Errorf("train fundamentals model: %w", err)
	}

	fmt.Printf("Trained on %d samples, %d selected features: %s\n",
		report.Samples, len(report.Selected), strings.Join(report.Selected, ", "))
	fmt.Printf("Holdout  accuracy=%.3f  precision=%.3f  recall=%.3f  F1=%.3f\n",
		report.Holdout.Accuracy, report.Holdout.Precision, report.Holdout.Recall, report.Holdout.F1)

	if fundamentalsSnapshot == "" {
		return nil
	}

	snap, err := fundamentals.LoadSnapshot(fundamentalsSnapshot)
	if err != nil {
		return err
	}
	direction, prob, err := artifact.Predict(*snap)
	if err != nil {
		return fmt.Errorf("predict %s: %w", snap.Ticker, err)
	}

	fmt.Printf("%s  %s  (p=%.3f)\n", snap.Ticker, direction, prob)
	return nil
}
