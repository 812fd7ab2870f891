package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict [ticker]",
	Short: "Print the next-period forecast for a ticker",
	Long: `Predict the next trading day's direction and magnitude for a
ticker, training a pipeline first when none is cached.

Example:
  go run ./cmd/alphadesk predict AAPL
  go run ./cmd/alphadesk predict AAPL --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var predictJSON bool

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "emit the raw prediction as JSON")
}

func runPredict(cmd *cobra.Command, args []string) error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ticker := args[0]
	prediction, err := app.service.Predict(context.Background(), ticker)
	if err != nil {
		return fmt.Errorf("predict %s: %w", ticker, err)
	}

	if predictJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prediction)
	}

	fmt.Printf("%s  %s  %+.2f%%  (direction p=%.3f, confidence %.2f, grade %s)\n",
		prediction.Ticker,
		prediction.Direction,
		prediction.FinalPct,
		prediction.DirectionConfidence,
		prediction.ConfidenceScore,
		prediction.Confidence,
	)
	return nil
}
