package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkwon/alphadesk/internal/api"
	"github.com/dkwon/alphadesk/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the prediction API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                 - Health check
  GET  /api/predict/{ticker}   - Next-period forecast (trains on demand)
  POST /api/train/{ticker}     - Force a fresh training run
  GET  /api/models/{ticker}    - Trained pipeline scorecard
  GET  /api/sentiment/{ticker} - Headline sentiment (with SENTIMENT_ENABLED)

Example:
  go run ./cmd/alphadesk api
  go run ./cmd/alphadesk api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	predictHandler := handlers.NewPredictHandler(app.service, app.log)
	var sentimentHandler *handlers.SentimentHandler
	if app.analyzer != nil {
		sentimentHandler = handlers.NewSentimentHandler(app.news, app.analyzer, app.log)
	}
	router := api.NewRouter(predictHandler, sentimentHandler, app.db, app.log)
	server := api.New(app.cfg, app.log, router)

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", app.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
