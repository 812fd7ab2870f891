package logger_test

import (
	"errors"

	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Benchmark series unavailable")
	log.Error("Failed to connect")

	log.Infof("Trained %d of %d models", 6, 7)

	// Output:
	// (console output with timestamps)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	trainLog := log.WithFields(map[string]interface{}{
		"ticker":     "MSFT",
		"train_rows": 720,
		"val_rows":   240,
		"best_model": "gradient_boosting",
	})
	trainLog.Info("Model selection finished")

	// Output:
	// {"level":"info","ticker":"MSFT","train_rows":720,"val_rows":240,"best_model":"gradient_boosting","message":"Model selection finished",...}
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	err := errors.New("upstream returned empty series")
	log.WithError(err).Error("Failed to fetch price history")

	// Output:
	// {"level":"error","error":"upstream returned empty series","message":"Failed to fetch price history",...}
}
