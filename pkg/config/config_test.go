package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8090" {
		t.Errorf("Expected Port to be 8090, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 25 {
		t.Errorf("Expected DB MaxConns to be 25, got %d", cfg.Database.MaxConns)
	}

	if cfg.Training.TrainRatio != 0.6 || cfg.Training.ValRatio != 0.8 {
		t.Errorf("Expected default split 0.6/0.8, got %v/%v", cfg.Training.TrainRatio, cfg.Training.ValRatio)
	}

	if cfg.Training.Seed != 42 {
		t.Errorf("Expected default seed 42, got %d", cfg.Training.Seed)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("DB_MAX_CONNS", "50")
	os.Setenv("LOG_LEVEL", "info")
	os.Setenv("TRAIN_MAX_BARS", "500")
	os.Setenv("RETRAIN_WATCHLIST", "AAPL, MSFT,NVDA")
	os.Setenv("MODEL_TTL", "2h")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("DB_MAX_CONNS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("TRAIN_MAX_BARS")
		os.Unsetenv("RETRAIN_WATCHLIST")
		os.Unsetenv("MODEL_TTL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 50 {
		t.Errorf("Expected DB MaxConns to be 50, got %d", cfg.Database.MaxConns)
	}

	if cfg.Training.MaxBars != 500 {
		t.Errorf("Expected MaxBars to be 500, got %d", cfg.Training.MaxBars)
	}

	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(cfg.Training.Watchlist) != len(want) {
		t.Fatalf("Expected watchlist %v, got %v", want, cfg.Training.Watchlist)
	}
	for i, s := range want {
		if cfg.Training.Watchlist[i] != s {
			t.Errorf("Expected watchlist[%d]=%s, got %s", i, s, cfg.Training.Watchlist[i])
		}
	}

	if cfg.Training.ModelTTL != 2*time.Hour {
		t.Errorf("Expected ModelTTL 2h, got %v", cfg.Training.ModelTTL)
	}
}

func TestLoadRejectsBadSplit(t *testing.T) {
	os.Setenv("TRAIN_RATIO", "0.9")
	os.Setenv("VAL_RATIO", "0.8")
	defer func() {
		os.Unsetenv("TRAIN_RATIO")
		os.Unsetenv("VAL_RATIO")
	}()

	if _, err := Load(); err == nil {
		t.Fatal("Expected Load() to reject TRAIN_RATIO >= VAL_RATIO")
	}
}

func TestLoadRejectsSentimentWithoutCorpus(t *testing.T) {
	os.Setenv("SENTIMENT_ENABLED", "true")
	defer os.Unsetenv("SENTIMENT_ENABLED")

	if _, err := Load(); err == nil {
		t.Fatal("Expected Load() to reject SENTIMENT_ENABLED without SENTIMENT_CORPUS")
	}

	os.Setenv("SENTIMENT_CORPUS", "corpus.csv")
	defer os.Unsetenv("SENTIMENT_CORPUS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.Sentiment.Enabled || cfg.Sentiment.CorpusPath != "corpus.csv" {
		t.Errorf("Expected sentiment enabled with corpus.csv, got %+v", cfg.Sentiment)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	os.Setenv("ENV", "testing")
	defer os.Unsetenv("ENV")

	if _, err := Load(); err == nil {
		t.Fatal("Expected Load() to reject unknown ENV")
	}
}
