package commands

import (
	"fmt"

	"github.com/dkwon/alphadesk/internal/artifacts"
	"github.com/dkwon/alphadesk/internal/external/marketdata"
	"github.com/dkwon/alphadesk/internal/external/news"
	"github.com/dkwon/alphadesk/internal/features"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/internal/predict"
	"github.com/dkwon/alphadesk/internal/sentiment"
	"github.com/dkwon/alphadesk/internal/training"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/database"
	"github.com/dkwon/alphadesk/pkg/httputil"
	"github.com/dkwon/alphadesk/pkg/logger"
	"github.com/dkwon/alphadesk/pkg/redis"
)

// app is the shared wiring for every command: config, logger, the
// prediction service, and the optional database, Redis and sentiment
// handles.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	rdb      *redis.Client
	service  *predict.Service
	news     *news.Client
	analyzer *sentiment.Analyzer
}

// buildApp wires the service graph. The database and Redis are both
// optional: without DATABASE_URL pipelines live in memory only, and
// with Redis disabled series fetches skip the shared cache.
func buildApp() (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	httpClient := httputil.
		NewWithTimeout(cfg, log, cfg.MarketData.Timeout).
		WithRateLimit(cfg.MarketData.RequestsPerSec, 2)

	var source predict.MarketDataSource = marketdata.
		NewClient(httpClient, log, cfg.Training).
		WithBaseURL(cfg.MarketData.BaseURL)

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	if rdb.Enabled() {
		source = marketdata.NewCachedSource(source, redis.NewCache(rdb, "alphadesk"), log)
		log.Info("Series cache enabled")
	}

	var db *database.DB
	var store predict.PipelineStore
	if cfg.Database.URL != "" {
		if db, err = database.New(cfg); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		store = artifacts.NewStore(db.Pool, log)
		log.Info("Artifact store enabled")
	} else {
		log.Warn("DATABASE_URL not set, trained pipelines will not be persisted")
	}

	var newsClient *news.Client
	var analyzer *sentiment.Analyzer
	if cfg.Sentiment.Enabled {
		analyzer, err = sentiment.TrainFromCorpus(log, cfg.Sentiment.CorpusPath)
		if err != nil {
			if db != nil {
				db.Close()
			}
			rdb.Close()
			return nil, nil, fmt.Errorf("train sentiment analyzer: %w", err)
		}
		newsClient = news.NewClient(httpClient, log, cfg.MarketData)
		log.Info("Sentiment scoring enabled")
	}

	engine := features.NewEngine(log, features.Options{
		UseLongWindows:       cfg.Training.UseLongWindows,
		RequireMarketContext: cfg.Training.RequireMarketContext,
	})
	trainer := training.NewTrainer(log, models.Capabilities{
		EnableMLP: cfg.Training.EnableMLP,
	}, cfg.Training.Seed)

	service := predict.NewService(log, cfg.Training, source, engine, trainer, store)

	cleanup := func() {
		if db != nil {
			db.Close()
		}
		rdb.Close()
	}

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		rdb:      rdb,
		service:  service,
		news:     newsClient,
		analyzer: analyzer,
	}, cleanup, nil
}
