package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/dataset"
	"github.com/dkwon/alphadesk/internal/features"
	"github.com/dkwon/alphadesk/internal/training"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// MarketDataSource supplies the raw series the pipeline trains on
type MarketDataSource interface {
	DailySeries(ctx context.Context, ticker string) (*contracts.Series, error)
	MarketContext(ctx context.Context) (*features.MarketContext, error)
}

// PipelineStore persists trained pipelines across restarts. Load
// returns contracts.ErrArtifactNotFound when no bundle exists.
type PipelineStore interface {
	Save(ctx context.Context, p *training.Pipeline) error
	Load(ctx context.Context, ticker string) (*training.Pipeline, error)
}

// Service is the training/inference orchestrator: fetch, engineer,
// split, train, select, cache, combine. One instance serves all
// tickers.
type Service struct {
	logger  *logger.Logger
	cfg     config.TrainingConfig
	source  MarketDataSource
	engine  *features.Engine
	trainer *training.Trainer
	cache   *Cache

	// store is optional; a nil store keeps pipelines in memory only
	store PipelineStore
}

// NewService wires the orchestrator
func NewService(log *logger.Logger, cfg config.TrainingConfig, source MarketDataSource, engine *features.Engine, trainer *training.Trainer, store PipelineStore) *Service {
	return &Service{
		logger:  log,
		cfg:     cfg,
		source:  source,
		engine:  engine,
		trainer: trainer,
		cache:   NewCache(cfg.ModelTTL),
		store:   store,
	}
}

// Predict returns the next-period forecast for a ticker, training a
// pipeline first if none is cached or persisted. Concurrent requests
// for the same untrained ticker share one training run.
func (s *Service) Predict(ctx context.Context, ticker string) (*contracts.Prediction, error) {
	pipeline, err := s.cache.GetOrBuild(ticker, func() (*training.Pipeline, error) {
		if p, ok := s.loadStored(ctx, ticker); ok {
			return p, nil
		}
		p, _, err := s.train(ctx, ticker)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	frame, err := s.buildFrame(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := pipeline.Schema.Validate(frame.Schema.Names); err != nil {
		// Feature set drifted since the pipeline was trained; retrain
		// rather than silently mis-predicting.
		s.logger.WithError(err).WithField("ticker", ticker).
			Warn("Feature schema mismatch, retraining pipeline")
		s.cache.Invalidate(ticker)
		pipeline, err = s.cache.GetOrBuild(ticker, func() (*training.Pipeline, error) {
			p, _, err := s.train(ctx, ticker)
			return p, err
		})
		if err != nil {
			return nil, err
		}
	}

	return Combine(pipeline, frame.Latest)
}

// Train forces a fresh training run for a ticker, replacing any cached
// or persisted pipeline.
func (s *Service) Train(ctx context.Context, ticker string) (*training.Pipeline, error) {
	s.cache.Invalidate(ticker)
	pipeline, err := s.cache.GetOrBuild(ticker, func() (*training.Pipeline, error) {
		p, _, err := s.train(ctx, ticker)
		return p, err
	})
	return pipeline, err
}

// Pipeline returns the cached or persisted pipeline without training
func (s *Service) Pipeline(ctx context.Context, ticker string) (*training.Pipeline, error) {
	if p, ok := s.cache.Get(ticker); ok {
		return p, nil
	}
	if p, ok := s.loadStored(ctx, ticker); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no trained pipeline for %s", contracts.ErrArtifactNotFound, ticker)
}

// loadStored pulls a persisted pipeline if one exists and is younger
// than the model TTL.
func (s *Service) loadStored(ctx context.Context, ticker string) (*training.Pipeline, bool) {
	if s.store == nil {
		return nil, false
	}
	p, err := s.store.Load(ctx, ticker)
	if err != nil {
		if !errors.Is(err, contracts.ErrArtifactNotFound) {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Artifact load failed")
		}
		return nil, false
	}
	if s.cfg.ModelTTL > 0 && time.Since(p.TrainedAt) > s.cfg.ModelTTL {
		return nil, false
	}
	return p, true
}

// buildFrame fetches the series and market context and runs the
// feature engine over the capped training window.
func (s *Service) buildFrame(ctx context.Context, ticker string) (*features.Frame, error) {
	series, err := s.source.DailySeries(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrDataUnavailable, ticker, err)
	}
	series = series.Tail(s.cfg.MaxBars)

	market, err := s.source.MarketContext(ctx)
	if err != nil {
		if s.cfg.RequireMarketContext {
			return nil, fmt.Errorf("%w: market context: %v", contracts.ErrDataUnavailable, err)
		}
		s.logger.WithError(err).WithField("ticker", ticker).
			Warn("Market context fetch failed, training without context features")
		market = nil
	}

	return s.engine.Generate(series, market)
}

// train runs the full pipeline for one ticker
func (s *Service) train(ctx context.Context, ticker string) (*training.Pipeline, *features.Frame, error) {
	start := time.Now()

	frame, err := s.buildFrame(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	targets, err := dataset.BuildTargets(frame.Closes, frame.NextCloses)
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.Split(frame.Rows, targets, s.cfg.TrainRatio, s.cfg.ValRatio)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contracts.ErrInsufficientHistory, err)
	}

	closeIndex := 0
	for i, name := range frame.Schema.Names {
		if name == "Close" {
			closeIndex = i
			break
		}
	}

	dirResults, err := s.trainer.TrainDirection(ds)
	if err != nil {
		return nil, nil, err
	}
	magResults, err := s.trainer.TrainMagnitude(ds, closeIndex)
	if err != nil {
		return nil, nil, err
	}

	direction, err := training.SelectDirection(dirResults)
	if err != nil {
		return nil, nil, err
	}
	magnitude, err := training.SelectMagnitude(magResults)
	if err != nil {
		return nil, nil, err
	}

	pipeline := &training.Pipeline{
		Ticker:    ticker,
		Schema:    frame.Schema,
		Direction: direction,
		Magnitude: magnitude,
		TrainedAt: time.Now().UTC(),
	}
	pipeline.Confidence = pipeline.Grade()

	if s.store != nil {
		if err := s.store.Save(ctx, pipeline); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Artifact save failed")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"rows":       frame.Len(),
		"best_dir":   direction.Best.Name,
		"best_mag":   magnitude.Best.Name,
		"confidence": pipeline.Confidence,
		"elapsed":    time.Since(start).String(),
	}).Info("Trained prediction pipeline")

	return pipeline, frame, nil
}
