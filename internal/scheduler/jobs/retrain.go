package jobs

import (
	"context"
	"fmt"

	"github.com/dkwon/alphadesk/internal/predict"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// RetrainJob refreshes the trained pipelines for the configured
// watchlist so the first morning request never pays the training cost.
type RetrainJob struct {
	service   *predict.Service
	watchlist []string
	schedule  string
	logger    *logger.Logger
}

// NewRetrainJob creates a retrain job over a watchlist
func NewRetrainJob(service *predict.Service, watchlist []string, schedule string, log *logger.Logger) *RetrainJob {
	return &RetrainJob{
		service:   service,
		watchlist: watchlist,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "watchlist_retrain"
}

// Schedule returns the cron expression
func (j *RetrainJob) Schedule() string {
	return j.schedule
}

// Run retrains every watchlist ticker. One failing ticker does not stop
// the rest; the job fails only if every ticker failed.
func (j *RetrainJob) Run(ctx context.Context) error {
	if len(j.watchlist) == 0 {
		j.logger.Warn("Retrain job has an empty watchlist")
		return nil
	}

	failed := 0
	for _, ticker := range j.watchlist {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pipeline, err := j.service.Train(ctx, ticker)
		if err != nil {
			failed++
			j.logger.WithError(err).WithField("ticker", ticker).Error("Scheduled retrain failed")
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"ticker":     ticker,
			"confidence": pipeline.Confidence,
		}).Info("Scheduled retrain completed")
	}

	if failed == len(j.watchlist) {
		return fmt.Errorf("retrain failed for all %d watchlist tickers", failed)
	}
	return nil
}
