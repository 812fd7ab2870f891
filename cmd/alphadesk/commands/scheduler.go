package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkwon/alphadesk/internal/scheduler"
	"github.com/dkwon/alphadesk/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the watchlist retrain scheduler",
	Long: `Run the cron scheduler that retrains the configured watchlist
(RETRAIN_WATCHLIST) on the RETRAIN_CRON schedule.

Example:
  RETRAIN_WATCHLIST=AAPL,MSFT go run ./cmd/alphadesk scheduler
  go run ./cmd/alphadesk scheduler --now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "now", false, "run the retrain job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, cleanup, err := buildApp()
	if err != nil {
		return err
	}
	defer cleanup()

	if len(app.cfg.Training.Watchlist) == 0 {
		return fmt.Errorf("RETRAIN_WATCHLIST is empty, nothing to schedule")
	}

	sched := scheduler.New(app.log)
	job := jobs.NewRetrainJob(app.service, app.cfg.Training.Watchlist, app.cfg.Training.RetrainCron, app.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	fmt.Printf("Scheduler running (%s, %d tickers). Press Ctrl+C to stop.\n",
		app.cfg.Training.RetrainCron, len(app.cfg.Training.Watchlist))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}
