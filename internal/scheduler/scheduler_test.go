package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

type countingJob struct {
	name     string
	schedule string
	runs     int32
	failures int32 // fail the first N runs
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("transient failure")
	}
	return nil
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(testLogger())
	job := &countingJob{name: "retrain", schedule: "@daily"}

	require.NoError(t, s.AddJob(job))
	err := s.AddJob(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.AddJob(&countingJob{name: "broken", schedule: "not a cron expr"})
	require.Error(t, err)
}

func TestRunJobRecordsHistory(t *testing.T) {
	s := New(testLogger()).WithRetry(0, 0)
	job := &countingJob{name: "retrain", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJobAndWait("retrain"))

	history, err := s.History("retrain")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 1.0, history.SuccessRate())
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := New(testLogger()).WithRetry(2, time.Millisecond)
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJobAndWait("flaky"))

	assert.Equal(t, int32(3), atomic.LoadInt32(&job.runs))
	history, err := s.History("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
}

func TestRunJobExhaustsRetries(t *testing.T) {
	s := New(testLogger()).WithRetry(1, time.Millisecond)
	job := &countingJob{name: "doomed", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJobAndWait("doomed"))

	history, err := s.History("doomed")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.NotEmpty(t, history.Results[0].Error)
	assert.Zero(t, history.SuccessRate())
}

func TestRunJobUnknown(t *testing.T) {
	s := New(testLogger())
	require.Error(t, s.RunJob("missing"))
	_, err := s.History("missing")
	require.Error(t, err)
}

func TestJobHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "x", Success: true})
	}
	assert.Len(t, h.Results, 100)
	assert.Len(t, h.LatestResults(10), 10)
}
