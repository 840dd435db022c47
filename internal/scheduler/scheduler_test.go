package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name   string
	runs   atomic.Int32
	err    error
	panics bool
}

func (j *fakeJob) Run() error {
	j.runs.Add(1)
	if j.panics {
		panic("boom")
	}
	return j.err
}

func (j *fakeJob) Name() string {
	return j.name
}

func TestScheduler_AddJobInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &fakeJob{name: "broken"})

	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "daily_backup"}

	require.NoError(t, s.RunNow(job))

	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunNowReturnsJobError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "daily_maintenance", err: assert.AnError}

	err := s.RunNow(job)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestScheduler_RunNowRecoversPanic(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "weekly_maintenance", panics: true}

	err := s.RunNow(job)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The scheduler survives a panicking job
	ok := &fakeJob{name: "daily_backup"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, int32(1), ok.runs.Load())
}

func TestScheduler_ScheduledJobRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "ticker"}

	require.NoError(t, s.AddJob("@every 10ms", job))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_StopWaitsForRunningJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "ticker"}

	require.NoError(t, s.AddJob("@every 10ms", job))
	s.Start()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	after := job.runs.Load()

	// No new executions once Stop has returned
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load())
}
