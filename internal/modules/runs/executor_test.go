package runs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evalprogress "github.com/adarsh-anand15/quantum-learning/internal/evaluation/progress"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	testingpkg "github.com/adarsh-anand15/quantum-learning/internal/testing"
)

func newTestExecutor(t *testing.T, maxRunTime time.Duration) (*Executor, *Repository, *eventRecorder) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "runs")
	t.Cleanup(cleanup)

	repo := NewRepository(db.Conn(), zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())
	manager := events.NewManager(bus, zerolog.Nop())

	recorder := &eventRecorder{}
	for _, et := range []events.EventType{
		events.RunStarted, events.RunProgress,
		events.RunCompleted, events.RunFailed, events.RunCancelled,
	} {
		bus.Subscribe(et, recorder.record)
	}

	engine := synthesis.NewEngine(zerolog.Nop(), 2)
	exec := NewExecutor(repo, engine, manager, maxRunTime, zerolog.Nop())
	return exec, repo, recorder
}

func TestExecutorCompletesRun(t *testing.T) {
	exec, repo, recorder := newTestExecutor(t, 0)

	run := newQueuedRun("complete", time.Now())
	require.NoError(t, repo.Create(run))

	require.NoError(t, exec.Execute(context.Background(), run.ID, nil))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.FinalCost)
	require.NotNil(t, got.Fidelity)
	assert.Equal(t, 5, got.Iterations)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)

	trace, err := repo.LoadTrace(run.ID)
	require.NoError(t, err)
	assert.Len(t, trace, 5)

	params, err := repo.LoadParams(run.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, params)

	types := recorder.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.RunStarted, types[0])
	assert.Equal(t, events.RunCompleted, types[len(types)-1])
	assert.Contains(t, types, events.RunProgress)
}

func TestExecutorForwardsDetailedProgress(t *testing.T) {
	exec, repo, _ := newTestExecutor(t, 0)

	run := newQueuedRun("multi-start", time.Now())
	run.Spec.Hyperparameters.Restarts = 4
	require.NoError(t, repo.Create(run))

	var mu sync.Mutex
	var updates []evalprogress.Update
	require.NoError(t, exec.Execute(context.Background(), run.ID, func(u evalprogress.Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 4)
	for _, u := range updates {
		assert.Equal(t, "candidate_evaluation", u.Phase)
		assert.Equal(t, 4, u.Total)
		assert.Contains(t, u.Details, "best_cost")
	}
}

func TestExecutorSkipsNonQueuedRun(t *testing.T) {
	exec, repo, recorder := newTestExecutor(t, 0)

	run := newQueuedRun("already-done", time.Now())
	require.NoError(t, repo.Create(run))
	require.NoError(t, repo.MarkCancelled(run.ID))

	require.NoError(t, exec.Execute(context.Background(), run.ID, nil))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Empty(t, recorder.types())
}

func TestExecutorMissingRunIsNoop(t *testing.T) {
	exec, _, recorder := newTestExecutor(t, 0)

	require.NoError(t, exec.Execute(context.Background(), "does-not-exist", nil))
	assert.Empty(t, recorder.types())
}

func TestExecutorCancelledContext(t *testing.T) {
	exec, repo, recorder := newTestExecutor(t, 0)

	run := newQueuedRun("cancelled", time.Now())
	require.NoError(t, repo.Create(run))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, exec.Execute(ctx, run.ID, nil))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	types := recorder.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.RunStarted, types[0])
	assert.Equal(t, events.RunCancelled, types[len(types)-1])
}

func TestExecutorTimeoutCancelsRun(t *testing.T) {
	exec, repo, _ := newTestExecutor(t, time.Nanosecond)

	run := newQueuedRun("timed-out", time.Now())
	run.Spec.Hyperparameters.Reps = 100000
	require.NoError(t, repo.Create(run))

	require.NoError(t, exec.Execute(context.Background(), run.ID, nil))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestExecutorFailedRun(t *testing.T) {
	exec, repo, recorder := newTestExecutor(t, 0)

	// A run whose target cannot be resolved fails inside the engine.
	run := newQueuedRun("doomed", time.Now())
	run.Spec = testingpkg.NewInvalidSpecFixture()
	require.NoError(t, repo.Create(run))

	err := exec.Execute(context.Background(), run.ID, nil)
	require.Error(t, err)

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "unknown gate target")

	types := recorder.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.RunFailed, types[len(types)-1])
}
