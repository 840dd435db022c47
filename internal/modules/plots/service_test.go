package plots

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	testingpkg "github.com/adarsh-anand15/quantum-learning/internal/testing"
)

type plotsEnv struct {
	service    *Service
	cache      *Cache
	runService *runs.Service
	executor   *runs.Executor
}

func newPlotsEnv(t *testing.T) *plotsEnv {
	t.Helper()
	logger := zerolog.Nop()

	runsDB, runsCleanup := testingpkg.NewTestDB(t, "runs")
	t.Cleanup(runsCleanup)
	cacheDB, cacheCleanup := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cacheCleanup)

	repo := runs.NewRepository(runsDB.Conn(), logger)
	runService := runs.NewService(repo, nil, nil, logger)
	executor := runs.NewExecutor(repo, synthesis.NewEngine(logger, 2), nil, 0, logger)
	cache := NewCache(cacheDB.Conn(), logger)

	return &plotsEnv{
		service:    NewService(runService, cache, logger),
		cache:      cache,
		runService: runService,
		executor:   executor,
	}
}

// completedRun submits the spec and drives it through the executor.
func (env *plotsEnv) completedRun(t *testing.T, spec synthesis.ExperimentSpec) *runs.Run {
	t.Helper()
	run, err := env.runService.Submit(spec)
	require.NoError(t, err)
	require.NoError(t, env.executor.Execute(context.Background(), run.ID, nil))

	run, err = env.runService.Get(run.ID)
	require.NoError(t, err)
	require.Equal(t, runs.StatusCompleted, run.Status)
	return run
}

func TestRenderCostAndConvergence(t *testing.T) {
	env := newPlotsEnv(t)
	run := env.completedRun(t, testingpkg.NewGateSpecFixture())

	for _, name := range []string{PlotCost, PlotConvergence} {
		png, err := env.service.Render(run.ID, name, Options{})
		require.NoError(t, err, "plot %s", name)
		require.Greater(t, len(png), 4)
		assert.Equal(t, pngMagic, png[:4])
	}
}

func TestRenderServesCachedBytes(t *testing.T) {
	env := newPlotsEnv(t)
	run := env.completedRun(t, testingpkg.NewGateSpecFixture())

	marker := []byte("not-actually-a-png")
	env.cache.Put(cacheKey(run.ID, PlotCost, Options{}), marker)

	png, err := env.service.Render(run.ID, PlotCost, Options{})
	require.NoError(t, err)
	assert.Equal(t, marker, png)
}

func TestRenderMatrixViews(t *testing.T) {
	env := newPlotsEnv(t)
	run := env.completedRun(t, testingpkg.NewGateSpecFixture())

	for _, which := range []string{WhichTarget, WhichLearned, WhichError} {
		png, err := env.service.Render(run.ID, PlotMatrix, Options{Which: which, Part: PartAbs})
		require.NoError(t, err, "which %s", which)
		assert.Equal(t, pngMagic, png[:4])
	}
}

func TestRenderWignerViews(t *testing.T) {
	env := newPlotsEnv(t)
	run := env.completedRun(t, testingpkg.NewStateSpecFixture())

	for _, which := range []string{WhichTarget, WhichLearned} {
		png, err := env.service.Render(run.ID, PlotWigner, Options{Which: which, Points: 31})
		require.NoError(t, err, "which %s", which)
		assert.Equal(t, pngMagic, png[:4])
	}
}

func TestRenderQueuedRunConflict(t *testing.T) {
	env := newPlotsEnv(t)

	run, err := env.runService.Submit(testingpkg.NewGateSpecFixture())
	require.NoError(t, err)

	_, err = env.service.Render(run.ID, PlotCost, Options{})
	assert.ErrorIs(t, err, ErrRunNotFinished)
}

func TestRenderMissingRun(t *testing.T) {
	env := newPlotsEnv(t)

	_, err := env.service.Render("no-such-run", PlotCost, Options{})
	assert.ErrorIs(t, err, runs.ErrNotFound)
}

func TestRenderWrongKind(t *testing.T) {
	env := newPlotsEnv(t)
	gate := env.completedRun(t, testingpkg.NewGateSpecFixture())
	state := env.completedRun(t, testingpkg.NewStateSpecFixture())

	_, err := env.service.Render(state.ID, PlotMatrix, Options{})
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = env.service.Render(gate.ID, PlotWigner, Options{})
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestRenderInvalidOptions(t *testing.T) {
	env := newPlotsEnv(t)

	cases := []struct {
		name string
		plot string
		opts Options
	}{
		{"unknown plot", "spectrum", Options{}},
		{"bad matrix which", PlotMatrix, Options{Which: "bogus"}},
		{"bad matrix part", PlotMatrix, Options{Part: "phase"}},
		{"bad wigner which", PlotWigner, Options{Which: "error"}},
		{"too many points", PlotWigner, Options{Points: MaxWignerPoints + 1}},
		{"too few points", PlotWigner, Options{Points: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.Render("irrelevant", tc.plot, tc.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestCacheKeyCanonical(t *testing.T) {
	// Line plots ignore options entirely
	assert.Equal(t,
		cacheKey("r1", PlotCost, Options{}),
		cacheKey("r1", PlotCost, Options{Which: "learned", Points: 99}))

	// Matrix keys ignore points, wigner keys ignore part
	assert.Equal(t, "r1/matrix?which=learned&part=abs",
		cacheKey("r1", PlotMatrix, Options{Which: WhichLearned, Part: PartAbs, Points: 7}))
	assert.Equal(t, "r1/wigner?which=target&points=101",
		cacheKey("r1", PlotWigner, Options{Which: WhichTarget, Points: 101, Part: PartReal}))
}

func TestCachePruneAndDeleteRun(t *testing.T) {
	env := newPlotsEnv(t)

	env.cache.Put("run-a/cost", []byte{1})
	env.cache.Put("run-a/convergence", []byte{2})
	env.cache.Put("run-b/cost", []byte{3})

	env.cache.DeleteRun("run-a")
	_, ok := env.cache.Get("run-a/cost")
	assert.False(t, ok)
	_, ok = env.cache.Get("run-b/cost")
	assert.True(t, ok)

	deleted, err := env.cache.PruneOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, ok = env.cache.Get("run-b/cost")
	assert.False(t, ok)
}
