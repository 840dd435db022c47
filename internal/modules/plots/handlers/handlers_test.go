package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/plots"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	runshandlers "github.com/adarsh-anand15/quantum-learning/internal/modules/runs/handlers"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	testingpkg "github.com/adarsh-anand15/quantum-learning/internal/testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// setupPlotRouter wires the plot routes into the runs router the same way
// the server does, so the tests cover the mounted paths.
func setupPlotRouter(t *testing.T) (chi.Router, *runs.Service, *runs.Executor) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	runsDB, runsCleanup := testingpkg.NewTestDB(t, "runs")
	t.Cleanup(runsCleanup)
	cacheDB, cacheCleanup := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cacheCleanup)

	repo := runs.NewRepository(runsDB.Conn(), logger)
	bus := events.NewBus(logger)
	manager := events.NewManager(bus, logger)
	runService := runs.NewService(repo, manager, nil, logger)
	executor := runs.NewExecutor(repo, synthesis.NewEngine(logger, 2), manager, 0, logger)

	presets, err := runs.NewPresetStore("", logger)
	require.NoError(t, err)

	plotService := plots.NewService(runService, plots.NewCache(cacheDB.Conn(), logger), logger)
	plotHandler := NewHandler(plotService, logger)

	runHandler := runshandlers.NewHandler(runService, presets, bus, logger)
	runHandler.AttachPlotRoutes(plotHandler.RegisterRoutes)

	router := chi.NewRouter()
	runHandler.RegisterRoutes(router)
	return router, runService, executor
}

func completeRun(t *testing.T, service *runs.Service, executor *runs.Executor, spec synthesis.ExperimentSpec) *runs.Run {
	t.Helper()
	run, err := service.Submit(spec)
	require.NoError(t, err)
	require.NoError(t, executor.Execute(context.Background(), run.ID, nil))
	return run
}

func TestPlotEndpointsServePNG(t *testing.T) {
	router, service, executor := setupPlotRouter(t)

	gate := completeRun(t, service, executor, testingpkg.NewGateSpecFixture())
	state := completeRun(t, service, executor, testingpkg.NewStateSpecFixture())

	paths := []string{
		"/runs/" + gate.ID + "/plots/cost.png",
		"/runs/" + gate.ID + "/plots/convergence.png",
		"/runs/" + gate.ID + "/plots/matrix.png?which=target&part=real",
		"/runs/" + state.ID + "/plots/wigner.png?points=31",
	}

	for _, path := range paths {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, "path %s", path)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"), "path %s", path)
		body := w.Body.Bytes()
		require.Greater(t, len(body), 4, "path %s", path)
		assert.Equal(t, pngMagic, body[:4], "path %s", path)
	}
}

func TestPlotQueuedRunConflict(t *testing.T) {
	router, service, _ := setupPlotRouter(t)

	run, err := service.Submit(testingpkg.NewGateSpecFixture())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/runs/"+run.ID+"/plots/cost.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPlotMissingRun(t *testing.T) {
	router, _, _ := setupPlotRouter(t)

	req := httptest.NewRequest("GET", "/runs/no-such-run/plots/cost.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlotBadOptions(t *testing.T) {
	router, service, executor := setupPlotRouter(t)

	gate := completeRun(t, service, executor, testingpkg.NewGateSpecFixture())

	cases := []struct {
		name string
		path string
	}{
		{"bad part", "/runs/" + gate.ID + "/plots/matrix.png?part=phase"},
		{"bad points", "/runs/" + gate.ID + "/plots/wigner.png?points=abc"},
		{"wigner on gate run", "/runs/" + gate.ID + "/plots/wigner.png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
