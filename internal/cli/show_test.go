package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// completedGateRun builds a fully populated finished run with fixed
// timestamps, so its rendered form is byte-stable.
func completedGateRun() *runs.Run {
	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	started := created.Add(5 * time.Second)
	finished := started.Add(4*time.Minute + 32*time.Second)
	finalCost := 0.001234
	fidelity := 0.998766

	return &runs.Run{
		ID:     "1f0c9c80-55a1-4f3a-9c6e-2b7d8e4a1c01",
		Name:   "cubic-phase-gate",
		Kind:   "gate",
		Status: "completed",
		Spec: synthesis.ExperimentSpec{
			Name:   "cubic-phase-gate",
			Kind:   synthesis.KindGate,
			Target: targets.Spec{Type: "cubic_phase", Params: map[string]float64{"gamma": 0.1}},
			Hyperparameters: synthesis.Hyperparameters{
				Cutoff:       10,
				GateCutoff:   4,
				Depth:        25,
				Modes:        1,
				Reps:         5000,
				LearningRate: 0.025,
				Optimizer:    synthesis.OptimizerAdam,
			},
		},
		Seed:       42,
		FinalCost:  &finalCost,
		Fidelity:   &fidelity,
		Iterations: 2000,
		Converged:  true,
		CreatedAt:  created,
		StartedAt:  &started,
		FinishedAt: &finished,
	}
}

func TestShowRunGolden(t *testing.T) {
	run := completedGateRun()
	srv := httptest.NewServer(serveJSON(t, http.StatusOK, envelope(run)))
	defer srv.Close()

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Server: srv.URL})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{run.ID})
	require.NoError(t, cmd.Execute())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "show_completed_run", buf.Bytes())
}

func TestShowRunNotFound(t *testing.T) {
	srv := httptest.NewServer(serveJSON(t, http.StatusNotFound, map[string]string{
		"error": "Run not found: missing",
	}))
	defer srv.Close()

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Server: srv.URL})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"missing"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run not found")
}

func TestFormatTargetSortsParams(t *testing.T) {
	spec := targets.Spec{
		Type:   "squeeze",
		Params: map[string]float64{"phi": 0.5, "r": 1.2},
	}
	assert.Equal(t, "squeeze (phi=0.5, r=1.2)", formatTarget(spec))
	assert.Equal(t, "vacuum", formatTarget(targets.Spec{Type: "vacuum"}))
}
