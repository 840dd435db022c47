package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

func TestDefaultHyperparametersAreValid(t *testing.T) {
	hp := DefaultHyperparameters()
	assert.NoError(t, hp.Validate())
	assert.Equal(t, 10, hp.Cutoff)
	assert.Equal(t, 4, hp.GateCutoff)
	assert.Equal(t, 25, hp.Depth)
	assert.Equal(t, OptimizerAdam, hp.Optimizer)
}

func TestHyperparametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Hyperparameters)
	}{
		{"cutoff too small", func(h *Hyperparameters) { h.Cutoff = 1 }},
		{"cutoff too large", func(h *Hyperparameters) { h.Cutoff = 33 }},
		{"gate cutoff above cutoff", func(h *Hyperparameters) { h.GateCutoff = h.Cutoff + 1 }},
		{"gate cutoff zero", func(h *Hyperparameters) { h.GateCutoff = 0 }},
		{"depth zero", func(h *Hyperparameters) { h.Depth = 0 }},
		{"depth too large", func(h *Hyperparameters) { h.Depth = 201 }},
		{"three modes", func(h *Hyperparameters) { h.Modes = 3 }},
		{"zero reps", func(h *Hyperparameters) { h.Reps = 0 }},
		{"negative learning rate", func(h *Hyperparameters) { h.LearningRate = -0.1 }},
		{"zero passive sd", func(h *Hyperparameters) { h.PassiveSD = 0 }},
		{"zero active sd", func(h *Hyperparameters) { h.ActiveSD = 0 }},
		{"negative regularization", func(h *Hyperparameters) { h.Regularization = -1 }},
		{"unknown optimizer", func(h *Hyperparameters) { h.Optimizer = "sgd" }},
		{"zero tolerance", func(h *Hyperparameters) { h.Tolerance = 0 }},
		{"zero restarts", func(h *Hyperparameters) { h.Restarts = 0 }},
		{"too many restarts", func(h *Hyperparameters) { h.Restarts = 65 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := DefaultHyperparameters()
			tt.mutate(&hp)
			assert.Error(t, hp.Validate())
		})
	}
}

func TestEnsureSeed(t *testing.T) {
	hp := DefaultHyperparameters()
	require.Zero(t, hp.Seed)

	hp.EnsureSeed()
	assert.NotZero(t, hp.Seed)

	// An explicit seed is never overwritten
	fixed := Hyperparameters{Seed: 42}
	fixed.EnsureSeed()
	assert.Equal(t, int64(42), fixed.Seed)
}

func TestHyperparametersLayout(t *testing.T) {
	hp := DefaultHyperparameters()
	hp.Modes = 2
	hp.Depth = 12
	hp.Cutoff = 6

	layout := hp.Layout()
	assert.Equal(t, 2, layout.Modes)
	assert.Equal(t, 12, layout.Depth)
	assert.Equal(t, 36, layout.Dim())
}

func TestExperimentSpecValidate(t *testing.T) {
	valid := func() ExperimentSpec {
		hp := DefaultHyperparameters()
		hp.Cutoff = 6
		hp.GateCutoff = 3
		hp.Depth = 2
		return ExperimentSpec{
			Name:            "cubic-phase",
			Kind:            KindGate,
			Target:          targets.Spec{Type: "cubic_phase", Params: map[string]float64{"gamma": 0.1}},
			Hyperparameters: hp,
		}
	}

	t.Run("valid gate spec", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("valid state spec", func(t *testing.T) {
		spec := valid()
		spec.Kind = KindState
		spec.Target = targets.Spec{Type: "fock", Params: map[string]float64{"n": 1}}
		assert.NoError(t, spec.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		spec := valid()
		spec.Name = ""
		assert.Error(t, spec.Validate())
	})

	t.Run("bad kind", func(t *testing.T) {
		spec := valid()
		spec.Kind = "circuit"
		assert.Error(t, spec.Validate())
	})

	t.Run("bad hyperparameters", func(t *testing.T) {
		spec := valid()
		spec.Hyperparameters.Depth = 0
		assert.Error(t, spec.Validate())
	})

	t.Run("unknown target", func(t *testing.T) {
		spec := valid()
		spec.Target = targets.Spec{Type: "toffoli"}
		err := spec.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid gate target")
	})

	t.Run("missing target parameter", func(t *testing.T) {
		spec := valid()
		spec.Target = targets.Spec{Type: "cubic_phase"}
		assert.Error(t, spec.Validate())
	})

	t.Run("state target on gate run", func(t *testing.T) {
		spec := valid()
		spec.Target = targets.Spec{Type: "fock", Params: map[string]float64{"n": 1}}
		assert.Error(t, spec.Validate())
	})
}
