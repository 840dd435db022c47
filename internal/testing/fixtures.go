package testing

import (
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// NewGateSpecFixture returns a small single-mode gate experiment spec for
// use in tests. The dimensions are kept tiny so runs finish in milliseconds.
func NewGateSpecFixture() synthesis.ExperimentSpec {
	return synthesis.ExperimentSpec{
		Name: "test-cubic-phase",
		Kind: synthesis.KindGate,
		Target: targets.Spec{
			Type:   "cubic_phase",
			Params: map[string]float64{"gamma": 0.1},
		},
		Hyperparameters: synthesis.Hyperparameters{
			Cutoff:         6,
			GateCutoff:     3,
			Depth:          2,
			Modes:          1,
			Reps:           5,
			LearningRate:   0.025,
			PassiveSD:      0.1,
			ActiveSD:       0.0001,
			Regularization: 0,
			Seed:           42,
			Optimizer:      synthesis.OptimizerAdam,
			Tolerance:      1e-6,
			Restarts:       1,
		},
	}
}

// NewStateSpecFixture returns a small single-mode state experiment spec
// for use in tests.
func NewStateSpecFixture() synthesis.ExperimentSpec {
	spec := NewGateSpecFixture()
	spec.Name = "test-single-photon"
	spec.Kind = synthesis.KindState
	spec.Target = targets.Spec{
		Type:   "fock",
		Params: map[string]float64{"n": 1},
	}
	return spec
}

// NewTwoModeSpecFixture returns a small two-mode gate experiment spec for
// use in tests.
func NewTwoModeSpecFixture() synthesis.ExperimentSpec {
	spec := NewGateSpecFixture()
	spec.Name = "test-cross-kerr"
	spec.Kind = synthesis.KindGate
	spec.Target = targets.Spec{
		Type:   "cross_kerr",
		Params: map[string]float64{"kappa": 0.05},
	}
	spec.Hyperparameters.Cutoff = 4
	spec.Hyperparameters.GateCutoff = 2
	spec.Hyperparameters.Modes = 2
	return spec
}

// NewInvalidSpecFixture returns a spec that fails validation (unknown
// target type) for use in negative tests.
func NewInvalidSpecFixture() synthesis.ExperimentSpec {
	spec := NewGateSpecFixture()
	spec.Target = targets.Spec{Type: "does-not-exist"}
	return spec
}

// NewExperimentSpecFixtures returns one spec of each supported shape.
func NewExperimentSpecFixtures() []synthesis.ExperimentSpec {
	return []synthesis.ExperimentSpec{
		NewGateSpecFixture(),
		NewStateSpecFixture(),
		NewTwoModeSpecFixture(),
	}
}
