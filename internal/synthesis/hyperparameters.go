package synthesis

import (
	"fmt"
	"math/rand/v2"

	"github.com/adarsh-anand15/quantum-learning/internal/circuit"
)

// Supported optimizer names.
const (
	OptimizerAdam       = "adam"
	OptimizerLBFGS      = "lbfgs"
	OptimizerNelderMead = "neldermead"
)

// Hyperparameters control the circuit shape and the optimization loop.
type Hyperparameters struct {
	Cutoff         int     `json:"cutoff" yaml:"cutoff"`
	GateCutoff     int     `json:"gate_cutoff" yaml:"gate_cutoff"`
	Depth          int     `json:"depth" yaml:"depth"`
	Modes          int     `json:"modes" yaml:"modes"`
	Reps           int     `json:"reps" yaml:"reps"`
	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	PassiveSD      float64 `json:"passive_sd" yaml:"passive_sd"`
	ActiveSD       float64 `json:"active_sd" yaml:"active_sd"`
	Regularization float64 `json:"regularization" yaml:"regularization"`
	Seed           int64   `json:"seed" yaml:"seed"`
	Optimizer      string  `json:"optimizer" yaml:"optimizer"`
	Tolerance      float64 `json:"tolerance" yaml:"tolerance"`
	Restarts       int     `json:"restarts" yaml:"restarts"`
}

// DefaultHyperparameters returns the baseline configuration for a
// single-mode run.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Cutoff:         10,
		GateCutoff:     4,
		Depth:          25,
		Modes:          1,
		Reps:           1000,
		LearningRate:   0.025,
		PassiveSD:      0.1,
		ActiveSD:       0.0001,
		Regularization: 0,
		Seed:           0,
		Optimizer:      OptimizerAdam,
		Tolerance:      1e-6,
		Restarts:       1,
	}
}

// Validate checks every field against its allowed range.
func (h Hyperparameters) Validate() error {
	if h.Cutoff < 2 || h.Cutoff > 32 {
		return fmt.Errorf("cutoff must be in [2,32], got %d", h.Cutoff)
	}
	if h.GateCutoff < 1 || h.GateCutoff > h.Cutoff {
		return fmt.Errorf("gate_cutoff must be in [1,%d], got %d", h.Cutoff, h.GateCutoff)
	}
	if h.Depth < 1 || h.Depth > 200 {
		return fmt.Errorf("depth must be in [1,200], got %d", h.Depth)
	}
	if h.Modes != 1 && h.Modes != 2 {
		return fmt.Errorf("modes must be 1 or 2, got %d", h.Modes)
	}
	if h.Reps < 1 || h.Reps > 200000 {
		return fmt.Errorf("reps must be in [1,200000], got %d", h.Reps)
	}
	if h.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %g", h.LearningRate)
	}
	if h.PassiveSD <= 0 {
		return fmt.Errorf("passive_sd must be positive, got %g", h.PassiveSD)
	}
	if h.ActiveSD <= 0 {
		return fmt.Errorf("active_sd must be positive, got %g", h.ActiveSD)
	}
	if h.Regularization < 0 {
		return fmt.Errorf("regularization must be non-negative, got %g", h.Regularization)
	}
	switch h.Optimizer {
	case OptimizerAdam, OptimizerLBFGS, OptimizerNelderMead:
	default:
		return fmt.Errorf("unknown optimizer %q", h.Optimizer)
	}
	if h.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", h.Tolerance)
	}
	if h.Restarts < 1 || h.Restarts > 64 {
		return fmt.Errorf("restarts must be in [1,64], got %d", h.Restarts)
	}
	return nil
}

// Layout returns the circuit layout these hyperparameters describe.
func (h Hyperparameters) Layout() circuit.Layout {
	return circuit.Layout{Modes: h.Modes, Depth: h.Depth, Cutoff: h.Cutoff}
}

// EnsureSeed fills in a seed drawn from the process-level generator when none
// was given, so every stored run is reproducible from its recorded spec.
func (h *Hyperparameters) EnsureSeed() {
	for h.Seed == 0 {
		h.Seed = int64(rand.Uint64() >> 1)
	}
}
