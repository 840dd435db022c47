package synthesis

import (
	"fmt"
	"math/rand/v2"

	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// Kind distinguishes what a run learns: a gate acting on the gate-cutoff
// subspace, or a state prepared from vacuum.
type Kind string

const (
	KindGate  Kind = "gate"
	KindState Kind = "state"
)

// ExperimentSpec is the full, self-contained description of one run.
type ExperimentSpec struct {
	Name            string          `json:"name" yaml:"name"`
	Kind            Kind            `json:"kind" yaml:"kind"`
	Target          targets.Spec    `json:"target" yaml:"target"`
	Hyperparameters Hyperparameters `json:"hyperparameters" yaml:"hyperparameters"`
}

// Validate checks the spec end to end, including a dry resolution of the
// target so malformed targets fail at submit time rather than mid-run.
func (s ExperimentSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("experiment name is required")
	}
	if s.Kind != KindGate && s.Kind != KindState {
		return fmt.Errorf("kind must be %q or %q, got %q", KindGate, KindState, s.Kind)
	}
	if err := s.Hyperparameters.Validate(); err != nil {
		return err
	}

	// Throwaway generator: seeded targets are re-resolved with the run seed
	// when the run actually starts.
	rnd := rand.New(rand.NewPCG(1, 1))
	switch s.Kind {
	case KindGate:
		if _, err := targets.ResolveGate(s.Target, s.Hyperparameters.GateCutoff, s.Hyperparameters.Modes, rnd); err != nil {
			return fmt.Errorf("invalid gate target: %w", err)
		}
	case KindState:
		if _, err := targets.ResolveState(s.Target, s.Hyperparameters.Cutoff, s.Hyperparameters.Modes, rnd); err != nil {
			return fmt.Errorf("invalid state target: %w", err)
		}
	}
	return nil
}
