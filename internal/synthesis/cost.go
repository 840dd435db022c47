package synthesis

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/adarsh-anand15/quantum-learning/internal/circuit"
	"github.com/adarsh-anand15/quantum-learning/internal/fock"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// Metrics reports the cost terms and overlap measures for one parameter
// vector. Fidelity is the process fidelity for gate runs and the state
// fidelity for state runs; MeanOverlap is only meaningful for gate runs.
type Metrics struct {
	Cost        float64 `json:"cost"`
	RawCost     float64 `json:"raw_cost"`
	Fidelity    float64 `json:"fidelity"`
	MeanOverlap float64 `json:"mean_overlap,omitempty"`
}

// Evaluator computes the objective for one experiment. It resolves the
// target once up front; Cost and Metrics are pure after that and safe for
// concurrent use since every call builds its own circuit.
type Evaluator struct {
	layout circuit.Layout
	kind   Kind
	active []bool
	reg    float64

	// gate runs
	gateTarget *mat.CDense
	indices    []int
	subDim     int

	// state runs
	stateTarget []complex128
}

// NewEvaluator resolves the target and prepares cost evaluation. Target
// resolution draws from rnd, so seeded random targets are reproducible.
func NewEvaluator(spec ExperimentSpec, rnd *rand.Rand) (*Evaluator, error) {
	hp := spec.Hyperparameters
	if err := hp.Validate(); err != nil {
		return nil, err
	}

	layout := hp.Layout()
	e := &Evaluator{
		layout: layout,
		kind:   spec.Kind,
		active: layout.ActiveMask(),
		reg:    hp.Regularization,
	}

	switch spec.Kind {
	case KindGate:
		target, err := targets.ResolveGate(spec.Target, hp.GateCutoff, hp.Modes, rnd)
		if err != nil {
			return nil, err
		}
		e.gateTarget = target
		e.indices = targets.SubspaceIndices(hp.Cutoff, hp.GateCutoff, hp.Modes)
		e.subDim = targets.SubspaceDim(hp.GateCutoff, hp.Modes)
	case KindState:
		target, err := targets.ResolveState(spec.Target, hp.Cutoff, hp.Modes, rnd)
		if err != nil {
			return nil, err
		}
		e.stateTarget = target
	default:
		return nil, fmt.Errorf("unknown experiment kind %q", spec.Kind)
	}
	return e, nil
}

// Layout returns the circuit layout the evaluator builds.
func (e *Evaluator) Layout() circuit.Layout { return e.layout }

// Kind returns what the evaluator measures against.
func (e *Evaluator) Kind() Kind { return e.kind }

// Cost returns the scalar objective for one parameter vector. Malformed
// vectors score +Inf so batch evaluation can skip them.
func (e *Evaluator) Cost(params []float64) float64 {
	m, err := e.Metrics(params)
	if err != nil {
		return math.Inf(1)
	}
	return m.Cost
}

// Metrics builds the circuit once and returns cost and overlap measures
// together.
func (e *Evaluator) Metrics(params []float64) (Metrics, error) {
	u, err := circuit.Build(e.layout, params)
	if err != nil {
		return Metrics{}, err
	}

	var m Metrics
	if e.kind == KindGate {
		var sum complex128
		var sumRe float64
		for j := 0; j < e.subDim; j++ {
			col := e.indices[j]
			var c complex128
			for k := 0; k < e.subDim; k++ {
				c += cmplx.Conj(e.gateTarget.At(k, j)) * u.At(e.indices[k], col)
			}
			sum += c
			sumRe += real(c)
		}
		d := float64(e.subDim)
		m.MeanOverlap = sumRe / d
		m.RawCost = math.Abs(sumRe - d)
		m.Fidelity = real(sum*cmplx.Conj(sum)) / (d * d)
	} else {
		psi := fock.Column(u, 0)
		m.Fidelity = fock.Fidelity(e.stateTarget, psi)
		m.RawCost = 1 - m.Fidelity
	}
	m.Cost = m.RawCost + e.penalty(params)
	return m, nil
}

// Gradient fills dst with the central-difference gradient of Cost at params.
func (e *Evaluator) Gradient(dst, params []float64) {
	fd.Gradient(dst, e.Cost, params, &fd.Settings{Formula: fd.Central, Concurrent: true})
}

// RawGradient fills dst with the gradient of the raw cost, excluding the L2
// term. The adam optimizer applies that term as decoupled weight decay
// instead of differentiating through it.
func (e *Evaluator) RawGradient(dst, params []float64) {
	fd.Gradient(dst, e.rawCost, params, &fd.Settings{Formula: fd.Central, Concurrent: true})
}

func (e *Evaluator) rawCost(params []float64) float64 {
	m, err := e.Metrics(params)
	if err != nil {
		return math.Inf(1)
	}
	return m.RawCost
}

// TargetGate returns the resolved target unitary for gate runs, nil for
// state runs.
func (e *Evaluator) TargetGate() *mat.CDense { return e.gateTarget }

// TargetState returns the resolved target vector for state runs, nil for
// gate runs.
func (e *Evaluator) TargetState() []complex128 { return e.stateTarget }

// LearnedGate builds the circuit at params and projects it onto the gate
// subspace, the d×d block the cost compares against the target.
func (e *Evaluator) LearnedGate(params []float64) (*mat.CDense, error) {
	if e.kind != KindGate {
		return nil, fmt.Errorf("learned gate requested for a %s run", e.kind)
	}
	u, err := circuit.Build(e.layout, params)
	if err != nil {
		return nil, err
	}
	out := mat.NewCDense(e.subDim, e.subDim, nil)
	for k := 0; k < e.subDim; k++ {
		for j := 0; j < e.subDim; j++ {
			out.Set(k, j, u.At(e.indices[k], e.indices[j]))
		}
	}
	return out, nil
}

// LearnedState builds the circuit at params and applies it to the vacuum.
func (e *Evaluator) LearnedState(params []float64) ([]complex128, error) {
	u, err := circuit.Build(e.layout, params)
	if err != nil {
		return nil, err
	}
	return fock.Column(u, 0), nil
}

func (e *Evaluator) penalty(params []float64) float64 {
	if e.reg == 0 {
		return 0
	}
	var s float64
	for i, p := range params {
		if e.active[i] {
			s += p * p
		}
	}
	return e.reg * s
}
