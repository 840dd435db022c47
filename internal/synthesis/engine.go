// Package synthesis drives gradient-based optimization of layered
// continuous-variable circuits toward a target gate or state.
package synthesis

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	adamw "github.com/n0madic/go-adamw"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/adarsh-anand15/quantum-learning/internal/circuit"
	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/models"
	evalprogress "github.com/adarsh-anand15/quantum-learning/internal/evaluation/progress"
	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/scoring"
	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/workers"
	"github.com/adarsh-anand15/quantum-learning/internal/utils"
)

// TracePoint is one iteration of the optimization history.
type TracePoint struct {
	Iteration   int     `json:"iteration" msgpack:"i"`
	Cost        float64 `json:"cost" msgpack:"c"`
	Fidelity    float64 `json:"fidelity" msgpack:"f"`
	MeanOverlap float64 `json:"mean_overlap" msgpack:"m"`
	GradNorm    float64 `json:"grad_norm" msgpack:"g"`
}

// Result is the outcome of one synthesis run. Trace is carried separately
// from the summary fields so callers can persist it as a blob.
type Result struct {
	Seed        int64        `json:"seed"`
	FinalParams []float64    `json:"final_params,omitempty"`
	FinalCost   float64      `json:"final_cost"`
	Fidelity    float64      `json:"fidelity"`
	MeanOverlap float64      `json:"mean_overlap,omitempty"`
	Iterations  int          `json:"iterations"`
	Converged   bool         `json:"converged"`
	Trace       []TracePoint `json:"-"`
}

// Progress is a throttled snapshot of a running optimization.
type Progress struct {
	Iteration int
	Total     int
	Cost      float64
	Fidelity  float64
	GradNorm  float64
}

// ProgressFn receives progress snapshots, at most one per throttle interval.
type ProgressFn func(Progress)

const progressInterval = 100 * time.Millisecond

// Engine runs experiment specs to completion.
type Engine struct {
	log     zerolog.Logger
	workers int
}

// NewEngine creates an engine. workers bounds the multi-start evaluation
// pool; non-positive values use the pool default.
func NewEngine(log zerolog.Logger, workers int) *Engine {
	return &Engine{
		log:     log.With().Str("component", "synthesis").Logger(),
		workers: workers,
	}
}

// Run optimizes the spec's circuit against its target. On cancellation the
// partial result accumulated so far is returned along with the context error.
func (e *Engine) Run(ctx context.Context, spec ExperimentSpec, progress ProgressFn) (*Result, error) {
	return e.RunWithDetailedProgress(ctx, spec, progress, nil)
}

// RunWithDetailedProgress optimizes like Run and additionally feeds rich
// multi-start updates to detailed, so callers can surface the candidate
// scan that happens before the first iteration reports.
func (e *Engine) RunWithDetailedProgress(ctx context.Context, spec ExperimentSpec, progress ProgressFn, detailed evalprogress.DetailedCallback) (*Result, error) {
	hp := spec.Hyperparameters
	hp.EnsureSeed()
	spec.Hyperparameters = hp

	rnd := rand.New(rand.NewPCG(uint64(hp.Seed), uint64(hp.Seed)))
	ev, err := NewEvaluator(spec, rnd)
	if err != nil {
		return nil, err
	}

	timer := utils.NewTimer("synthesis_run", e.log)
	defer timer.Stop()

	params, err := e.pickInitial(hp, ev, rnd, detailed)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("name", spec.Name).
		Str("kind", string(spec.Kind)).
		Str("optimizer", hp.Optimizer).
		Int64("seed", hp.Seed).
		Int("params", len(params)).
		Msg("Starting synthesis run")

	var res *Result
	switch hp.Optimizer {
	case OptimizerAdam:
		res, err = e.runAdam(ctx, hp, ev, params, progress)
	default:
		res, err = e.runMinimize(ctx, hp, ev, params, progress)
	}
	if res != nil {
		res.Seed = hp.Seed
	}
	if err != nil {
		return res, err
	}

	e.log.Info().
		Str("name", spec.Name).
		Float64("cost", res.FinalCost).
		Float64("fidelity", res.Fidelity).
		Int("iterations", res.Iterations).
		Bool("converged", res.Converged).
		Msg("Synthesis run finished")
	return res, nil
}

// pickInitial draws the starting parameter vector. With restarts enabled the
// candidates are scored in parallel and the cheapest one seeds the loop.
// detailed, when non-nil, receives the pool's per-candidate updates.
func (e *Engine) pickInitial(hp Hyperparameters, ev *Evaluator, rnd *rand.Rand, detailed evalprogress.DetailedCallback) ([]float64, error) {
	layout := ev.Layout()
	if hp.Restarts <= 1 {
		return circuit.InitParams(layout, hp.PassiveSD, hp.ActiveSD, rnd), nil
	}

	candidates := make([]models.Candidate, hp.Restarts)
	for i := range candidates {
		candidates[i] = models.Candidate{
			Index:  i,
			Params: circuit.InitParams(layout, hp.PassiveSD, hp.ActiveSD, rnd),
		}
	}

	pool := workers.NewWorkerPool(e.workers)
	evalCtx := models.EvaluationContext{Cost: ev.Cost}

	var results []models.Result
	if detailed != nil {
		results = pool.EvaluateBatchDetailed(candidates, evalCtx, func(u evalprogress.Update) {
			e.log.Debug().Int("current", u.Current).Int("total", u.Total).Msg(u.Message)
			detailed(u)
		})
	} else {
		results = pool.EvaluateBatch(candidates, evalCtx, func(current, total int, message string) {
			e.log.Debug().Int("current", current).Int("total", total).Msg(message)
		})
	}

	best := scoring.Best(results)
	if best < 0 {
		return nil, fmt.Errorf("no finite-cost candidate among %d restarts", hp.Restarts)
	}

	e.log.Info().
		Int("candidates", hp.Restarts).
		Int("selected", results[best].Candidate.Index).
		Float64("cost", results[best].Cost).
		Msg("Selected multi-start candidate")
	return results[best].Candidate.Params, nil
}

// runAdam is the explicit per-iteration loop: evaluate, record, check for a
// plateau, step.
func (e *Engine) runAdam(ctx context.Context, hp Hyperparameters, ev *Evaluator, params []float64, progress ProgressFn) (*Result, error) {
	// Regularization is decoupled weight decay here, masked to the active
	// parameters; the quasi-Newton paths carry the same term inside the
	// objective instead.
	opt, err := adamw.New(params, adamw.Options{
		Alpha:       hp.LearningRate,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		WeightDecay: hp.Regularization,
		Schedule:    adamw.NewFixedSchedule(1.0, 0),
		DecayMask:   ev.Layout().ActiveMask(),
	})
	if err != nil {
		return nil, fmt.Errorf("adam init: %w", err)
	}

	var (
		trace     = make([]TracePoint, 0, hp.Reps)
		costs     = make([]float64, 0, hp.Reps)
		grad      = make([]float64, len(params))
		converged bool
		last      Metrics
		lastEmit  time.Time
	)

	for it := 0; it < hp.Reps; it++ {
		select {
		case <-ctx.Done():
			return finishResult(params, last, trace, false), ctx.Err()
		default:
		}

		m, err := ev.Metrics(params)
		if err != nil {
			return nil, err
		}
		last = m

		ev.RawGradient(grad, params)
		gn := floats.Norm(grad, 2)

		trace = append(trace, TracePoint{
			Iteration:   it,
			Cost:        m.Cost,
			Fidelity:    m.Fidelity,
			MeanOverlap: m.MeanOverlap,
			GradNorm:    gn,
		})
		costs = append(costs, m.Cost)

		if progress != nil && (time.Since(lastEmit) >= progressInterval || it == hp.Reps-1) {
			lastEmit = time.Now()
			progress(Progress{Iteration: it + 1, Total: hp.Reps, Cost: m.Cost, Fidelity: m.Fidelity, GradNorm: gn})
		}

		if (it+1)%checkInterval == 0 && plateaued(costs, gn, hp.Tolerance) {
			converged = true
			break
		}

		if err := opt.Step(params, grad); err != nil {
			return nil, fmt.Errorf("adam step: %w", err)
		}
	}

	final, err := ev.Metrics(params)
	if err != nil {
		return nil, err
	}
	return finishResult(params, final, trace, converged), nil
}

func finishResult(params []float64, m Metrics, trace []TracePoint, converged bool) *Result {
	return &Result{
		FinalParams: append([]float64(nil), params...),
		FinalCost:   m.Cost,
		Fidelity:    m.Fidelity,
		MeanOverlap: m.MeanOverlap,
		Iterations:  len(trace),
		Converged:   converged,
		Trace:       trace,
	}
}
