package synthesis

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// runMinimize drives the quasi-Newton and simplex optimizers through gonum.
// The cost wrapper records every evaluation as a trace point; when the
// primary method ends in an unusable status the fallback method retries from
// the same start.
func (e *Engine) runMinimize(ctx context.Context, hp Hyperparameters, ev *Evaluator, initial []float64, progress ProgressFn) (*Result, error) {
	var (
		mu       sync.Mutex
		trace    []TracePoint
		lastEmit time.Time
	)

	record := func(x []float64) float64 {
		if ctx.Err() != nil {
			// NaN aborts the line search once the context is cancelled.
			return math.NaN()
		}
		m, err := ev.Metrics(x)
		if err != nil {
			return math.Inf(1)
		}

		mu.Lock()
		it := len(trace)
		trace = append(trace, TracePoint{Iteration: it, Cost: m.Cost, Fidelity: m.Fidelity, MeanOverlap: m.MeanOverlap})
		emit := progress != nil && time.Since(lastEmit) >= progressInterval
		if emit {
			lastEmit = time.Now()
		}
		mu.Unlock()

		if emit {
			progress(Progress{Iteration: it + 1, Total: hp.Reps, Cost: m.Cost, Fidelity: m.Fidelity})
		}
		return m.Cost
	}

	problem := optimize.Problem{
		Func: record,
		Grad: func(grad, x []float64) { ev.Gradient(grad, x) },
	}
	settings := &optimize.Settings{MajorIterations: hp.Reps}
	primary, fallback := methodsFor(hp.Optimizer)

	result, err := optimize.Minimize(problem, initial, settings, primary)
	if ctx.Err() != nil {
		return partialResult(trace), ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}
	if !acceptableStatus(result.Status) {
		result, err = optimize.Minimize(problem, initial, settings, fallback)
		if ctx.Err() != nil {
			return partialResult(trace), ctx.Err()
		}
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if !acceptableStatus(result.Status) {
			return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
		}
	}

	m, err := ev.Metrics(result.X)
	if err != nil {
		return nil, err
	}
	return finishResult(result.X, m, trace, convergedStatus(result.Status)), nil
}

func methodsFor(name string) (primary, fallback optimize.Method) {
	if name == OptimizerNelderMead {
		return &optimize.NelderMead{}, &optimize.BFGS{}
	}
	return &optimize.LBFGS{}, &optimize.NelderMead{}
}

// acceptableStatus covers true convergence plus exhausting the iteration
// budget, which is a legitimate outcome for a bounded run.
func acceptableStatus(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.IterationLimit, optimize.FunctionEvaluationLimit:
		return true
	}
	return false
}

func convergedStatus(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

func partialResult(trace []TracePoint) *Result {
	res := &Result{Iterations: len(trace), Trace: trace}
	if n := len(trace); n > 0 {
		last := trace[n-1]
		res.FinalCost = last.Cost
		res.Fidelity = last.Fidelity
		res.MeanOverlap = last.MeanOverlap
	}
	return res
}
