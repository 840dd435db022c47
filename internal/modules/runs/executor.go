package runs

import (
	"context"
	"errors"
	"time"

	evalprogress "github.com/adarsh-anand15/quantum-learning/internal/evaluation/progress"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/rs/zerolog"
)

// Executor drives one queued run to a terminal state. The work processor
// invokes it with a per-run cancellable context; everything here must
// leave the run record in a terminal state on return.
type Executor struct {
	log          zerolog.Logger
	repo         *Repository
	engine       *synthesis.Engine
	eventManager *events.Manager
	maxRunTime   time.Duration
}

// NewExecutor creates a run executor. maxRunTime bounds the wall clock of
// a single run; zero means no limit.
func NewExecutor(repo *Repository, engine *synthesis.Engine, eventManager *events.Manager, maxRunTime time.Duration, log zerolog.Logger) *Executor {
	return &Executor{
		log:          log.With().Str("component", "run_executor").Logger(),
		repo:         repo,
		engine:       engine,
		eventManager: eventManager,
		maxRunTime:   maxRunTime,
	}
}

// Execute claims the run and optimizes it to completion. Runs that are no
// longer queued are skipped without error so stale queue scans are harmless.
// detailed, when non-nil, receives multi-start evaluation updates.
func (e *Executor) Execute(ctx context.Context, runID string, detailed evalprogress.DetailedCallback) error {
	run, err := e.repo.Get(runID)
	if err != nil {
		return err
	}
	if run == nil {
		e.log.Warn().Str("run_id", runID).Msg("Run disappeared before execution")
		return nil
	}
	if run.Status != StatusQueued {
		e.log.Debug().Str("run_id", runID).Str("status", run.Status).Msg("Skipping non-queued run")
		return nil
	}

	claimed, err := e.repo.MarkRunning(runID)
	if err != nil {
		return err
	}
	if !claimed {
		e.log.Debug().Str("run_id", runID).Msg("Run claimed elsewhere")
		return nil
	}

	e.emit(&events.RunStatusData{
		RunID:     run.ID,
		Kind:      run.Kind,
		Status:    "started",
		Message:   run.Name,
		Timestamp: time.Now().UTC(),
	})

	runCtx := ctx
	if e.maxRunTime > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.maxRunTime)
		defer cancel()
	}

	start := time.Now()
	res, runErr := e.engine.RunWithDetailedProgress(runCtx, run.Spec, func(p synthesis.Progress) {
		e.emit(&events.RunStatusData{
			RunID:           run.ID,
			Kind:            run.Kind,
			Status:          "progress",
			Iteration:       p.Iteration,
			TotalIterations: p.Total,
			Cost:            p.Cost,
			Fidelity:        p.Fidelity,
			Timestamp:       time.Now().UTC(),
		})
	}, detailed)
	duration := time.Since(start).Seconds()

	// Engine returns the partial result alongside cancellation and timeout
	// errors; persist whatever trace exists before recording the outcome.
	if res != nil {
		if err := e.repo.SaveTrace(run.ID, res.FinalParams, res.Trace); err != nil {
			e.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to save trace")
		}
	}

	switch {
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)):
		if err := e.repo.MarkCancelled(run.ID); err != nil {
			return err
		}
		e.log.Info().Str("run_id", run.ID).Float64("duration", duration).Msg("Run cancelled")
		e.emit(&events.RunStatusData{
			RunID:     run.ID,
			Kind:      run.Kind,
			Status:    "cancelled",
			Duration:  duration,
			Timestamp: time.Now().UTC(),
		})
		return nil

	case runErr != nil:
		if err := e.repo.MarkFailed(run.ID, runErr.Error()); err != nil {
			return err
		}
		e.log.Error().Err(runErr).Str("run_id", run.ID).Msg("Run failed")
		e.emit(&events.RunStatusData{
			RunID:     run.ID,
			Kind:      run.Kind,
			Status:    "failed",
			Error:     runErr.Error(),
			Duration:  duration,
			Timestamp: time.Now().UTC(),
		})
		return runErr
	}

	if err := e.repo.MarkCompleted(run.ID, res); err != nil {
		return err
	}
	e.log.Info().
		Str("run_id", run.ID).
		Float64("cost", res.FinalCost).
		Float64("fidelity", res.Fidelity).
		Int("iterations", res.Iterations).
		Float64("duration", duration).
		Msg("Run completed")
	e.emit(&events.RunStatusData{
		RunID:       run.ID,
		Kind:        run.Kind,
		Status:      "completed",
		Iteration:   res.Iterations,
		Cost:        res.FinalCost,
		Fidelity:    res.Fidelity,
		MeanOverlap: res.MeanOverlap,
		Duration:    duration,
		Timestamp:   time.Now().UTC(),
	})
	return nil
}

func (e *Executor) emit(data *events.RunStatusData) {
	if e.eventManager == nil {
		return
	}
	e.eventManager.EmitTyped(data.EventType(), "runs", data)
}
