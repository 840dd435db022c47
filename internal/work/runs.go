package work

import (
	"context"

	evalprogress "github.com/adarsh-anand15/quantum-learning/internal/evaluation/progress"
)

// RunQueue lists queued runs in submission order.
type RunQueue interface {
	QueuedRunIDs() ([]string, error)
}

// RunExecutor claims and executes a single queued run. Multi-start
// evaluation updates flow through detailed when it is non-nil.
type RunExecutor interface {
	Execute(ctx context.Context, runID string, detailed evalprogress.DetailedCallback) error
}

// RunDeps contains the dependencies for the run execution work type.
type RunDeps struct {
	Queue    RunQueue
	Executor RunExecutor
}

// RegisterRunWorkTypes registers the work type that drains queued
// synthesis runs. Each queued run becomes its own work item, so multiple
// slots execute distinct runs concurrently.
func RegisterRunWorkTypes(registry *Registry, deps *RunDeps) {
	registry.Register(&WorkType{
		ID:       "runs:execute",
		Name:     "Execute queued synthesis runs",
		Priority: PriorityCritical,
		// A failed optimization would fail the same way on a retry with
		// the same seed, and the run record already holds the failure.
		MaxAttempts: 1,
		// No processor deadline: the executor enforces the configured
		// per-run time limit itself.
		FindSubjects: func(ctx context.Context) ([]string, error) {
			return deps.Queue.QueuedRunIDs()
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			// The executor records the terminal status itself, including
			// on cancellation, so outcomes here mirror the run record.
			// Candidate-scan updates land on the work stream so the
			// dashboard shows activity before the first iteration.
			return deps.Executor.Execute(ctx, subject, func(u evalprogress.Update) {
				progress.ReportWithDetails(u.Current, u.Total, u.Message, u.Details)
			})
		},
	})
}
