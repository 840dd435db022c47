// Package runs provides persistence and lifecycle management for
// optimization runs: the submitted experiment spec, its queued/running
// state, and the stored results and trace.
package runs

import (
	"errors"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// Run status values
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// ErrRunActive is returned when an operation requires a non-running run.
var ErrRunActive = errors.New("run is currently executing")

// ErrRunFinished is returned when cancelling a run that already reached a
// terminal status.
var ErrRunFinished = errors.New("run already finished")

// Run represents a stored optimization run
type Run struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Kind        string                   `json:"kind"`
	Status      string                   `json:"status"`
	Spec        synthesis.ExperimentSpec `json:"spec"`
	Seed        int64                    `json:"seed"`
	FinalCost   *float64                 `json:"final_cost,omitempty"`
	Fidelity    *float64                 `json:"fidelity,omitempty"`
	MeanOverlap *float64                 `json:"mean_overlap,omitempty"`
	Iterations  int                      `json:"iterations"`
	Converged   bool                     `json:"converged"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	FinishedAt  *time.Time               `json:"finished_at,omitempty"`
}

// IsTerminal reports whether the run has reached a final status.
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
