// Package work provides the background work processor that drives run
// execution and housekeeping for the synthesis service.
package work

import (
	"context"
	"strings"
	"time"
)

// DefaultMaxAttempts is the number of attempts a failing work item gets
// when its work type does not set its own limit.
const DefaultMaxAttempts = 3

// Priority defines the execution priority of work types.
type Priority int

const (
	// PriorityLow is for housekeeping work (cache pruning, checkpoints).
	PriorityLow Priority = iota
	// PriorityMedium is for regular background work.
	PriorityMedium
	// PriorityHigh is for important work (retention sweeps, backups).
	PriorityHigh
	// PriorityCritical is for user-facing work (queued synthesis runs).
	PriorityCritical
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// WorkType defines a type of work that can be executed.
// Work types are registered once and can generate multiple work items.
type WorkType struct {
	// ID is the unique identifier for this work type (e.g. "runs:execute", "cache:prune").
	ID string

	// Name is a short human-readable label shown in the API.
	Name string

	// Priority determines execution order when multiple work items are eligible.
	Priority Priority

	// Interval is the minimum time between completed executions (0 = on-demand only).
	Interval time.Duration

	// MaxAttempts caps how often a failing item is attempted (0 = DefaultMaxAttempts).
	MaxAttempts int

	// Timeout bounds a single execution. Zero means no processor-imposed
	// deadline; the work is expected to manage its own.
	Timeout time.Duration

	// FindSubjects returns subjects that currently need this work.
	// Returns []string{""} for global work, nil if no work is needed.
	FindSubjects func(ctx context.Context) ([]string, error)

	// Execute performs the work for a given subject.
	// Subject is the run ID for per-run work, empty string for global work.
	Execute func(ctx context.Context, subject string, progress *ProgressReporter) error
}

// maxAttempts returns the effective attempt limit for this work type.
func (wt *WorkType) maxAttempts() int {
	if wt.MaxAttempts > 0 {
		return wt.MaxAttempts
	}
	return DefaultMaxAttempts
}

// WorkItem represents a specific unit of work to be executed.
type WorkItem struct {
	// ID is the full work ID including subject (e.g. "runs:execute:<run-id>").
	ID string

	// TypeID is the work type ID (e.g. "runs:execute").
	TypeID string

	// Subject is the run ID for per-run work, empty for global work.
	Subject string

	// Attempts is the number of times this item has been executed.
	Attempts int

	// CreatedAt is when this work item was created.
	CreatedAt time.Time
}

// NewWorkItem creates a new work item from a work type and subject.
func NewWorkItem(workType *WorkType, subject string) *WorkItem {
	id := workType.ID
	if subject != "" {
		id = workType.ID + ":" + subject
	}

	return &WorkItem{
		ID:        id,
		TypeID:    workType.ID,
		Subject:   subject,
		CreatedAt: time.Now(),
	}
}

// ParseWorkID extracts the work type ID and subject from a full work ID.
// For example, "runs:execute:02f1..." returns ("runs:execute", "02f1...").
// For "cache:prune", returns ("cache:prune", "").
func ParseWorkID(id string) (typeID string, subject string) {
	// Work type IDs have the form "category:name"; anything beyond the
	// second colon belongs to the subject.
	parts := strings.Split(id, ":")
	if len(parts) <= 2 {
		return id, ""
	}

	return strings.Join(parts[:2], ":"), strings.Join(parts[2:], ":")
}
