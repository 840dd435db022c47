package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStatusData contains data for run lifecycle events
type RunStatusData struct {
	RunID           string    `json:"run_id"`
	Kind            string    `json:"kind,omitempty"`
	Status          string    `json:"status"` // "queued", "started", "running", "progress", "completed", "failed", "cancelled"
	Iteration       int       `json:"iteration,omitempty"`
	TotalIterations int       `json:"total_iterations,omitempty"`
	Cost            float64   `json:"cost,omitempty"`
	Fidelity        float64   `json:"fidelity,omitempty"`
	MeanOverlap     float64   `json:"mean_overlap,omitempty"`
	Message         string    `json:"message,omitempty"`
	Error           string    `json:"error,omitempty"`
	Duration        float64   `json:"duration,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventType returns the event type for RunStatusData
// Note: The actual event type is determined by the Status field
func (d *RunStatusData) EventType() EventType {
	switch d.Status {
	case "queued":
		return RunQueued
	case "started":
		return RunStarted
	case "progress":
		return RunProgress
	case "completed":
		return RunCompleted
	case "failed":
		return RunFailed
	case "cancelled":
		return RunCancelled
	default:
		return RunQueued
	}
}

// MaintenanceData contains data for MaintenanceCompleted events
type MaintenanceData struct {
	Task     string                 `json:"task"` // "daily", "weekly"
	Duration float64                `json:"duration"`
	Errors   int                    `json:"errors,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// EventType returns the event type for MaintenanceData
func (d *MaintenanceData) EventType() EventType {
	return MaintenanceCompleted
}

// BackupData contains data for BackupCompleted events
type BackupData struct {
	Archive   string   `json:"archive"`
	SizeBytes int64    `json:"size_bytes"`
	Databases []string `json:"databases,omitempty"`
	Uploaded  bool     `json:"uploaded"`
	Duration  float64  `json:"duration"`
}

// EventType returns the event type for BackupData
func (d *BackupData) EventType() EventType {
	return BackupCompleted
}

// SystemStatusData contains data for SystemStatusChanged events
type SystemStatusData struct {
	Status     string `json:"status,omitempty"`
	ActiveRuns int    `json:"active_runs"`
	QueuedRuns int    `json:"queued_runs"`
	Timestamp  string `json:"timestamp"`
}

// EventType returns the event type for SystemStatusData
func (d *SystemStatusData) EventType() EventType {
	return SystemStatusChanged
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// JobProgressInfo contains progress information for a job.
// Supports hierarchical progress with Phase, SubPhase, and Details for rich progress reporting.
type JobProgressInfo struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`

	// Phase identifies the current high-level operation (e.g., "candidate_evaluation",
	// "gradient_descent", "archive")
	Phase string `json:"phase,omitempty"`

	// SubPhase identifies the specific sub-operation within a phase (e.g., "restart_2",
	// "stage", "upload")
	SubPhase string `json:"sub_phase,omitempty"`

	// Details contains arbitrary key-value metrics for the current phase.
	// Common keys include:
	// - For candidate_evaluation: workers_active, evaluated, failed_count, best_cost
	// - For gradient_descent: cost, fidelity, grad_norm, iterations_per_second
	// - For archive: databases_done, bytes_written
	Details map[string]interface{} `json:"details,omitempty"`
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobID       string                 `json:"job_id"`
	JobType     string                 `json:"job_type"`
	Status      string                 `json:"status"` // "started", "progress", "completed", "failed"
	Description string                 `json:"description"`
	Progress    *JobProgressInfo       `json:"progress,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Duration    float64                `json:"duration,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "started":
		return JobStarted
	case "progress":
		return JobProgress
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	// Marshal the data separately
	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Unmarshal data based on event type
	if len(aux.Data) > 0 {
		var eventData EventData
		switch aux.Type {
		case RunQueued, RunStarted, RunProgress, RunCompleted, RunFailed, RunCancelled:
			eventData = &RunStatusData{}
		case MaintenanceCompleted:
			eventData = &MaintenanceData{}
		case BackupCompleted:
			eventData = &BackupData{}
		case SystemStatusChanged:
			eventData = &SystemStatusData{}
		case SettingsChanged:
			eventData = &SettingsChangedData{}
		case ErrorOccurred:
			eventData = &ErrorEventData{}
		case JobStarted, JobProgress, JobCompleted, JobFailed:
			eventData = &JobStatusData{}
		default:
			// For unknown types, use raw map
			var rawData map[string]interface{}
			if err := json.Unmarshal(aux.Data, &rawData); err != nil {
				return err
			}
			eventData = &GenericEventData{Data: rawData}
		}

		if eventData != nil {
			if err := json.Unmarshal(aux.Data, eventData); err != nil {
				return err
			}
			e.Data = eventData
		}
	}

	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
