// Package events provides event management functionality.
package events

// EventType represents different event types
type EventType string

const (
	// Run lifecycle events
	RunQueued    EventType = "RunQueued"
	RunStarted   EventType = "RunStarted"
	RunProgress  EventType = "RunProgress"
	RunCompleted EventType = "RunCompleted"
	RunFailed    EventType = "RunFailed"
	RunCancelled EventType = "RunCancelled"

	// Work processor lifecycle events
	JobStarted   EventType = "JobStarted"
	JobProgress  EventType = "JobProgress"
	JobCompleted EventType = "JobCompleted"
	JobFailed    EventType = "JobFailed"

	// Housekeeping events
	MaintenanceCompleted EventType = "MaintenanceCompleted"
	BackupCompleted      EventType = "BackupCompleted"

	// Reactive UI events
	SettingsChanged     EventType = "SettingsChanged"
	SystemStatusChanged EventType = "SystemStatusChanged"
	ErrorOccurred       EventType = "ErrorOccurred"
)
