package work

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmitter captures emitted events for testing
type mockEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	event string
	data  any
}

func (m *mockEmitter) Emit(event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, emittedEvent{event: event, data: data})
}

func (m *mockEmitter) getEvents() []emittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]emittedEvent, len(m.events))
	copy(result, m.events)
	return result
}

func (m *mockEmitter) eventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.events))
	for _, e := range m.events {
		names = append(names, e.event)
	}
	return names
}

func TestNewProgressReporter(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "cache:prune", "cache:prune", "")

	assert.NotNil(t, reporter)
	assert.Equal(t, "cache:prune", reporter.workID)
	assert.Equal(t, "cache:prune", reporter.workType)
	assert.Equal(t, "", reporter.subject)
}

func TestProgressReporter_Report(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "runs:execute:run-1", "runs:execute", "run-1")

	reporter.Report(100, 1000, "Step 100")

	events := emitter.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobProgress, events[0].event)

	progressEvent, ok := events[0].data.(ProgressEvent)
	require.True(t, ok)
	assert.Equal(t, "runs:execute:run-1", progressEvent.WorkID)
	assert.Equal(t, "runs:execute", progressEvent.WorkType)
	assert.Equal(t, "run-1", progressEvent.Subject)
	assert.Equal(t, 100, progressEvent.Current)
	assert.Equal(t, 1000, progressEvent.Total)
	assert.Equal(t, "Step 100", progressEvent.Message)
}

func TestProgressReporter_ReportPhase(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "db:checkpoint", "db:checkpoint", "")

	reporter.ReportPhase("Checkpointing", "Truncating write-ahead logs...")

	events := emitter.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobProgress, events[0].event)

	progressEvent, ok := events[0].data.(ProgressEvent)
	require.True(t, ok)
	assert.Equal(t, "Checkpointing", progressEvent.Phase)
	assert.Equal(t, "Truncating write-ahead logs...", progressEvent.Message)
}

func TestProgressReporter_ReportWithDetails(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "cache:prune", "cache:prune", "")

	details := map[string]any{
		"cache_rows": 42,
		"plots":      7,
	}
	reporter.ReportWithDetails(2, 2, "Prune complete", details)

	events := emitter.getEvents()
	require.Len(t, events, 1)

	progressEvent, ok := events[0].data.(ProgressEvent)
	require.True(t, ok)
	assert.Equal(t, 2, progressEvent.Current)
	assert.Equal(t, 2, progressEvent.Total)
	assert.Equal(t, "Prune complete", progressEvent.Message)
	assert.Equal(t, 42, progressEvent.Details["cache_rows"])
	assert.Equal(t, 7, progressEvent.Details["plots"])
}

func TestProgressReporter_Throttling(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "test:work", "test:work", "")

	// Rapid-fire reports should be throttled
	for i := 0; i < 100; i++ {
		reporter.Report(i, 100, "Progress")
	}

	// Should have fewer than 100 events due to throttling
	events := emitter.getEvents()
	assert.Less(t, len(events), 10, "Throttling should limit event count")
	assert.Greater(t, len(events), 0, "At least one event should be emitted")
}

func TestProgressReporter_ThrottlingAllowsAfterInterval(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "test:work", "test:work", "")

	reporter.Report(1, 10, "First")
	time.Sleep(progressThrottleInterval + 10*time.Millisecond)
	reporter.Report(2, 10, "Second")

	events := emitter.getEvents()
	assert.Len(t, events, 2, "Both events should be emitted after throttle interval")
}

func TestProgressReporter_NilEmitter(t *testing.T) {
	// Should not panic with nil emitter
	reporter := NewProgressReporter(nil, "test:work", "test:work", "")

	assert.NotPanics(t, func() {
		reporter.Report(1, 10, "Test")
		reporter.ReportPhase("Phase", "Message")
		reporter.ReportWithDetails(1, 10, "Test", nil)
		reporter.emitStarted()
		reporter.emitCompleted(time.Second)
		reporter.emitFailed(nil, time.Second, 1)
	})
}

func TestProgressReporter_NilReporter(t *testing.T) {
	// Should not panic with nil reporter
	var reporter *ProgressReporter

	assert.NotPanics(t, func() {
		reporter.Report(1, 10, "Test")
		reporter.ReportPhase("Phase", "Message")
		reporter.ReportWithDetails(1, 10, "Test", nil)
		reporter.emitStarted()
		reporter.emitCompleted(time.Second)
		reporter.emitFailed(nil, time.Second, 1)
	})
}

func TestProgressReporter_EmitStarted(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "cache:prune", "cache:prune", "")

	reporter.emitStarted()

	events := emitter.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobStarted, events[0].event)

	startedEvent, ok := events[0].data.(WorkStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "cache:prune", startedEvent.WorkID)
	assert.Equal(t, "cache:prune", startedEvent.WorkType)
	assert.Equal(t, "", startedEvent.Subject)
}

func TestProgressReporter_EmitCompleted(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "runs:execute:run-1", "runs:execute", "run-1")

	reporter.emitCompleted(5 * time.Second)

	events := emitter.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobCompleted, events[0].event)

	completedEvent, ok := events[0].data.(WorkCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "runs:execute:run-1", completedEvent.WorkID)
	assert.Equal(t, "runs:execute", completedEvent.WorkType)
	assert.Equal(t, "run-1", completedEvent.Subject)
	assert.Equal(t, int64(5000), completedEvent.DurationMS)
}

func TestProgressReporter_EmitFailed(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "cache:prune", "cache:prune", "")

	testErr := assert.AnError
	reporter.emitFailed(testErr, 3*time.Second, 2)

	events := emitter.getEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventJobFailed, events[0].event)

	failedEvent, ok := events[0].data.(WorkFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "cache:prune", failedEvent.WorkID)
	assert.Equal(t, "cache:prune", failedEvent.WorkType)
	assert.Equal(t, "", failedEvent.Subject)
	assert.Equal(t, testErr.Error(), failedEvent.Error)
	assert.Equal(t, int64(3000), failedEvent.DurationMS)
	assert.Equal(t, 2, failedEvent.Attempts)
}

func TestProgressReporter_EmitFailedWithNilError(t *testing.T) {
	emitter := &mockEmitter{}
	reporter := NewProgressReporter(emitter, "test:work", "test:work", "")

	reporter.emitFailed(nil, time.Second, 0)

	events := emitter.getEvents()
	require.Len(t, events, 1)

	failedEvent, ok := events[0].data.(WorkFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "", failedEvent.Error)
}

func TestEventConstants(t *testing.T) {
	assert.Equal(t, "JobStarted", EventJobStarted)
	assert.Equal(t, "JobProgress", EventJobProgress)
	assert.Equal(t, "JobCompleted", EventJobCompleted)
	assert.Equal(t, "JobFailed", EventJobFailed)
}
