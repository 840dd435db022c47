package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/work"
)

// StatusMonitor periodically emits a system status event so stream clients
// can refresh queue depth and run counts without polling.
type StatusMonitor struct {
	eventManager *events.Manager
	runsService  *runs.Service
	processor    *work.Processor
	log          zerolog.Logger
	stop         chan struct{}
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(
	eventManager *events.Manager,
	runsService *runs.Service,
	processor *work.Processor,
	log zerolog.Logger,
) *StatusMonitor {
	return &StatusMonitor{
		eventManager: eventManager,
		runsService:  runsService,
		processor:    processor,
		log:          log.With().Str("component", "status_monitor").Logger(),
		stop:         make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop halts the monitoring loop
func (m *StatusMonitor) Stop() {
	select {
	case <-m.stop:
		// already stopped
	default:
		close(m.stop)
	}
}

// monitor runs the periodic monitoring loop
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do initial check
	m.emitStatus()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.emitStatus()
		}
	}
}

// emitStatus publishes the current run counts as a SystemStatusChanged event
func (m *StatusMonitor) emitStatus() {
	counts, err := m.runsService.CountByStatus()
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to count runs for status event")
		return
	}

	status := "idle"
	if counts[runs.StatusRunning] > 0 || len(m.processor.InFlight()) > 0 {
		status = "busy"
	}

	m.eventManager.EmitTyped(events.SystemStatusChanged, "status_monitor", &events.SystemStatusData{
		Status:     status,
		ActiveRuns: counts[runs.StatusRunning],
		QueuedRuns: counts[runs.StatusQueued],
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}
