package runs

import (
	"fmt"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Canceller stops in-flight work by subject ID. The work processor
// implements this; it is attached after construction because the
// processor is wired later than the run service.
type Canceller interface {
	Cancel(subject string) bool
}

// DefaultsProvider supplies the baseline hyperparameters for new runs.
// The settings module implements this so stored overrides apply without
// a restart.
type DefaultsProvider interface {
	DefaultHyperparameters() synthesis.Hyperparameters
}

// Service coordinates run submission, cancellation, and retrieval.
//
// Execution itself lives in the Executor (driven by the work processor);
// the service is the API-facing surface. Submission emits a queued event
// which the wiring layer forwards to the processor as a trigger, so the
// service never holds a processor reference.
type Service struct {
	log          zerolog.Logger
	repo         *Repository
	eventManager *events.Manager
	defaults     DefaultsProvider
	canceller    Canceller
}

// NewService creates a new run service
func NewService(repo *Repository, eventManager *events.Manager, defaults DefaultsProvider, log zerolog.Logger) *Service {
	return &Service{
		log:          log.With().Str("service", "runs").Logger(),
		repo:         repo,
		eventManager: eventManager,
		defaults:     defaults,
	}
}

// SetCanceller attaches the in-flight canceller. Must be called during
// wiring, before any run can reach the running state.
func (s *Service) SetCanceller(c Canceller) {
	s.canceller = c
}

// SpecTemplate returns an experiment spec pre-filled with the current
// default hyperparameters. Handlers decode request bodies into this
// template so submitted fields overlay the defaults.
func (s *Service) SpecTemplate() synthesis.ExperimentSpec {
	hp := synthesis.DefaultHyperparameters()
	if s.defaults != nil {
		hp = s.defaults.DefaultHyperparameters()
	}
	return synthesis.ExperimentSpec{
		Kind:            synthesis.KindGate,
		Hyperparameters: hp,
	}
}

// Submit validates the spec, assigns a seed, and persists the run as
// queued. Target resolution happens inside Validate so malformed targets
// are rejected here rather than mid-run.
func (s *Service) Submit(spec synthesis.ExperimentSpec) (*Run, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Hyperparameters.EnsureSeed()

	run := &Run{
		ID:        uuid.New().String(),
		Name:      spec.Name,
		Kind:      string(spec.Kind),
		Status:    StatusQueued,
		Spec:      spec,
		Seed:      spec.Hyperparameters.Seed,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(run); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("kind", run.Kind).
		Str("name", run.Name).
		Int64("seed", run.Seed).
		Msg("Run queued")

	s.emitStatus(run, StatusQueued, "")
	return run, nil
}

// Get retrieves a run by ID.
func (s *Service) Get(id string) (*Run, error) {
	run, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return run, nil
}

// List retrieves runs, optionally filtered by status and kind.
func (s *Service) List(status, kind string, limit int) ([]*Run, error) {
	return s.repo.List(status, kind, limit)
}

// CountByStatus returns run counts grouped by status.
func (s *Service) CountByStatus() (map[string]int, error) {
	return s.repo.CountByStatus()
}

// QueuedRunIDs returns the IDs of queued runs, oldest first. The work
// processor uses this to discover runs awaiting execution.
func (s *Service) QueuedRunIDs() ([]string, error) {
	queued, err := s.repo.ListByStatus(StatusQueued)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(queued))
	for _, run := range queued {
		ids = append(ids, run.ID)
	}
	return ids, nil
}

// Trace retrieves the stored optimization trace for a run.
func (s *Service) Trace(id string) ([]synthesis.TracePoint, error) {
	return s.repo.LoadTrace(id)
}

// Params retrieves the stored final parameter vector for a run.
func (s *Service) Params(id string) ([]float64, error) {
	return s.repo.LoadParams(id)
}

// Cancel stops a run. Queued runs are cancelled directly; running runs
// have their in-flight context cancelled and the executor records the
// terminal state. Returns the run as last observed.
func (s *Service) Cancel(id string) (*Run, error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	switch run.Status {
	case StatusQueued:
		if err := s.repo.MarkCancelled(id); err != nil {
			return nil, err
		}
		s.log.Info().Str("run_id", id).Msg("Queued run cancelled")
		s.emitStatus(run, StatusCancelled, "")

	case StatusRunning:
		if s.canceller == nil {
			return nil, fmt.Errorf("run %s is running but no canceller is attached", id)
		}
		if !s.canceller.Cancel(id) {
			// The run finished between the status read and the cancel
			// request. Report whatever state it landed in.
			s.log.Debug().Str("run_id", id).Msg("Cancel raced with run completion")
		} else {
			s.log.Info().Str("run_id", id).Msg("Cancellation requested for running run")
		}

	default:
		return nil, fmt.Errorf("run %s is already %s: %w", id, run.Status, ErrRunFinished)
	}

	return s.Get(id)
}

// Delete removes a run and its stored trace. Running runs must be
// cancelled first.
func (s *Service) Delete(id string) error {
	run, err := s.Get(id)
	if err != nil {
		return err
	}
	if run.Status == StatusRunning {
		return ErrRunActive
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.log.Info().Str("run_id", id).Msg("Run deleted")
	return nil
}

func (s *Service) emitStatus(run *Run, status string, message string) {
	if s.eventManager == nil {
		return
	}
	data := &events.RunStatusData{
		RunID:     run.ID,
		Kind:      run.Kind,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	s.eventManager.EmitTyped(data.EventType(), "runs", data)
}
