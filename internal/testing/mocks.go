package testing

import (
	"sync"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// MockCanceller is a mock implementation of the run service's Canceller
// for testing. It records every cancelled subject and returns a
// configurable result.
type MockCanceller struct {
	mu        sync.Mutex
	cancelled []string
	result    bool
}

// NewMockCanceller creates a new mock canceller that reports success.
func NewMockCanceller() *MockCanceller {
	return &MockCanceller{result: true}
}

// SetResult sets the value Cancel returns.
func (m *MockCanceller) SetResult(result bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
}

// Cancel records the subject and returns the configured result.
func (m *MockCanceller) Cancel(subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, subject)
	return m.result
}

// Cancelled returns the subjects cancelled so far.
func (m *MockCanceller) Cancelled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}

// MockDefaultsProvider is a mock implementation of the run service's
// DefaultsProvider for testing.
type MockDefaultsProvider struct {
	mu sync.Mutex
	hp synthesis.Hyperparameters
}

// NewMockDefaultsProvider creates a new mock defaults provider returning
// the package defaults.
func NewMockDefaultsProvider() *MockDefaultsProvider {
	return &MockDefaultsProvider{hp: synthesis.DefaultHyperparameters()}
}

// SetHyperparameters sets the hyperparameters to return.
func (m *MockDefaultsProvider) SetHyperparameters(hp synthesis.Hyperparameters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hp = hp
}

// DefaultHyperparameters returns the configured hyperparameters.
func (m *MockDefaultsProvider) DefaultHyperparameters() synthesis.Hyperparameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hp
}
