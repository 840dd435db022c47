package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEventManager() (*Manager, *Bus) {
	log := zerolog.Nop()
	bus := NewBus(log)
	manager := NewManager(bus, log)
	return manager, bus
}

// TestBus_SubscribeReceivesEvent tests basic publish/subscribe delivery
func TestBus_SubscribeReceivesEvent(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received *Event
	_ = bus.Subscribe(RunStarted, func(event *Event) {
		received = event
	})

	bus.Emit(RunStarted, "runs", map[string]interface{}{"run_id": "run_1"})

	require.NotNil(t, received)
	assert.Equal(t, RunStarted, received.Type)
	assert.Equal(t, "runs", received.Module)
	assert.Equal(t, "run_1", received.Data["run_id"])
	assert.WithinDuration(t, time.Now(), received.Timestamp, time.Second)
}

// TestBus_OnlyMatchingTypeDelivered tests that handlers see only their type
func TestBus_OnlyMatchingTypeDelivered(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	count := 0
	_ = bus.Subscribe(RunCompleted, func(event *Event) {
		count++
	})

	bus.Emit(RunFailed, "runs", nil)
	bus.Emit(RunProgress, "runs", nil)
	assert.Equal(t, 0, count)

	bus.Emit(RunCompleted, "runs", nil)
	assert.Equal(t, 1, count)
}

// TestBus_Unsubscribe tests that the returned function removes the subscription
func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	count := 0
	unsubscribe := bus.Subscribe(SettingsChanged, func(event *Event) {
		count++
	})

	bus.Emit(SettingsChanged, "settings", nil)
	assert.Equal(t, 1, count)

	unsubscribe()
	bus.Emit(SettingsChanged, "settings", nil)
	assert.Equal(t, 1, count)
}

// TestBus_MultipleSubscribers tests fan-out to several handlers
func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	first, second := 0, 0
	_ = bus.Subscribe(BackupCompleted, func(event *Event) { first++ })
	_ = bus.Subscribe(BackupCompleted, func(event *Event) { second++ })

	bus.Emit(BackupCompleted, "reliability", nil)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

// TestBus_ConcurrentEmit tests thread safety of concurrent publishers
func TestBus_ConcurrentEmit(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	count := 0
	_ = bus.Subscribe(RunProgress, func(event *Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				bus.Emit(RunProgress, "runs", nil)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 200, count)
}

// TestManager_EmitTyped tests typed emission round-trips through the bus
func TestManager_EmitTyped(t *testing.T) {
	manager, bus := setupEventManager()

	var received *Event
	_ = bus.Subscribe(RunProgress, func(event *Event) {
		received = event
	})

	manager.EmitTyped(RunProgress, "runs", &RunStatusData{
		RunID:           "run_42",
		Kind:            "gate",
		Status:          "progress",
		Iteration:       250,
		TotalIterations: 1000,
		Cost:            0.05,
		Fidelity:        0.95,
		Timestamp:       time.Now(),
	})

	require.NotNil(t, received)
	assert.Equal(t, RunProgress, received.Type)
	assert.Equal(t, "runs", received.Module)

	typed := received.GetTypedData()
	require.NotNil(t, typed, "Event should have typed data")

	data, ok := typed.(*RunStatusData)
	require.True(t, ok, "Event data should be RunStatusData")
	assert.Equal(t, "run_42", data.RunID)
	assert.Equal(t, "gate", data.Kind)
	assert.Equal(t, 250, data.Iteration)
	assert.Equal(t, 1000, data.TotalIterations)
	assert.Equal(t, 0.05, data.Cost)
	assert.Equal(t, 0.95, data.Fidelity)
}

// TestManager_Emit tests map emission reaches subscribers unchanged
func TestManager_Emit(t *testing.T) {
	manager, bus := setupEventManager()

	var received *Event
	_ = bus.Subscribe(MaintenanceCompleted, func(event *Event) {
		received = event
	})

	manager.Emit(MaintenanceCompleted, "reliability", map[string]interface{}{
		"task":     "daily",
		"duration": 2.5,
	})

	require.NotNil(t, received)
	assert.Equal(t, "daily", received.Data["task"])
	assert.Equal(t, 2.5, received.Data["duration"])
}

// TestManager_EmitError tests error emission produces an ErrorOccurred event
func TestManager_EmitError(t *testing.T) {
	manager, bus := setupEventManager()

	var received *Event
	_ = bus.Subscribe(ErrorOccurred, func(event *Event) {
		received = event
	})

	manager.EmitError("scheduler", errors.New("job panicked"), map[string]interface{}{
		"job": "daily_maintenance",
	})

	require.NotNil(t, received)
	data, ok := received.GetTypedData().(*ErrorEventData)
	require.True(t, ok)
	assert.Equal(t, "job panicked", data.Error)
	assert.Equal(t, "daily_maintenance", data.Context["job"])
}

// TestEvent_GetTypedData_NilData tests nil payloads return nil typed data
func TestEvent_GetTypedData_NilData(t *testing.T) {
	event := &Event{Type: RunStarted, Module: "runs"}
	assert.Nil(t, event.GetTypedData())
}

// TestEvent_GetTypedData_UnknownType tests unmapped types return nil typed data
func TestEvent_GetTypedData_UnknownType(t *testing.T) {
	event := &Event{
		Type:   EventType("SomethingElse"),
		Module: "misc",
		Data:   map[string]interface{}{"k": "v"},
	}
	assert.Nil(t, event.GetTypedData())
}
