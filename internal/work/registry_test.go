package work

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	wt := &WorkType{
		ID:       "test:work",
		Priority: PriorityMedium,
	}

	r.Register(wt)

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.Has("test:work"))
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()

	wt1 := &WorkType{
		ID:       "test:work",
		Priority: PriorityLow,
	}
	wt2 := &WorkType{
		ID:       "test:work",
		Priority: PriorityHigh,
	}

	r.Register(wt1)
	r.Register(wt2)

	assert.Equal(t, 1, r.Count())
	got := r.Get("test:work")
	assert.Equal(t, PriorityHigh, got.Priority)
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	wt := &WorkType{
		ID:       "runs:execute",
		Priority: PriorityCritical,
	}
	r.Register(wt)

	t.Run("returns registered work type", func(t *testing.T) {
		got := r.Get("runs:execute")
		require.NotNil(t, got)
		assert.Equal(t, "runs:execute", got.ID)
		assert.Equal(t, PriorityCritical, got.Priority)
	})

	t.Run("returns nil for unknown ID", func(t *testing.T) {
		got := r.Get("unknown:work")
		assert.Nil(t, got)
	})
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "test:work"})

	assert.True(t, r.Has("test:work"))
	assert.False(t, r.Has("unknown:work"))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "test:work"})
	assert.True(t, r.Has("test:work"))

	r.Remove("test:work")
	assert.False(t, r.Has("test:work"))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "runs:execute"})
	r.Register(&WorkType{ID: "db:checkpoint"})
	r.Register(&WorkType{ID: "cache:prune"})

	ids := r.IDs()

	// IDs should be sorted alphabetically
	assert.Equal(t, []string{"cache:prune", "db:checkpoint", "runs:execute"}, ids)
}

func TestRegistry_ByPriority(t *testing.T) {
	r := NewRegistry()

	// Register work types with different priorities
	r.Register(&WorkType{ID: "db:checkpoint", Priority: PriorityLow})
	r.Register(&WorkType{ID: "cache:prune", Priority: PriorityLow})
	r.Register(&WorkType{ID: "runs:cleanup", Priority: PriorityHigh})
	r.Register(&WorkType{ID: "runs:execute", Priority: PriorityCritical})

	ordered := r.ByPriority()

	require.Len(t, ordered, 4)

	// Critical priority first
	assert.Equal(t, "runs:execute", ordered[0].ID)

	// High priority next
	assert.Equal(t, "runs:cleanup", ordered[1].ID)

	// Low priority last, alphabetically within the same priority
	assert.Equal(t, "cache:prune", ordered[2].ID)
	assert.Equal(t, "db:checkpoint", ordered[3].ID)
}

func TestRegistry_ByPriority_ReturnsACopy(t *testing.T) {
	r := NewRegistry()

	r.Register(&WorkType{ID: "test:work", Priority: PriorityMedium})

	ordered1 := r.ByPriority()
	ordered2 := r.ByPriority()

	// Modify one slice
	ordered1[0] = nil

	// The other should be unaffected
	assert.NotNil(t, ordered2[0])
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	// Pre-register some work types
	for i := 0; i < 10; i++ {
		r.Register(&WorkType{ID: "initial:" + string(rune('a'+i))})
	}

	var wg sync.WaitGroup

	// Concurrent reads
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Get("initial:a")
				_ = r.Has("initial:b")
				_ = r.Count()
				_ = r.IDs()
				_ = r.ByPriority()
			}
		}()
	}

	// Concurrent writes
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Register(&WorkType{ID: "concurrent:" + string(rune('a'+id))})
				r.Remove("concurrent:" + string(rune('a'+id)))
			}
		}(i)
	}

	wg.Wait()
}
