package work

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// scanInterval is how often the processor rescans for eligible work when
// nothing triggers it. Interval work (cache pruning, checkpoints) becomes
// stale between triggers, so the periodic scan picks it up.
const scanInterval = 15 * time.Second

// Processor executes work items on a bounded number of slots. Queued
// synthesis runs and housekeeping compete for the same slots, ordered by
// work type priority.
type Processor struct {
	registry   *Registry
	completion *CompletionTracker
	emitter    EventEmitter
	slots      int

	trigger chan struct{}
	done    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	retryQueue []*WorkItem
	inFlight   map[string]context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// NewProcessor creates a new work processor. slots bounds how many work
// items execute concurrently; values below one are raised to one.
func NewProcessor(registry *Registry, completion *CompletionTracker, emitter EventEmitter, slots int) *Processor {
	if slots < 1 {
		slots = 1
	}
	return &Processor{
		registry:   registry,
		completion: completion,
		emitter:    emitter,
		slots:      slots,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		retryQueue: make([]*WorkItem, 0),
		inFlight:   make(map[string]context.CancelFunc),
	}
}

// Run starts the processor loop. This blocks until Stop() is called.
func (p *Processor) Run() {
	defer close(p.stopped)

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-p.trigger:
			p.fillSlots()
		case <-p.done:
			p.fillSlots()
		case <-ticker.C:
			p.fillSlots()
		}
	}
}

// Stop stops the processor, cancels all in-flight work, and waits for the
// workers to return.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.stopped

	p.mu.Lock()
	for _, cancel := range p.inFlight {
		cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Trigger wakes up the processor to check for work.
// This is non-blocking and can be called from any goroutine.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
		// Trigger already pending
	}
}

// Cancel cancels the in-flight work item for the given subject. Returns
// false if no such item is executing. This implements the canceller the
// run service uses to stop running runs.
func (p *Processor) Cancel(subject string) bool {
	if subject == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, cancel := range p.inFlight {
		_, itemSubject := ParseWorkID(id)
		if itemSubject == subject {
			cancel()
			return true
		}
	}
	return false
}

// InFlight returns the IDs of work items currently executing, sorted.
func (p *Processor) InFlight() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.inFlight))
	for id := range p.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RetryBacklog returns the number of failed items waiting for another attempt.
func (p *Processor) RetryBacklog() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.retryQueue)
}

// GetRegistry returns the work type registry.
func (p *Processor) GetRegistry() *Registry {
	return p.registry
}

// ExecuteNow immediately executes a specific work type, bypassing subject
// discovery, interval checks, and the slot limit. This is used for manual
// triggers via the API. The execution is synchronous.
func (p *Processor) ExecuteNow(workTypeID string, subject string) error {
	wt := p.registry.Get(workTypeID)
	if wt == nil {
		return fmt.Errorf("unknown work type: %s", workTypeID)
	}

	item := NewWorkItem(wt, subject)

	ctx := context.Background()
	var cancel context.CancelFunc
	if wt.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, wt.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Register so Cancel() can reach manual executions too.
	p.mu.Lock()
	p.inFlight[item.ID] = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.inFlight, item.ID)
		p.mu.Unlock()
	}()

	reporter := NewProgressReporter(p.emitter, item.ID, item.TypeID, item.Subject)
	reporter.emitStarted()

	started := time.Now()
	item.Attempts++
	err := wt.Execute(ctx, item.Subject, reporter)
	elapsed := time.Since(started)

	if err != nil {
		reporter.emitFailed(err, elapsed, item.Attempts)
		return err
	}

	p.completion.MarkCompleted(item)
	reporter.emitCompleted(elapsed)
	return nil
}

// fillSlots starts eligible work until the slots are full or nothing is
// eligible. Fresh discoveries take precedence over the retry queue.
func (p *Processor) fillSlots() {
	for {
		p.mu.Lock()
		free := p.slots - len(p.inFlight)
		p.mu.Unlock()
		if free <= 0 {
			return
		}

		item, wt := p.findNextWork()
		if item == nil {
			item, wt = p.popRetryQueue()
		}
		if item == nil {
			return
		}

		p.start(item, wt)
	}
}

// findNextWork finds the next work item to execute.
func (p *Processor) findNextWork() (*WorkItem, *WorkType) {
	for _, wt := range p.registry.ByPriority() {
		if wt.FindSubjects == nil {
			continue
		}

		subjects, err := wt.FindSubjects(context.Background())
		if err != nil {
			log.Error().Err(err).Str("work_type", wt.ID).Msg("subject discovery failed")
			continue
		}

		for _, subject := range subjects {
			// Check interval staleness
			if wt.Interval > 0 && !p.completion.IsStale(wt.ID, subject, wt.Interval) {
				continue
			}

			item := NewWorkItem(wt, subject)
			if p.isInFlight(item.ID) {
				continue
			}

			return item, wt
		}
	}

	return nil, nil
}

func (p *Processor) isInFlight(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, executing := p.inFlight[id]
	return executing
}

// start claims a slot and executes the item on its own goroutine.
func (p *Processor) start(item *WorkItem, wt *WorkType) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if wt.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, wt.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	p.mu.Lock()
	p.inFlight[item.ID] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer func() {
			cancel()

			p.mu.Lock()
			delete(p.inFlight, item.ID)
			p.mu.Unlock()
			p.wg.Done()

			// Signal done to free the slot for the next item
			select {
			case p.done <- struct{}{}:
			default:
			}
		}()

		p.execute(ctx, item, wt)
	}()
}

// execute runs a single attempt of the item and handles its outcome.
func (p *Processor) execute(ctx context.Context, item *WorkItem, wt *WorkType) {
	reporter := NewProgressReporter(p.emitter, item.ID, item.TypeID, item.Subject)
	reporter.emitStarted()

	started := time.Now()
	item.Attempts++
	err := wt.Execute(ctx, item.Subject, reporter)
	elapsed := time.Since(started)

	if err == nil {
		p.completion.MarkCompleted(item)
		reporter.emitCompleted(elapsed)
		log.Debug().Str("work", item.ID).Dur("elapsed", elapsed).Msg("work completed")
		return
	}

	if ctx.Err() == context.Canceled {
		// Cancelled on purpose. The owner of the work records its own
		// terminal state, so there is nothing to retry or report.
		log.Info().Str("work", item.ID).Msg("work cancelled")
		return
	}

	if ctx.Err() == context.DeadlineExceeded {
		log.Error().Str("work", item.ID).Dur("timeout", wt.Timeout).Msg("work timed out")
	} else {
		log.Error().Err(err).Str("work", item.ID).Msg("work failed")
	}
	reporter.emitFailed(err, elapsed, item.Attempts)

	if item.Attempts < wt.maxAttempts() {
		p.pushRetryQueue(item)
		return
	}
	log.Warn().Str("work", item.ID).Int("attempts", item.Attempts).Msg("giving up after max attempts")
}

// pushRetryQueue adds an item to the retry queue.
func (p *Processor) pushRetryQueue(item *WorkItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retryQueue = append(p.retryQueue, item)
}

// popRetryQueue removes and returns the first retryable item.
func (p *Processor) popRetryQueue() (*WorkItem, *WorkType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.retryQueue) > 0 {
		item := p.retryQueue[0]
		p.retryQueue = p.retryQueue[1:]

		wt := p.registry.Get(item.TypeID)
		if wt == nil {
			continue
		}

		// A fresh discovery may have already redone this work.
		if wt.Interval > 0 && !p.completion.IsStale(item.TypeID, item.Subject, wt.Interval) {
			continue
		}
		if _, executing := p.inFlight[item.ID]; executing {
			continue
		}

		return item, wt
	}

	return nil, nil
}
