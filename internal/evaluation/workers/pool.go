// Package workers provides a parallel evaluation pool for scoring
// multi-start candidate parameter vectors.
package workers

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/models"
	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/progress"
)

// defaultWorkers is used when the requested pool size is not positive.
const defaultWorkers = 10

// WorkerPool evaluates candidates in parallel over a fixed set of workers.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool with the given number of workers.
// Non-positive sizes fall back to defaultWorkers.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// EvaluateBatch scores all candidates and returns results in input order.
// The callback, when non-nil, is invoked once per completed evaluation.
func (p *WorkerPool) EvaluateBatch(candidates []models.Candidate, evalCtx models.EvaluationContext, cb progress.Callback) []models.Result {
	if len(candidates) == 0 {
		return nil
	}

	results := make([]models.Result, len(candidates))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	for w := 0; w < p.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.evaluate(candidates[i], evalCtx)

				mu.Lock()
				completed++
				current := completed
				mu.Unlock()

				progress.Call(cb, current, len(candidates),
					fmt.Sprintf("Evaluating candidate %d/%d", current, len(candidates)))
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// EvaluateBatchDetailed scores all candidates and reports rich progress
// updates carrying pool metrics alongside the results.
func (p *WorkerPool) EvaluateBatchDetailed(candidates []models.Candidate, evalCtx models.EvaluationContext, cb progress.DetailedCallback) []models.Result {
	if len(candidates) == 0 {
		return nil
	}

	start := time.Now()
	results := make([]models.Result, len(candidates))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		failed    int
		active    int
	)
	bestCost := math.Inf(1)

	for w := 0; w < p.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				mu.Lock()
				active++
				mu.Unlock()

				res := p.evaluate(candidates[i], evalCtx)
				results[i] = res

				mu.Lock()
				active--
				completed++
				if res.Err != nil {
					failed++
				} else if res.Cost < bestCost {
					bestCost = res.Cost
				}
				update := progress.Update{
					Phase:   "candidate_evaluation",
					Current: completed,
					Total:   len(candidates),
					Message: fmt.Sprintf("Evaluated candidate %d/%d", completed, len(candidates)),
					Details: map[string]any{
						"workers_active": active,
						"evaluated":      completed,
						"failed_count":   failed,
						"best_cost":      bestCost,
						"elapsed_ms":     time.Since(start).Milliseconds(),
					},
				}
				mu.Unlock()

				progress.CallDetailed(cb, update)
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// evaluate scores a single candidate. Non-finite costs are flagged so the
// scorer can skip them.
func (p *WorkerPool) evaluate(c models.Candidate, evalCtx models.EvaluationContext) models.Result {
	if evalCtx.Cost == nil {
		return models.Result{Candidate: c, Cost: math.Inf(1), Err: errors.New("no cost function configured")}
	}

	cost := evalCtx.Cost(c.Params)
	res := models.Result{Candidate: c, Cost: cost}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		res.Err = fmt.Errorf("candidate %d produced non-finite cost", c.Index)
	}
	return res
}
