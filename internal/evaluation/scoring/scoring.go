// Package scoring selects the winning candidate from evaluated batches.
package scoring

import (
	"math"

	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/models"
)

// Best returns the index of the result with the lowest finite cost, or -1
// when no candidate evaluated cleanly.
func Best(results []models.Result) int {
	best := -1
	bestCost := math.Inf(1)
	for i, r := range results {
		if r.Err != nil || math.IsNaN(r.Cost) || math.IsInf(r.Cost, 0) {
			continue
		}
		if r.Cost < bestCost {
			bestCost = r.Cost
			best = i
		}
	}
	return best
}

// Costs extracts the cost column from a result batch, preserving order.
// Failed evaluations show up as +Inf so downstream stats skip them.
func Costs(results []models.Result) []float64 {
	costs := make([]float64, len(results))
	for i, r := range results {
		if r.Err != nil {
			costs[i] = math.Inf(1)
			continue
		}
		costs[i] = r.Cost
	}
	return costs
}
