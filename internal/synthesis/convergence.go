package synthesis

import (
	"math"

	"github.com/adarsh-anand15/quantum-learning/pkg/formulas"
)

// Convergence check cadence and the EMA window for the plateau test.
const (
	plateauWindow = 50
	checkInterval = 10
)

// plateaued reports whether the cost series has flattened: the EMA over the
// most recent window stopped improving against the window before it, and the
// gradient norm dropped below tol.
func plateaued(costs []float64, gradNorm, tol float64) bool {
	rel := formulas.RelativeImprovement(costs, plateauWindow)
	if rel == nil {
		return false
	}
	return math.Abs(*rel) < tol && gradNorm < tol
}
