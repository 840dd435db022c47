// Package models defines the shared types for candidate evaluation.
package models

// Candidate is one initial parameter vector in a multi-start batch.
type Candidate struct {
	Index  int
	Params []float64
}

// EvaluationContext carries what workers need to score a candidate.
// Cost must be pure and safe for concurrent use.
type EvaluationContext struct {
	Cost func(params []float64) float64
}

// Result pairs a candidate with its evaluated cost. Err is set when the
// candidate could not be scored or produced a non-finite cost.
type Result struct {
	Candidate Candidate
	Cost      float64
	Err       error
}
