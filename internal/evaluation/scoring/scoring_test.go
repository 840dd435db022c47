package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adarsh-anand15/quantum-learning/internal/evaluation/models"
)

func TestBest(t *testing.T) {
	tests := []struct {
		name    string
		results []models.Result
		want    int
	}{
		{
			name: "picks lowest cost",
			results: []models.Result{
				{Cost: 0.9},
				{Cost: 0.2},
				{Cost: 0.5},
			},
			want: 1,
		},
		{
			name: "skips failed evaluations",
			results: []models.Result{
				{Cost: 0.1, Err: errors.New("boom")},
				{Cost: 0.8},
			},
			want: 1,
		},
		{
			name: "skips non-finite costs",
			results: []models.Result{
				{Cost: math.Inf(1)},
				{Cost: math.NaN()},
				{Cost: 3.5},
			},
			want: 2,
		},
		{
			name:    "empty batch",
			results: nil,
			want:    -1,
		},
		{
			name: "all failed",
			results: []models.Result{
				{Cost: math.Inf(1)},
				{Cost: 0.3, Err: errors.New("boom")},
			},
			want: -1,
		},
		{
			name: "first of equal costs wins",
			results: []models.Result{
				{Cost: 0.4},
				{Cost: 0.4},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Best(tt.results))
		})
	}
}

func TestCosts(t *testing.T) {
	results := []models.Result{
		{Cost: 0.5},
		{Cost: 0.1, Err: errors.New("boom")},
		{Cost: 0.9},
	}

	costs := Costs(results)

	assert.Len(t, costs, 3)
	assert.Equal(t, 0.5, costs[0])
	assert.True(t, math.IsInf(costs[1], 1))
	assert.Equal(t, 0.9, costs[2])
}
