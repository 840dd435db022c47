package formulas

import (
	"math"
	"testing"
)

func TestCalculateEMA(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		length    int
		expected  *float64
		tolerance float64
	}{
		{
			name:     "empty values",
			values:   []float64{},
			length:   5,
			expected: nil,
		},
		{
			name:      "insufficient data falls back to mean",
			values:    []float64{1, 2, 3},
			length:    10,
			expected:  ptr(2.0),
			tolerance: 1e-9,
		},
		{
			name:      "constant series",
			values:    makeSeries(4.0, 30),
			length:    10,
			expected:  ptr(4.0),
			tolerance: 1e-9,
		},
		{
			name:      "decaying series tracks recent values",
			values:    decaySeries(1.0, 0.5, 40),
			length:    5,
			expected:  ptr(0.0),
			tolerance: 1e-4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEMA(tt.values, tt.length)
			if tt.expected == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %v, got nil", *tt.expected)
			}
			if math.Abs(*got-*tt.expected) > tt.tolerance {
				t.Errorf("expected %v, got %v (tolerance %v)", *tt.expected, *got, tt.tolerance)
			}
		})
	}
}

func TestCalculateSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	got := CalculateSMA(values, 5)
	if got == nil {
		t.Fatal("expected SMA, got nil")
	}
	if math.Abs(*got-3.0) > 1e-9 {
		t.Errorf("expected 3.0, got %v", *got)
	}

	if CalculateSMA(values, 10) != nil {
		t.Error("expected nil for insufficient data")
	}
}

func TestRelativeImprovement(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		wantNil  bool
		wantSign float64
	}{
		{
			name:    "too short",
			values:  []float64{1, 2, 3},
			window:  5,
			wantNil: true,
		},
		{
			name:     "decreasing cost improves",
			values:   decaySeries(1.0, 0.9, 60),
			window:   10,
			wantSign: 1,
		},
		{
			name:     "flat cost shows no improvement",
			values:   makeSeries(0.5, 60),
			window:   10,
			wantSign: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeImprovement(tt.values, tt.window)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected value, got nil")
			}
			switch {
			case tt.wantSign > 0 && *got <= 0:
				t.Errorf("expected positive improvement, got %v", *got)
			case tt.wantSign == 0 && math.Abs(*got) > 1e-9:
				t.Errorf("expected zero improvement, got %v", *got)
			}
		})
	}
}

func makeSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func decaySeries(start, factor float64, n int) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v *= factor
	}
	return out
}

func ptr(f float64) *float64 {
	return &f
}
