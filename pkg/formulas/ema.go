package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateEMA calculates the Exponential Moving Average of a series.
//
// EMA Formula:
//
//	EMA_today = (Value_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// Args:
//
//	values: series of observations, oldest first
//	length: EMA period
//
// Returns:
//
//	Current EMA value or nil if insufficient data
func CalculateEMA(values []float64, length int) *float64 {
	if len(values) == 0 {
		return nil
	}

	// If not enough data for proper EMA, fallback to SMA
	if len(values) < length {
		sma := Mean(values)
		return &sma
	}

	// Use go-talib for EMA calculation
	ema := talib.Ema(values, length)

	// Return the last value
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	// Fallback to SMA of last 'length' values
	sma := Mean(values[len(values)-length:])
	return &sma
}

// CalculateSMA calculates the Simple Moving Average
// This is a helper function that can be used independently
func CalculateSMA(values []float64, length int) *float64 {
	if len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// RelativeImprovement measures how much a smoothed series improved over the
// last window observations, relative to the magnitude of the earlier value.
//
// Formula: (EMA(series[:len-window]) - EMA(series)) / max(|EMA(series[:len-window])|, 1e-12)
//
// A decreasing series yields positive improvement. Returns nil when the
// series is too short to cover the window twice.
func RelativeImprovement(values []float64, window int) *float64 {
	if window <= 0 || len(values) < 2*window {
		return nil
	}

	earlier := CalculateEMA(values[:len(values)-window], window)
	current := CalculateEMA(values, window)
	if earlier == nil || current == nil {
		return nil
	}

	scale := math.Abs(*earlier)
	if scale < 1e-12 {
		scale = 1e-12
	}

	improvement := (*earlier - *current) / scale
	return &improvement
}

func isNaN(f float64) bool {
	return math.IsNaN(f)
}
