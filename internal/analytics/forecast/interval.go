package forecast

import "math"

// Interval width multipliers by sample size. Less data gives a wider band.
const (
	intervalFactorLarge  = 1.5 // n >= 12
	intervalFactorMedium = 2.0 // n >= 6
	intervalFactorSmall  = 2.5
)

// IntervalFactor returns the standard deviation multiplier for n samples
func IntervalFactor(n int) float64 {
	switch {
	case n >= 12:
		return intervalFactorLarge
	case n >= 6:
		return intervalFactorMedium
	default:
		return intervalFactorSmall
	}
}

// EstimateInterval returns a symmetric band around predicted of
// IntervalFactor(n) standard deviations, rounded, with the lower bound clamped
// at 0 and the upper bound at MaxPrediction.
func EstimateInterval(predicted, variance float64, n int) (lower, upper float64) {
	if variance < 0 || math.IsNaN(variance) {
		variance = 0
	}
	margin := IntervalFactor(n) * math.Sqrt(variance)
	if math.IsInf(margin, 1) || margin > MaxPrediction {
		margin = MaxPrediction
	}
	lower = math.Max(0, math.Round(predicted-margin))
	upper = math.Min(MaxPrediction, math.Round(predicted+margin))
	return lower, upper
}
