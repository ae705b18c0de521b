package forecast

import "math"

const (
	// growthDegradeFromStep is the first step whose confidence drops one tier
	growthDegradeFromStep = 7

	// growthVarianceInflation widens the interval by this fraction of the variance per step
	growthVarianceInflation = 0.1
)

// growthRateForecast compounds the last value by the average growth rate.
// Confidence uses the linear fit and is lowered for the far half of the horizon.
func growthRateForecast(values []float64) []ForecastResult {
	n := len(values)
	last := values[n-1]
	rate := AverageGrowthRate(values)
	fit := LinearRegression(values)
	variance := Variance(values)
	confidence := ClassifyConfidence(n, fit.R2)

	results := make([]ForecastResult, Horizon)
	for i := range results {
		step := i + 1
		predicted := clampRound(last * math.Pow(1+rate, float64(step)))

		stepConfidence := confidence
		if step >= growthDegradeFromStep {
			stepConfidence = confidence.Degrade()
		}

		stepVariance := variance * (1 + float64(i)*growthVarianceInflation)
		lower, upper := EstimateInterval(predicted, stepVariance, n)

		results[i] = ForecastResult{
			Step:       step,
			Predicted:  predicted,
			Confidence: stepConfidence,
			LowerBound: lower,
			UpperBound: upper,
		}
	}
	return results
}
