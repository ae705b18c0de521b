package forecast

// seasonalForecast scales the linear trend by the seasonal factor of each step.
// Confidence and interval follow the linear strategy.
func seasonalForecast(values []float64) []ForecastResult {
	n := len(values)
	fit := LinearRegression(values)
	factors := SeasonalFactors(values)
	variance := Variance(values)
	confidence := ClassifyConfidence(n, fit.R2)

	results := make([]ForecastResult, Horizon)
	for i := range results {
		step := i + 1
		trend := fit.At(float64(n + step - 1))
		predicted := clampRound(trend * factors[(step-1)%SeasonLength])
		lower, upper := EstimateInterval(predicted, variance, n)

		results[i] = ForecastResult{
			Step:       step,
			Predicted:  predicted,
			Confidence: confidence,
			LowerBound: lower,
			UpperBound: upper,
		}
	}
	return results
}
