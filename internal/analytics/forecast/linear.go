package forecast

// linearForecast extends the least squares trend of the whole series
func linearForecast(values []float64) []ForecastResult {
	n := len(values)
	fit := LinearRegression(values)
	variance := Variance(values)
	confidence := ClassifyConfidence(n, fit.R2)

	results := make([]ForecastResult, Horizon)
	for i := range results {
		step := i + 1
		predicted := clampRound(fit.At(float64(n + step - 1)))
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
