package forecast

// movingAverageR2 stands in for a fit quality the moving average cannot measure.
// It yields medium confidence from six points and low below that.
const movingAverageR2 = 0.5

// movingAverageForecast repeats the trailing average across the whole horizon
func movingAverageForecast(values []float64) []ForecastResult {
	n := len(values)
	predicted := clampRound(MovingAverage(values, DefaultMovingAverageWindow))
	variance := Variance(values)
	confidence := ClassifyConfidence(n, movingAverageR2)
	lower, upper := EstimateInterval(predicted, variance, n)

	results := make([]ForecastResult, Horizon)
	for i := range results {
		results[i] = ForecastResult{
			Step:       i + 1,
			Predicted:  predicted,
			Confidence: confidence,
			LowerBound: lower,
			UpperBound: upper,
		}
	}
	return results
}
