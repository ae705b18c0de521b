package forecast

import (
	"fmt"

	"github.com/giftpool/forecaster/internal/analytics"
)

// Generate produces the Horizon-step forecast for a request. It never fails:
// an empty series yields zero predictions with low confidence, and an empty
// or unrecognised Method is resolved with BestMethod.
func Generate(req ForecastRequest) []ForecastResult {
	values := analytics.Series(req.Series).Values()

	method := req.Method
	if !method.Valid() {
		method = BestMethod(values)
	}

	results := project(values, method)
	if req.TargetYear > 0 {
		for i := range results {
			results[i].Period = PeriodLabel(req.TargetYear, results[i].Step)
		}
	}
	return results
}

// PeriodLabel names the month of targetYear that a forecast step falls on
func PeriodLabel(targetYear, step int) string {
	return fmt.Sprintf("%04d-%02d", targetYear, step)
}

// project dispatches to the strategy for method and tags every result with it.
// method must be valid.
func project(values []float64, method Method) []ForecastResult {
	var results []ForecastResult
	if len(values) == 0 {
		results = zeroForecast()
	} else {
		switch method {
		case MethodLinear:
			results = linearForecast(values)
		case MethodMovingAverage:
			results = movingAverageForecast(values)
		case MethodGrowthRate:
			results = growthRateForecast(values)
		case MethodSeasonal:
			results = seasonalForecast(values)
		}
	}

	for i := range results {
		results[i].Method = method
	}
	return results
}

// zeroForecast is the result for an empty series
func zeroForecast() []ForecastResult {
	results := make([]ForecastResult, Horizon)
	for i := range results {
		results[i] = ForecastResult{
			Step:       i + 1,
			Confidence: ConfidenceLow,
		}
	}
	return results
}
