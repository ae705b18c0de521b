package forecast

import (
	"fmt"
	"math"
	"testing"
)

// Common test data and helpers for all forecast tests

// monthlySeries builds a series with consecutive monthly periods starting at 2024-01
func monthlySeries(values ...float64) []HistoricalPoint {
	series := make([]HistoricalPoint, len(values))
	for i, v := range values {
		series[i] = HistoricalPoint{
			Period: fmt.Sprintf("%04d-%02d", 2024+i/12, i%12+1),
			Value:  v,
		}
	}
	return series
}

// generateLinearValues creates values following y = slope * x + intercept
func generateLinearValues(n int, slope, intercept float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return values
}

// generateGrowthValues creates values compounding at rate from start
func generateGrowthValues(n int, start, rate float64) []float64 {
	values := make([]float64, n)
	v := start
	for i := range values {
		values[i] = v
		v *= 1 + rate
	}
	return values
}

// generateSpikeValues creates n values of base with every twelfth value set to spike
func generateSpikeValues(n int, base, spike float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = base
		if i%SeasonLength == 0 {
			values[i] = spike
		}
	}
	return values
}

func constantValues(n int, v float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return values
}

// assertForecastShape checks the invariants every forecast must satisfy
func assertForecastShape(t *testing.T, results []ForecastResult, method Method) {
	t.Helper()

	if len(results) != Horizon {
		t.Fatalf("Expected %d results, got %d", Horizon, len(results))
	}
	for i, r := range results {
		if r.Step != i+1 {
			t.Errorf("Result %d: expected step %d, got %d", i, i+1, r.Step)
		}
		if r.Method != method {
			t.Errorf("Result %d: expected method %s, got %s", i, method, r.Method)
		}
		for _, v := range []float64{r.Predicted, r.LowerBound, r.UpperBound} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("Result %d: non-finite value in %+v", i, r)
			}
		}
		if r.LowerBound < 0 {
			t.Errorf("Result %d: lower bound %v is negative", i, r.LowerBound)
		}
		if r.LowerBound > r.Predicted {
			t.Errorf("Result %d: lower bound %v > predicted %v", i, r.LowerBound, r.Predicted)
		}
		if r.UpperBound < r.Predicted {
			t.Errorf("Result %d: upper bound %v < predicted %v", i, r.UpperBound, r.Predicted)
		}
	}
}
