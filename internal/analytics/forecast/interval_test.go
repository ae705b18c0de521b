package forecast

import (
	"math"
	"testing"
)

func TestIntervalFactor(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 2.5},
		{5, 2.5},
		{6, 2.0},
		{11, 2.0},
		{12, 1.5},
		{120, 1.5},
	}
	for _, tt := range tests {
		if got := IntervalFactor(tt.n); got != tt.want {
			t.Errorf("IntervalFactor(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestEstimateInterval(t *testing.T) {
	tests := []struct {
		name      string
		predicted float64
		variance  float64
		n         int
		wantLower float64
		wantUpper float64
	}{
		{"zero variance", 100, 0, 20, 100, 100},
		{"large sample", 100, 100, 12, 85, 115},
		{"medium sample", 100, 100, 6, 80, 120},
		{"small sample", 100, 100, 5, 75, 125},
		{"clamped at zero", 10, 100, 5, 0, 35},
		{"negative variance", 50, -4, 12, 50, 50},
		{"nan variance", 50, math.NaN(), 12, 50, 50},
		{"infinite variance", 50, math.Inf(1), 12, 0, MaxPrediction},
		{"upper capped", MaxPrediction, 100, 12, MaxPrediction, MaxPrediction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper := EstimateInterval(tt.predicted, tt.variance, tt.n)
			if lower != tt.wantLower || upper != tt.wantUpper {
				t.Errorf("EstimateInterval() = (%v, %v), want (%v, %v)", lower, upper, tt.wantLower, tt.wantUpper)
			}
		})
	}
}
