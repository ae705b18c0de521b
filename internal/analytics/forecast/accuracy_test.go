package forecast

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCalculateMAPE(t *testing.T) {
	actual := []float64{100, 200, 0}
	predicted := []float64{110, 180, 5}

	// zero actuals are skipped
	if got := CalculateMAPE(actual, predicted); !almostEqual(got, 10, 1e-9) {
		t.Errorf("Expected MAPE 10, got %v", got)
	}
	if got := CalculateMAPE([]float64{1}, []float64{1, 2}); got != 0 {
		t.Errorf("Expected 0 for mismatched lengths, got %v", got)
	}
}

func TestCalculateMAE(t *testing.T) {
	got := CalculateMAE([]float64{100, 200}, []float64{110, 180})
	if !almostEqual(got, 15, 1e-9) {
		t.Errorf("Expected MAE 15, got %v", got)
	}
	if CalculateMAE(nil, nil) != 0 {
		t.Error("Expected 0 for empty input")
	}
}

func TestCalculateRMSE(t *testing.T) {
	got := CalculateRMSE([]float64{100, 200}, []float64{110, 180})
	if !almostEqual(got, math.Sqrt(250), 1e-9) {
		t.Errorf("Expected RMSE %v, got %v", math.Sqrt(250), got)
	}
}

func TestBacktest_PerfectLinear(t *testing.T) {
	values := generateLinearValues(8, 10, 10)

	acc, err := Backtest(values, MethodLinear, 2)
	if err != nil {
		t.Fatalf("Backtest failed: %v", err)
	}
	if acc.Method != MethodLinear || acc.Holdout != 2 {
		t.Errorf("Unexpected metadata: %+v", acc)
	}
	if acc.MAE != 0 || acc.RMSE != 0 || acc.MAPE != 0 {
		t.Errorf("Expected perfect scores, got %+v", acc)
	}
}

func TestBacktest_Errors(t *testing.T) {
	values := generateLinearValues(8, 10, 10)

	if _, err := Backtest(values, Method("arima"), 2); err == nil {
		t.Error("Expected error for unknown method")
	}
	if _, err := Backtest(values, MethodLinear, 0); err == nil {
		t.Error("Expected error for zero holdout")
	}
	if _, err := Backtest(values, MethodLinear, Horizon+1); err == nil {
		t.Error("Expected error for holdout beyond horizon")
	}

	_, err := Backtest([]float64{1, 2}, MethodLinear, 2)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	scores, best, err := Evaluate(generateLinearValues(8, 10, 10), 2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(scores) != len(Methods()) {
		t.Fatalf("Expected %d scores, got %d", len(Methods()), len(scores))
	}
	for i, m := range Methods() {
		if scores[i].Method != m {
			t.Errorf("Score %d: expected method %s, got %s", i, m, scores[i].Method)
		}
	}
	if best != MethodLinear {
		t.Errorf("Expected linear to win on a perfect trend, got %s", best)
	}

	if _, _, err := Evaluate([]float64{5}, 1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate_OverflowingScoresAreCapped(t *testing.T) {
	// Compounding from a near-zero base overflows growth_rate predictions
	values := []float64{1e-300, 1e15, 1e-300, 1e15}

	scores, best, err := Evaluate(values, 2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !best.Valid() {
		t.Fatalf("Expected a recommended method, got %q", best)
	}
	for _, s := range scores {
		for _, v := range []float64{s.MAPE, s.MAE, s.RMSE} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v > MaxPrediction {
				t.Errorf("%s: score %v is not capped", s.Method, v)
			}
		}
	}
	if _, err := json.Marshal(scores); err != nil {
		t.Errorf("scores do not encode: %v", err)
	}
}

func TestDefaultHoldout(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{2, 1},
		{3, 1},
		{30, 10},
		{60, 12},
	}
	for _, tt := range tests {
		if got := DefaultHoldout(tt.n); got != tt.want {
			t.Errorf("DefaultHoldout(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
