package forecast

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned by Backtest when the series cannot be split
var ErrInsufficientData = errors.New("insufficient data points for backtest")

// Accuracy summarises how well a method would have predicted held out history
type Accuracy struct {
	Method  Method  `json:"method"`
	Holdout int     `json:"holdout"`
	MAPE    float64 `json:"mape"` // Mean Absolute Percentage Error
	MAE     float64 `json:"mae"`  // Mean Absolute Error
	RMSE    float64 `json:"rmse"` // Root Mean Squared Error
}

// CalculateMAPE calculates Mean Absolute Percentage Error
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// Backtest forecasts from all but the last holdout values and scores the
// first holdout steps against them. holdout must be between 1 and Horizon
// and leave at least one training value.
func Backtest(values []float64, method Method, holdout int) (Accuracy, error) {
	if !method.Valid() {
		return Accuracy{}, fmt.Errorf("unknown forecast method: %s", method)
	}
	if holdout < 1 || holdout > Horizon {
		return Accuracy{}, fmt.Errorf("holdout must be between 1 and %d, got %d", Horizon, holdout)
	}
	if len(values)-holdout < 1 {
		return Accuracy{}, fmt.Errorf("%w: need more than %d, have %d", ErrInsufficientData, holdout, len(values))
	}

	train := values[:len(values)-holdout]
	actual := values[len(values)-holdout:]

	results := project(train, method)
	predicted := make([]float64, holdout)
	for i := range predicted {
		predicted[i] = results[i].Predicted
	}

	return Accuracy{
		Method:  method,
		Holdout: holdout,
		MAPE:    capScore(CalculateMAPE(actual, predicted)),
		MAE:     capScore(CalculateMAE(actual, predicted)),
		RMSE:    capScore(CalculateRMSE(actual, predicted)),
	}, nil
}

// capScore keeps an error score finite; overflowed scores report MaxPrediction
func capScore(x float64) float64 {
	if math.IsNaN(x) || x > MaxPrediction {
		return MaxPrediction
	}
	return x
}

// Evaluate backtests every method and returns the scores in Methods order
// together with the method with the lowest MAE (earliest wins ties).
func Evaluate(values []float64, holdout int) ([]Accuracy, Method, error) {
	scores := make([]Accuracy, 0, len(Methods()))
	var best Method
	bestMAE := math.Inf(1)

	for _, m := range Methods() {
		acc, err := Backtest(values, m, holdout)
		if err != nil {
			return nil, "", err
		}
		scores = append(scores, acc)
		if acc.MAE < bestMAE {
			bestMAE = acc.MAE
			best = m
		}
	}
	return scores, best, nil
}

// DefaultHoldout picks a backtest window: a third of the series, capped at Horizon
func DefaultHoldout(n int) int {
	h := n / 3
	if h > Horizon {
		h = Horizon
	}
	if h < 1 {
		h = 1
	}
	return h
}
