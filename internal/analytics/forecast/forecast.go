// Package forecast projects monthly series twelve steps ahead.
//
// Four strategies are available (linear trend, trailing moving average,
// compounding growth rate and seasonally adjusted trend). Every call is a pure
// function of its input: no state survives between calls, so the package is
// safe for concurrent use.
package forecast

import (
	"fmt"
	"strings"

	"github.com/giftpool/forecaster/internal/analytics"
)

// HistoricalPoint is an alias to the shared analytics.HistoricalPoint type.
type HistoricalPoint = analytics.HistoricalPoint

// Horizon is the number of future steps produced by every forecast.
const Horizon = 12

// Method identifies a forecasting strategy
type Method string

const (
	MethodLinear        Method = "linear"
	MethodMovingAverage Method = "moving_average"
	MethodGrowthRate    Method = "growth_rate"
	MethodSeasonal      Method = "seasonal"
)

// Methods returns all strategies in their canonical order
func Methods() []Method {
	return []Method{MethodLinear, MethodMovingAverage, MethodGrowthRate, MethodSeasonal}
}

// Valid reports whether m names a known strategy
func (m Method) Valid() bool {
	switch m {
	case MethodLinear, MethodMovingAverage, MethodGrowthRate, MethodSeasonal:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod converts user input to a Method. An empty string (or "auto")
// returns the empty Method, which asks Generate to pick one.
func ParseMethod(s string) (Method, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" || normalized == "auto" {
		return "", nil
	}
	m := Method(normalized)
	if !m.Valid() {
		return "", fmt.Errorf("unknown forecast method: %s", s)
	}
	return m, nil
}

// Confidence is the coarse reliability tier attached to each prediction
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ForecastRequest is the input of Generate
type ForecastRequest struct {
	Series     []HistoricalPoint
	MetricType string
	SubjectKey string
	TargetYear int
	// Method is optional; the zero value selects one with BestMethod.
	Method Method
}

// ForecastResult is one step of the forecast horizon
type ForecastResult struct {
	Step       int        `json:"step"`
	Period     string     `json:"period,omitempty"`
	Predicted  float64    `json:"predicted"`
	Confidence Confidence `json:"confidence"`
	Method     Method     `json:"method"`
	LowerBound float64    `json:"lower_bound"`
	UpperBound float64    `json:"upper_bound"`
}
