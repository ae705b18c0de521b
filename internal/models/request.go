package models

import (
	"github.com/giftpool/forecaster/internal/analytics"
)

// ForecastRequest is the body of POST /v1/forecast: an inline series forecast
type ForecastRequest struct {
	Series     []analytics.HistoricalPoint `json:"series"`
	MetricType string                      `json:"metric_type"`
	SubjectKey string                      `json:"subject_key"`
	TargetYear int                         `json:"target_year"`
	Method     string                      `json:"method,omitempty"` // linear, moving_average, growth_rate, seasonal or auto
}

// SubjectForecastRequest is the body of POST /v1/subjects/:subject/metrics/:metric/forecast
type SubjectForecastRequest struct {
	TargetYear int    `json:"target_year"`
	Method     string `json:"method,omitempty"`
}

// BestMethodRequest is the body of POST /v1/forecast/best-method.
// Values takes precedence over Series when both are set.
type BestMethodRequest struct {
	Values []float64                   `json:"values,omitempty"`
	Series []analytics.HistoricalPoint `json:"series,omitempty"`
}

// SeriesPointsRequest replaces or appends points of a stored series
type SeriesPointsRequest struct {
	Points []analytics.HistoricalPoint `json:"points"`
}

// CreateSubjectRequest represents create subject request
type CreateSubjectRequest struct {
	Key         string   `json:"key"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Metrics     []string `json:"metrics,omitempty"`
}

// PreferenceRequest sets the preferred method of a subject metric
type PreferenceRequest struct {
	Method string `json:"method"`
}

// SubmitJobRequest is the body of POST /v1/jobs
type SubmitJobRequest struct {
	Subjects   []string `json:"subjects"`
	Metrics    []string `json:"metrics"`
	TargetYear int      `json:"target_year"`
	Method     string   `json:"method,omitempty"`
}
