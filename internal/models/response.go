package models

import (
	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/analytics/forecast"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ForecastResponse is the outcome of one forecast
type ForecastResponse struct {
	Subject      string                    `json:"subject,omitempty"`
	Metric       string                    `json:"metric,omitempty"`
	TargetYear   int                       `json:"target_year,omitempty"`
	Method       forecast.Method           `json:"method"`
	AutoSelected bool                      `json:"auto_selected"`
	DataPoints   int                       `json:"data_points"`
	GeneratedAt  string                    `json:"generated_at"`
	Forecasts    []forecast.ForecastResult `json:"forecasts"`
}

// BestMethodResponse reports the selector's recommendation
type BestMethodResponse struct {
	Subject    string          `json:"subject,omitempty"`
	Metric     string          `json:"metric,omitempty"`
	Method     forecast.Method `json:"method"`
	DataPoints int             `json:"data_points"`
}

// EvaluateResponse reports backtest scores for every method
type EvaluateResponse struct {
	Subject     string              `json:"subject"`
	Metric      string              `json:"metric"`
	Holdout     int                 `json:"holdout"`
	DataPoints  int                 `json:"data_points"`
	Recommended forecast.Method     `json:"recommended"`
	Selected    forecast.Method     `json:"selected"` // what the selector picks without backtesting
	Scores      []forecast.Accuracy `json:"scores"`
}

// SeriesResponse represents a stored series
type SeriesResponse struct {
	Subject   string                      `json:"subject"`
	Metric    string                      `json:"metric"`
	Points    []analytics.HistoricalPoint `json:"points"`
	Count     int                         `json:"count"`
	UpdatedAt string                      `json:"updated_at,omitempty"`
}

// SeriesListResponse lists the metrics stored for a subject
type SeriesListResponse struct {
	Subject string   `json:"subject"`
	Metrics []string `json:"metrics"`
}

// SubjectResponse represents subject metadata response
type SubjectResponse struct {
	Key              string            `json:"key"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Metrics          []string          `json:"metrics,omitempty"`
	PreferredMethods map[string]string `json:"preferred_methods,omitempty"`
	CreatedAt        string            `json:"created_at"`
}

// SubjectListResponse represents list subjects response
type SubjectListResponse struct {
	Subjects []SubjectResponse `json:"subjects"`
}

// JobAcceptedResponse is returned when a batch job has been queued
type JobAcceptedResponse struct {
	JobID     string `json:"job_id"`
	Pairs     int    `json:"pairs"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
