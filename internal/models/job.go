package models

import "time"

// Job result statuses
const (
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// ForecastJob is a batch request carried on the jobs subject. The worker
// forecasts every subject and metric pair.
type ForecastJob struct {
	ID          string    `json:"id"`
	Subjects    []string  `json:"subjects"`
	Metrics     []string  `json:"metrics"`
	TargetYear  int       `json:"target_year"`
	Method      string    `json:"method,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Pairs returns the number of forecasts the job asks for
func (j ForecastJob) Pairs() int {
	return len(j.Subjects) * len(j.Metrics)
}

// ForecastJobResult is published on the results subject once per pair
type ForecastJobResult struct {
	JobID       string            `json:"job_id"`
	Subject     string            `json:"subject"`
	Metric      string            `json:"metric"`
	Status      string            `json:"status"`
	Error       *ErrorDetail      `json:"error,omitempty"`
	Response    *ForecastResponse `json:"response,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}
