// Package metrics exposes Prometheus instrumentation for forecast generation
// and batch jobs.
//
// Metrics exposed:
//   - forecaster_forecasts_total: forecasts generated, by method and selection
//     ("explicit", "preference", "default", "auto")
//   - forecaster_results_total: forecast records produced, by confidence tier
//   - forecaster_generate_seconds: histogram of engine run time
//   - forecaster_jobs_total: batch job pairs processed, by status
//   - forecaster_errors_total: errors by component and reason
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the forecaster collectors
type Metrics struct {
	ForecastsTotal  *prometheus.CounterVec
	ResultsTotal    *prometheus.CounterVec
	GenerateSeconds prometheus.Histogram
	JobsTotal       *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ForecastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecaster_forecasts_total",
			Help: "Total number of forecasts generated by method and selection source",
		}, []string{"method", "selection"}),

		ResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecaster_results_total",
			Help: "Total number of forecast records by confidence tier",
		}, []string{"confidence"}),

		GenerateSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecaster_generate_seconds",
			Help:    "Time spent running the forecast engine",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),

		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecaster_jobs_total",
			Help: "Total number of batch job pairs processed by status",
		}, []string{"status"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecaster_errors_total",
			Help: "Total number of errors by component and reason",
		}, []string{"component", "reason"}),
	}
}

// NewNop returns unregistered collectors
func NewNop() *Metrics {
	return New(nil)
}

// RecordForecast counts one forecast and the confidence of each of its records
func (m *Metrics) RecordForecast(method, selection string, confidences []string, elapsed time.Duration) {
	m.ForecastsTotal.WithLabelValues(method, selection).Inc()
	for _, c := range confidences {
		m.ResultsTotal.WithLabelValues(c).Inc()
	}
	m.GenerateSeconds.Observe(elapsed.Seconds())
}

// RecordJob counts one processed job pair
func (m *Metrics) RecordJob(status string) {
	m.JobsTotal.WithLabelValues(status).Inc()
}

// RecordError increments the error counter
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
