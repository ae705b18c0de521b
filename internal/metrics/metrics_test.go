package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordForecast("linear", "auto", []string{"high", "high", "low"}, 2*time.Millisecond)
	m.RecordJob("succeeded")
	m.RecordError("storage", "get_series")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"forecaster_forecasts_total",
		"forecaster_results_total",
		"forecaster_generate_seconds",
		"forecaster_jobs_total",
		"forecaster_errors_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(reg)
}

func TestRecordForecast(t *testing.T) {
	m := NewNop()

	m.RecordForecast("seasonal", "explicit", []string{"high", "medium", "medium"}, time.Millisecond)
	m.RecordForecast("seasonal", "explicit", nil, time.Millisecond)

	if got := testutil.ToFloat64(m.ForecastsTotal.WithLabelValues("seasonal", "explicit")); got != 2 {
		t.Errorf("forecasts_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ResultsTotal.WithLabelValues("medium")); got != 2 {
		t.Errorf("results_total{medium} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ResultsTotal.WithLabelValues("high")); got != 1 {
		t.Errorf("results_total{high} = %v, want 1", got)
	}
}

func TestRecordJobAndError(t *testing.T) {
	m := NewNop()

	m.RecordJob("failed")
	m.RecordJob("failed")
	m.RecordJob("succeeded")
	m.RecordError("queue", "publish")

	expected := `
# HELP forecaster_jobs_total Total number of batch job pairs processed by status
# TYPE forecaster_jobs_total counter
forecaster_jobs_total{status="failed"} 2
forecaster_jobs_total{status="succeeded"} 1
`
	if err := testutil.CollectAndCompare(m.JobsTotal, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("queue", "publish")); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
}
