package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metadata"
	"github.com/giftpool/forecaster/internal/middleware"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/queue"
	"github.com/giftpool/forecaster/internal/services"
	"github.com/giftpool/forecaster/internal/storage"
)

const seriesPath = "/v1/subjects/:subject/metrics/:metric"

type testServer struct {
	app     *fiber.App
	handler *Handler
	store   *storage.MemoryStore
	queue   *queue.MemoryQueue
}

// newTestServer wires the handlers over in-memory backends. With withJobs
// false the handler behaves as if the queue were disabled.
func newTestServer(t *testing.T, withJobs bool) *testServer {
	t.Helper()
	logger := logging.NewNop()
	store := storage.NewMemoryStore()
	meta := metadata.NewMemoryManager()

	forecasts := services.NewForecastService(logger, store, meta, nil, config.ForecastConfig{})
	opts := Options{
		Forecasts: forecasts,
		Series:    services.NewSeriesService(logger, store, nil, 0),
		Subjects:  services.NewSubjectService(logger, meta),
		Checks:    map[string]HealthChecker{"storage": store.Ping},
		Version:   "test",
	}

	ts := &testServer{store: store}
	if withJobs {
		ts.queue = queue.NewMemoryQueue(logger)
		t.Cleanup(func() { _ = ts.queue.Close() })
		opts.Jobs = services.NewJobService(logger, ts.queue, forecasts, nil, config.QueueConfig{
			JobsSubject:    "forecast.jobs",
			ResultsSubject: "forecast.results",
		})
	}
	ts.handler = New(logger, opts)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	h := ts.handler
	app.Get("/health", h.Health)
	app.Post("/v1/forecast", h.Forecast)
	app.Post("/v1/forecast/best-method", h.BestMethodInline)
	app.Post("/v1/subjects", h.CreateSubject)
	app.Get("/v1/subjects", h.ListSubjects)
	app.Get("/v1/subjects/:subject", h.GetSubject)
	app.Delete("/v1/subjects/:subject", h.DeleteSubject)
	app.Get("/v1/subjects/:subject/metrics", h.ListSeries)
	app.Put(seriesPath+"/series", h.PutSeries)
	app.Get(seriesPath+"/series", h.GetSeries)
	app.Delete(seriesPath+"/series", h.DeleteSeries)
	app.Post(seriesPath+"/series/points", h.AppendPoints)
	app.Get(seriesPath+"/forecast", h.SubjectForecast)
	app.Post(seriesPath+"/forecast", h.SubjectForecast)
	app.Get(seriesPath+"/forecast/latest", h.LatestForecast)
	app.Get(seriesPath+"/best-method", h.BestMethod)
	app.Get(seriesPath+"/evaluate", h.Evaluate)
	app.Put(seriesPath+"/preference", h.SetPreference)
	app.Delete(seriesPath+"/preference", h.ClearPreference)
	app.Post("/v1/jobs", h.SubmitJob)
	app.Use(h.NotFound)
	ts.app = app

	return ts
}

// do sends a request with an optional JSON body and decodes the response into out
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// monthlyPoints builds a points body starting at 2024-01 with one point per value
func monthlyPoints(values ...float64) models.SeriesPointsRequest {
	req := models.SeriesPointsRequest{}
	for i, v := range values {
		req.Points = append(req.Points, analytics.HistoricalPoint{
			Period: fmt.Sprintf("%04d-%02d", 2024+i/12, i%12+1),
			Value:  v,
		})
	}
	return req
}

func constantPoints(n int, v float64) models.SeriesPointsRequest {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return monthlyPoints(values...)
}
