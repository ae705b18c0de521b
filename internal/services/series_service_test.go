package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/storage"
)

func newTestSeriesService(maxPoints int) *SeriesService {
	return NewSeriesService(logging.NewNop(), storage.NewMemoryStore(), nil, maxPoints)
}

func TestSeriesService_PutGetDelete(t *testing.T) {
	svc := newTestSeriesService(0)
	ctx := context.Background()

	put, err := svc.Put(ctx, "pool-1", "revenue", monthly(10, 20, 30))
	require.NoError(t, err)
	assert.Equal(t, 3, put.Count)
	assert.NotEmpty(t, put.UpdatedAt)

	got, err := svc.Get(ctx, "pool-1", "revenue")
	require.NoError(t, err)
	assert.Equal(t, []analytics.HistoricalPoint(monthly(10, 20, 30)), got.Points)

	list, err := svc.List(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue"}, list.Metrics)

	require.NoError(t, svc.Delete(ctx, "pool-1", "revenue"))
	_, err = svc.Get(ctx, "pool-1", "revenue")
	requireCode(t, err, CodeSeriesNotFound)

	err = svc.Delete(ctx, "pool-1", "revenue")
	requireCode(t, err, CodeSeriesNotFound)

	list, err = svc.List(ctx, "pool-1")
	require.NoError(t, err)
	assert.NotNil(t, list.Metrics)
	assert.Empty(t, list.Metrics)
}

func TestSeriesService_PutValidation(t *testing.T) {
	svc := newTestSeriesService(5)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject string
		metric  string
		points  analytics.Series
	}{
		{"empty points", "pool-1", "revenue", nil},
		{"bad subject", "pool/1", "revenue", monthly(1)},
		{"missing metric", "pool-1", "", monthly(1)},
		{"negative value", "pool-1", "revenue", monthly(1, -2)},
		{"empty period", "pool-1", "revenue", analytics.Series{{Period: "", Value: 1}}},
		{"out of order", "pool-1", "revenue", analytics.Series{{Period: "2024-02", Value: 1}, {Period: "2024-01", Value: 1}}},
		{"too long", "pool-1", "revenue", constant(6, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Put(ctx, tt.subject, tt.metric, tt.points)
			requireCode(t, err, CodeInvalidRequest)
		})
	}
}

func TestSeriesService_Append(t *testing.T) {
	svc := newTestSeriesService(0)
	ctx := context.Background()

	_, err := svc.Put(ctx, "pool-1", "donors", monthly(10, 20, 30))
	require.NoError(t, err)

	// Unordered input is accepted; 2024-03 is overwritten.
	resp, err := svc.Append(ctx, "pool-1", "donors", analytics.Series{
		{Period: "2024-04", Value: 40},
		{Period: "2024-03", Value: 35},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, []float64{10, 20, 35, 40}, analytics.Series(resp.Points).Values())

	// Appending to a missing series creates it.
	resp, err = svc.Append(ctx, "pool-2", "donors", monthly(1))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)

	_, err = svc.Append(ctx, "pool-1", "donors", analytics.Series{
		{Period: "2024-05", Value: 1},
		{Period: "2024-05", Value: 2},
	})
	requireCode(t, err, CodeInvalidRequest)
}

func TestSeriesService_AppendRespectsPointLimit(t *testing.T) {
	env := newTestEnv(t, config.ForecastConfig{MaxPoints: 3})
	svc := NewSeriesService(logging.NewNop(), env.store, env.metrics, 3)
	ctx := context.Background()

	for i, point := range monthly(1, 2, 3) {
		resp, err := svc.Append(ctx, "pool-1", "revenue", analytics.Series{point})
		require.NoError(t, err)
		assert.Equal(t, i+1, resp.Count)
	}

	// Replacing a stored period keeps the count at the limit.
	_, err := svc.Append(ctx, "pool-1", "revenue", analytics.Series{{Period: "2024-03", Value: 4}})
	require.NoError(t, err)

	svcErr := requireCode(t, func() error {
		_, err := svc.Append(ctx, "pool-1", "revenue", analytics.Series{{Period: "2024-04", Value: 5}})
		return err
	}(), CodeInvalidRequest)
	assert.Equal(t, 3, svcErr.Details["max_points"])
	assert.Zero(t, testutil.ToFloat64(env.metrics.ErrorsTotal.WithLabelValues("storage", "append_points")))

	got, err := svc.Get(ctx, "pool-1", "revenue")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4}, analytics.Series(got.Points).Values())

	// The stored series still forecasts under the same limit.
	resp, err := env.service.Execute(ctx, &ForecastRequest{Subject: "pool-1", Metric: "revenue", Method: "linear"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.DataPoints)
}

func TestSeriesService_StorageFailure(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), fail: map[string]bool{"put": true, "get": true}}
	svc := NewSeriesService(logging.NewNop(), store, nil, 0)
	ctx := context.Background()

	_, err := svc.Put(ctx, "pool-1", "revenue", monthly(1))
	requireCode(t, err, CodeStorageFailed)

	_, err = svc.Get(ctx, "pool-1", "revenue")
	requireCode(t, err, CodeStorageFailed)
}
