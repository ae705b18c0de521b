package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metadata"
	"github.com/giftpool/forecaster/internal/metrics"
	"github.com/giftpool/forecaster/internal/storage"
)

// monthly builds a series starting at 2024-01 with one point per value
func monthly(values ...float64) analytics.Series {
	series := make(analytics.Series, len(values))
	for i, v := range values {
		series[i] = analytics.HistoricalPoint{
			Period: fmt.Sprintf("%04d-%02d", 2024+i/12, i%12+1),
			Value:  v,
		}
	}
	return series
}

func constant(n int, v float64) analytics.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return monthly(values...)
}

type testEnv struct {
	store    *storage.MemoryStore
	metadata *metadata.MemoryManager
	metrics  *metrics.Metrics
	service  *ForecastService
}

func newTestEnv(t *testing.T, cfg config.ForecastConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    storage.NewMemoryStore(),
		metadata: metadata.NewMemoryManager(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	env.service = NewForecastService(logging.NewNop(), env.store, env.metadata, env.metrics, cfg)
	return env
}

func (e *testEnv) putSeries(t *testing.T, subject, metric string, series analytics.Series) {
	t.Helper()
	require.NoError(t, e.store.PutSeries(context.Background(), storage.SeriesKey{Subject: subject, Metric: metric}, series))
}

// failingStore fails the operations named in fail and delegates the rest
type failingStore struct {
	*storage.MemoryStore
	fail map[string]bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingStore) GetSeries(ctx context.Context, key storage.SeriesKey) (*storage.StoredSeries, error) {
	if f.fail["get"] {
		return nil, errStoreDown
	}
	return f.MemoryStore.GetSeries(ctx, key)
}

func (f *failingStore) PutSeries(ctx context.Context, key storage.SeriesKey, points analytics.Series) error {
	if f.fail["put"] {
		return errStoreDown
	}
	return f.MemoryStore.PutSeries(ctx, key, points)
}

func (f *failingStore) PutSnapshot(ctx context.Context, snap storage.Snapshot) error {
	if f.fail["snapshot"] {
		return errStoreDown
	}
	return f.MemoryStore.PutSnapshot(ctx, snap)
}

// requireCode asserts err is a *ServiceError with code
func requireCode(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := AsServiceError(err)
	require.True(t, ok, "expected *ServiceError, got %T: %v", err, err)
	require.Equal(t, code, svcErr.Code, svcErr.Message)
	return svcErr
}
