package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metrics"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/storage"
)

// SeriesService validates and stores historical series
type SeriesService struct {
	logger    *logging.Logger
	store     storage.SeriesStore
	metrics   *metrics.Metrics
	maxPoints int
}

// NewSeriesService creates a new SeriesService. maxPoints of 0 disables the
// length limit.
func NewSeriesService(logger *logging.Logger, store storage.SeriesStore, m *metrics.Metrics, maxPoints int) *SeriesService {
	if logger == nil {
		logger = logging.Global()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &SeriesService{
		logger:    logger,
		store:     store,
		metrics:   m,
		maxPoints: maxPoints,
	}
}

// Put replaces the stored series. Points must already be in period order.
func (s *SeriesService) Put(ctx context.Context, subject, metric string, points analytics.Series) (*models.SeriesResponse, error) {
	key := storage.SeriesKey{Subject: subject, Metric: metric}
	if err := key.Validate(); err != nil {
		return nil, invalidRequest(err.Error())
	}
	if err := s.validatePoints(points); err != nil {
		return nil, err
	}

	if err := s.store.PutSeries(ctx, key, points); err != nil {
		s.metrics.RecordError("storage", "put_series")
		return nil, internalError(CodeStorageFailed, "failed to store series", err)
	}

	s.logger.WithContext(ctx).Info("Series stored", "subject", subject, "metric", metric, "points", len(points))
	return seriesResponse(key, points, time.Now()), nil
}

// Append merges points into the stored series, replacing values of periods
// that already exist. Points may arrive in any order.
func (s *SeriesService) Append(ctx context.Context, subject, metric string, points analytics.Series) (*models.SeriesResponse, error) {
	key := storage.SeriesKey{Subject: subject, Metric: metric}
	if err := key.Validate(); err != nil {
		return nil, invalidRequest(err.Error())
	}

	sorted := make(analytics.Series, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })
	if err := s.validatePoints(sorted); err != nil {
		return nil, err
	}

	merged, err := s.store.AppendPoints(ctx, key, sorted, s.maxPoints)
	if err != nil {
		if errors.Is(err, storage.ErrTooManyPoints) {
			return nil, NewServiceErrorWithDetails(CodeInvalidRequest,
				fmt.Sprintf("appending would grow the series past the limit of %d points", s.maxPoints),
				map[string]interface{}{"max_points": s.maxPoints})
		}
		s.metrics.RecordError("storage", "append_points")
		return nil, internalError(CodeStorageFailed, "failed to append points", err)
	}

	s.logger.WithContext(ctx).Info("Series points appended",
		"subject", subject, "metric", metric, "appended", len(points), "total", len(merged))
	return seriesResponse(key, merged, time.Now()), nil
}

// Get returns a stored series
func (s *SeriesService) Get(ctx context.Context, subject, metric string) (*models.SeriesResponse, error) {
	key := storage.SeriesKey{Subject: subject, Metric: metric}
	if err := key.Validate(); err != nil {
		return nil, invalidRequest(err.Error())
	}

	stored, err := s.store.GetSeries(ctx, key)
	if err != nil {
		return nil, s.lookupError(key, err, "get_series")
	}
	return seriesResponse(key, stored.Points, stored.UpdatedAt), nil
}

// List returns the metrics stored for a subject
func (s *SeriesService) List(ctx context.Context, subject string) (*models.SeriesListResponse, error) {
	if err := storage.ValidateName("subject", subject); err != nil {
		return nil, invalidRequest(err.Error())
	}

	metricNames, err := s.store.ListSeries(ctx, subject)
	if err != nil {
		s.metrics.RecordError("storage", "list_series")
		return nil, internalError(CodeStorageFailed, "failed to list series", err)
	}
	if metricNames == nil {
		metricNames = []string{}
	}
	return &models.SeriesListResponse{Subject: subject, Metrics: metricNames}, nil
}

// Delete removes a stored series
func (s *SeriesService) Delete(ctx context.Context, subject, metric string) error {
	key := storage.SeriesKey{Subject: subject, Metric: metric}
	if err := key.Validate(); err != nil {
		return invalidRequest(err.Error())
	}

	if err := s.store.DeleteSeries(ctx, key); err != nil {
		return s.lookupError(key, err, "delete_series")
	}
	s.logger.WithContext(ctx).Info("Series deleted", "subject", subject, "metric", metric)
	return nil
}

func (s *SeriesService) validatePoints(points analytics.Series) error {
	if len(points) == 0 {
		return invalidRequest("points are required")
	}
	if s.maxPoints > 0 && len(points) > s.maxPoints {
		return invalidRequest(fmt.Sprintf("series has %d points, the limit is %d", len(points), s.maxPoints))
	}
	if err := points.Validate(); err != nil {
		return invalidRequest("invalid series: " + err.Error())
	}
	return nil
}

func (s *SeriesService) lookupError(key storage.SeriesKey, err error, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewServiceError(CodeSeriesNotFound, "series not found: "+key.String())
	}
	s.metrics.RecordError("storage", op)
	return internalError(CodeStorageFailed, "storage operation failed", err)
}

func seriesResponse(key storage.SeriesKey, points analytics.Series, updatedAt time.Time) *models.SeriesResponse {
	if points == nil {
		points = analytics.Series{}
	}
	resp := &models.SeriesResponse{
		Subject: key.Subject,
		Metric:  key.Metric,
		Points:  points,
		Count:   len(points),
	}
	if !updatedAt.IsZero() {
		resp.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
