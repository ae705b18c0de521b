package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/analytics/forecast"
	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metadata"
	"github.com/giftpool/forecaster/internal/metrics"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/storage"
)

// Where the method of a forecast came from
const (
	SelectionExplicit   = "explicit"
	SelectionPreference = "preference"
	SelectionDefault    = "default"
	SelectionAuto       = "auto"
)

const maxTargetYear = 9999

// ForecastService runs the engine against inline or stored series
type ForecastService struct {
	logger   *logging.Logger
	store    storage.Store
	metadata metadata.Manager
	metrics  *metrics.Metrics
	cfg      config.ForecastConfig
	now      func() time.Time
}

// NewForecastService creates a new ForecastService
func NewForecastService(
	logger *logging.Logger,
	store storage.Store,
	metadataManager metadata.Manager,
	m *metrics.Metrics,
	cfg config.ForecastConfig,
) *ForecastService {
	if logger == nil {
		logger = logging.Global()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &ForecastService{
		logger:   logger,
		store:    store,
		metadata: metadataManager,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ForecastRequest asks for a forecast of one series. A nil Series loads the
// stored series of Subject and Metric; otherwise Subject and Metric only label
// the result, and the snapshot is saved when both are set.
type ForecastRequest struct {
	Subject    string
	Metric     string
	TargetYear int
	Method     string
	Series     analytics.Series
}

func (r *ForecastRequest) inline() bool {
	return r.Series != nil
}

func (r *ForecastRequest) key() storage.SeriesKey {
	return storage.SeriesKey{Subject: r.Subject, Metric: r.Metric}
}

// Execute resolves the method, runs the engine and saves a snapshot.
// Method resolution order: request, subject preference, configured default,
// then the selector.
func (s *ForecastService) Execute(ctx context.Context, req *ForecastRequest) (*models.ForecastResponse, error) {
	explicit, err := parseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if req.TargetYear < 0 || req.TargetYear > maxTargetYear {
		return nil, invalidRequest(fmt.Sprintf("target_year must be between 0 and %d", maxTargetYear))
	}

	series, err := s.resolveSeries(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithSeries(ctx, req.Subject, req.Metric)
	if s.cfg.MinPointsWarning > 0 && series.Len() < s.cfg.MinPointsWarning {
		s.logger.WithContext(ctx).Warn("Forecasting a short series, confidence will be low",
			"points", series.Len(), "min_points", s.cfg.MinPointsWarning)
	}

	method, selection := s.resolveMethod(ctx, req, explicit, series.Values())

	start := time.Now()
	results := forecast.Generate(forecast.ForecastRequest{
		Series:     series,
		MetricType: req.Metric,
		SubjectKey: req.Subject,
		TargetYear: req.TargetYear,
		Method:     method,
	})
	elapsed := time.Since(start)

	confidences := make([]string, len(results))
	for i, r := range results {
		confidences[i] = string(r.Confidence)
	}
	s.metrics.RecordForecast(string(method), selection, confidences, elapsed)

	generatedAt := s.now().UTC()
	if req.key().Validate() == nil {
		s.saveSnapshot(ctx, storage.Snapshot{
			Subject:      req.Subject,
			Metric:       req.Metric,
			TargetYear:   req.TargetYear,
			Method:       method,
			AutoSelected: selection == SelectionAuto,
			DataPoints:   series.Len(),
			GeneratedAt:  generatedAt,
			Results:      results,
		})
	}

	s.logger.WithContext(ctx).Info("Forecast completed",
		"method", method,
		"selection", selection,
		"points", series.Len(),
		"target_year", req.TargetYear,
		"latency_us", elapsed.Microseconds())

	return &models.ForecastResponse{
		Subject:      req.Subject,
		Metric:       req.Metric,
		TargetYear:   req.TargetYear,
		Method:       method,
		AutoSelected: selection == SelectionAuto,
		DataPoints:   series.Len(),
		GeneratedAt:  generatedAt.Format(time.RFC3339),
		Forecasts:    results,
	}, nil
}

// resolveSeries validates inline series or loads the stored one
func (s *ForecastService) resolveSeries(ctx context.Context, req *ForecastRequest) (analytics.Series, error) {
	var series analytics.Series
	if req.inline() {
		if err := req.Series.Validate(); err != nil {
			return nil, invalidRequest("invalid series: " + err.Error())
		}
		series = req.Series
	} else {
		stored, err := s.loadSeries(ctx, req.key())
		if err != nil {
			return nil, err
		}
		series = stored.Points
	}

	if s.cfg.MaxPoints > 0 && series.Len() > s.cfg.MaxPoints {
		return nil, NewServiceErrorWithDetails(CodeInvalidRequest,
			fmt.Sprintf("series has %d points, the limit is %d", series.Len(), s.cfg.MaxPoints),
			map[string]interface{}{"max_points": s.cfg.MaxPoints})
	}
	return series, nil
}

func (s *ForecastService) resolveMethod(ctx context.Context, req *ForecastRequest, explicit forecast.Method, values []float64) (forecast.Method, string) {
	if explicit != "" {
		return explicit, SelectionExplicit
	}
	if m := s.preferredMethod(ctx, req.Subject, req.Metric); m != "" {
		return m, SelectionPreference
	}
	if m, err := forecast.ParseMethod(s.cfg.DefaultMethod); err == nil && m != "" {
		return m, SelectionDefault
	}
	return forecast.BestMethod(values), SelectionAuto
}

// preferredMethod returns the subject's preference or "" when there is none.
// Lookup failures are logged and ignored since preferences are advisory.
func (s *ForecastService) preferredMethod(ctx context.Context, subject, metric string) forecast.Method {
	if s.metadata == nil || subject == "" || metric == "" {
		return ""
	}

	raw, err := s.metadata.GetPreferredMethod(ctx, subject, metric)
	if err != nil {
		if !errors.Is(err, metadata.ErrNotFound) {
			s.metrics.RecordError("metadata", "get_preference")
			s.logger.WithContext(ctx).Warn("Failed to read method preference", "error", err)
		}
		return ""
	}

	m, err := forecast.ParseMethod(raw)
	if err != nil {
		s.logger.WithContext(ctx).Warn("Ignoring invalid method preference", "preference", raw)
		return ""
	}
	return m
}

func (s *ForecastService) saveSnapshot(ctx context.Context, snap storage.Snapshot) {
	if err := s.store.PutSnapshot(ctx, snap); err != nil {
		s.metrics.RecordError("storage", "put_snapshot")
		s.logger.WithContext(ctx).Error("Failed to save forecast snapshot", "error", err)
	}
}

func (s *ForecastService) loadSeries(ctx context.Context, key storage.SeriesKey) (*storage.StoredSeries, error) {
	if err := key.Validate(); err != nil {
		return nil, invalidRequest(err.Error())
	}

	stored, err := s.store.GetSeries(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewServiceErrorWithDetails(CodeSeriesNotFound,
				"series not found: "+key.String(),
				map[string]interface{}{"subject": key.Subject, "metric": key.Metric})
		}
		s.metrics.RecordError("storage", "get_series")
		return nil, internalError(CodeStorageFailed, "failed to load series", err)
	}
	return stored, nil
}

// BestMethod runs the selector on a stored series
func (s *ForecastService) BestMethod(ctx context.Context, subject, metric string) (*models.BestMethodResponse, error) {
	stored, err := s.loadSeries(ctx, storage.SeriesKey{Subject: subject, Metric: metric})
	if err != nil {
		return nil, err
	}

	resp := s.BestMethodForValues(stored.Points.Values())
	resp.Subject = subject
	resp.Metric = metric
	return resp, nil
}

// BestMethodForValues runs the selector on raw values
func (s *ForecastService) BestMethodForValues(values []float64) *models.BestMethodResponse {
	return &models.BestMethodResponse{
		Method:     forecast.BestMethod(values),
		DataPoints: len(values),
	}
}

// Evaluate backtests every method on a stored series. A holdout of 0 picks
// a default window from the series length.
func (s *ForecastService) Evaluate(ctx context.Context, subject, metric string, holdout int) (*models.EvaluateResponse, error) {
	stored, err := s.loadSeries(ctx, storage.SeriesKey{Subject: subject, Metric: metric})
	if err != nil {
		return nil, err
	}

	values := stored.Points.Values()
	if holdout == 0 {
		holdout = forecast.DefaultHoldout(len(values))
	}

	scores, best, err := forecast.Evaluate(values, holdout)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidRequest, err.Error(),
			map[string]interface{}{"data_points": len(values), "holdout": holdout})
	}

	return &models.EvaluateResponse{
		Subject:     subject,
		Metric:      metric,
		Holdout:     holdout,
		DataPoints:  len(values),
		Recommended: best,
		Selected:    forecast.BestMethod(values),
		Scores:      scores,
	}, nil
}

// LatestSnapshot returns a saved forecast. A targetYear of 0 returns the most
// recently generated one.
func (s *ForecastService) LatestSnapshot(ctx context.Context, subject, metric string, targetYear int) (*models.ForecastResponse, error) {
	key := storage.SeriesKey{Subject: subject, Metric: metric}
	if err := key.Validate(); err != nil {
		return nil, invalidRequest(err.Error())
	}

	var (
		snap storage.Snapshot
		err  error
	)
	if targetYear > 0 {
		snap, err = s.store.GetSnapshot(ctx, key, targetYear)
	} else {
		snap, err = s.store.GetLatestSnapshot(ctx, key)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewServiceError(CodeSnapshotNotFound, "no forecast snapshot for "+key.String())
		}
		s.metrics.RecordError("storage", "get_snapshot")
		return nil, internalError(CodeStorageFailed, "failed to load snapshot", err)
	}

	return &models.ForecastResponse{
		Subject:      snap.Subject,
		Metric:       snap.Metric,
		TargetYear:   snap.TargetYear,
		Method:       snap.Method,
		AutoSelected: snap.AutoSelected,
		DataPoints:   snap.DataPoints,
		GeneratedAt:  snap.GeneratedAt.UTC().Format(time.RFC3339),
		Forecasts:    snap.Results,
	}, nil
}

// parseMethod converts a request method to the engine type, "" meaning unset
func parseMethod(raw string) (forecast.Method, error) {
	m, err := forecast.ParseMethod(raw)
	if err != nil {
		return "", NewServiceErrorWithDetails(CodeInvalidMethod, err.Error(), map[string]interface{}{
			"available_methods": forecast.Methods(),
		})
	}
	return m, nil
}
