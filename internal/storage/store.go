// Package storage persists historical series and forecast snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/analytics/forecast"
)

// ErrNotFound is returned when a series or snapshot does not exist
var ErrNotFound = errors.New("not found")

// ErrTooManyPoints is returned by AppendPoints when the merged series would
// exceed the caller's limit. Nothing is written in that case.
var ErrTooManyPoints = errors.New("series point limit exceeded")

const maxKeyPartLength = 128

// SeriesKey identifies one metric series of a subject
type SeriesKey struct {
	Subject string `json:"subject"`
	Metric  string `json:"metric"`
}

func (k SeriesKey) String() string {
	return k.Subject + "/" + k.Metric
}

// Validate checks both parts are usable as storage key segments
func (k SeriesKey) Validate() error {
	if err := ValidateName("subject", k.Subject); err != nil {
		return err
	}
	return ValidateName("metric", k.Metric)
}

// ValidateName allows letters, digits, hyphens, underscores and dots
func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", kind)
	}
	if len(name) > maxKeyPartLength {
		return fmt.Errorf("%s exceeds %d characters", kind, maxKeyPartLength)
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
			return fmt.Errorf("invalid %s %q: only alphanumeric, hyphens, underscores and dots allowed", kind, name)
		}
	}
	return nil
}

// StoredSeries is a series together with its bookkeeping
type StoredSeries struct {
	Key       SeriesKey        `json:"key"`
	Points    analytics.Series `json:"points"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot is a persisted forecast
type Snapshot struct {
	Subject      string                    `json:"subject"`
	Metric       string                    `json:"metric"`
	TargetYear   int                       `json:"target_year"`
	Method       forecast.Method           `json:"method"`
	AutoSelected bool                      `json:"auto_selected"`
	DataPoints   int                       `json:"data_points"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Results      []forecast.ForecastResult `json:"results"`
}

// SeriesStore stores historical series keyed by subject and metric
type SeriesStore interface {
	// PutSeries replaces the whole series
	PutSeries(ctx context.Context, key SeriesKey, points analytics.Series) error

	// AppendPoints merges points into the series by period, creating it when
	// missing, and returns the merged series. A positive maxPoints rejects a
	// merge longer than that with ErrTooManyPoints.
	AppendPoints(ctx context.Context, key SeriesKey, points analytics.Series, maxPoints int) (analytics.Series, error)

	// GetSeries returns ErrNotFound when the series does not exist
	GetSeries(ctx context.Context, key SeriesKey) (*StoredSeries, error)

	// ListSeries returns the sorted metric names stored for a subject
	ListSeries(ctx context.Context, subject string) ([]string, error)

	// DeleteSeries returns ErrNotFound when the series does not exist
	DeleteSeries(ctx context.Context, key SeriesKey) error
}

// SnapshotStore stores generated forecasts
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, snap Snapshot) error

	// GetSnapshot returns the snapshot for one target year
	GetSnapshot(ctx context.Context, key SeriesKey, targetYear int) (Snapshot, error)

	// GetLatestSnapshot returns the most recently written snapshot of a series
	GetLatestSnapshot(ctx context.Context, key SeriesKey) (Snapshot, error)
}

// Store is a complete storage backend
type Store interface {
	SeriesStore
	SnapshotStore
	Ping(ctx context.Context) error
	Close() error
}

// checkPointLimit reports ErrTooManyPoints when merged exceeds a positive maxPoints
func checkPointLimit(key SeriesKey, merged analytics.Series, maxPoints int) error {
	if maxPoints > 0 && len(merged) > maxPoints {
		return fmt.Errorf("%s would have %d points, the limit is %d: %w", key, len(merged), maxPoints, ErrTooManyPoints)
	}
	return nil
}

// copySeries returns an independent copy so callers cannot alias stored data
func copySeries(s analytics.Series) analytics.Series {
	if s == nil {
		return nil
	}
	out := make(analytics.Series, len(s))
	copy(out, s)
	return out
}
