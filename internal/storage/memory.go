package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/analytics/forecast"
)

// MemoryStore keeps series and snapshots in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	series    map[SeriesKey]*StoredSeries
	snapshots map[SeriesKey]map[int]Snapshot
	latest    map[SeriesKey]int // target year of the newest snapshot
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series:    make(map[SeriesKey]*StoredSeries),
		snapshots: make(map[SeriesKey]map[int]Snapshot),
		latest:    make(map[SeriesKey]int),
		now:       time.Now,
	}
}

// PutSeries replaces the whole series
func (m *MemoryStore) PutSeries(ctx context.Context, key SeriesKey, points analytics.Series) error {
	if err := key.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.series[key] = &StoredSeries{
		Key:       key,
		Points:    copySeries(points),
		UpdatedAt: m.now().UTC(),
	}
	return nil
}

// AppendPoints merges points into the series, last write wins per period
func (m *MemoryStore) AppendPoints(ctx context.Context, key SeriesKey, points analytics.Series, maxPoints int) (analytics.Series, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var base analytics.Series
	if existing, ok := m.series[key]; ok {
		base = existing.Points
	}
	merged := analytics.Merge(base, points)
	if err := checkPointLimit(key, merged, maxPoints); err != nil {
		return nil, err
	}

	m.series[key] = &StoredSeries{
		Key:       key,
		Points:    merged,
		UpdatedAt: m.now().UTC(),
	}
	return copySeries(merged), nil
}

// GetSeries returns a copy of the stored series
func (m *MemoryStore) GetSeries(ctx context.Context, key SeriesKey) (*StoredSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.series[key]
	if !ok {
		return nil, fmt.Errorf("series %s: %w", key, ErrNotFound)
	}
	return &StoredSeries{
		Key:       stored.Key,
		Points:    copySeries(stored.Points),
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

// ListSeries returns the metrics stored for subject
func (m *MemoryStore) ListSeries(ctx context.Context, subject string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := make([]string, 0)
	for key := range m.series {
		if key.Subject == subject {
			metrics = append(metrics, key.Metric)
		}
	}
	sort.Strings(metrics)
	return metrics, nil
}

// DeleteSeries removes a series and its snapshots
func (m *MemoryStore) DeleteSeries(ctx context.Context, key SeriesKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.series[key]; !ok {
		return fmt.Errorf("series %s: %w", key, ErrNotFound)
	}
	delete(m.series, key)
	delete(m.snapshots, key)
	delete(m.latest, key)
	return nil
}

// PutSnapshot stores a forecast and marks it as the latest for its series
func (m *MemoryStore) PutSnapshot(ctx context.Context, snap Snapshot) error {
	key := SeriesKey{Subject: snap.Subject, Metric: snap.Metric}
	if err := key.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byYear, ok := m.snapshots[key]
	if !ok {
		byYear = make(map[int]Snapshot)
		m.snapshots[key] = byYear
	}
	snap.Results = append([]forecast.ForecastResult(nil), snap.Results...)
	byYear[snap.TargetYear] = snap
	m.latest[key] = snap.TargetYear
	return nil
}

// GetSnapshot returns the snapshot for targetYear
func (m *MemoryStore) GetSnapshot(ctx context.Context, key SeriesKey, targetYear int) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[key][targetYear]
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot %s/%d: %w", key, targetYear, ErrNotFound)
	}
	snap.Results = append([]forecast.ForecastResult(nil), snap.Results...)
	return snap, nil
}

// GetLatestSnapshot returns the most recently written snapshot
func (m *MemoryStore) GetLatestSnapshot(ctx context.Context, key SeriesKey) (Snapshot, error) {
	m.mu.RLock()
	year, ok := m.latest[key]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
	}
	return m.GetSnapshot(ctx, key, year)
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
