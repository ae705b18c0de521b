// Package metadata keeps the registry of forecast subjects (pools, campaigns,
// teams) and their advisory per-metric method preferences.
package metadata

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when a subject does not exist
	ErrNotFound = errors.New("subject not found")

	// ErrAlreadyExists is returned when creating a subject whose key is taken
	ErrAlreadyExists = errors.New("subject already exists")
)

// Manager manages subject metadata
type Manager interface {
	CreateSubject(ctx context.Context, subject *Subject) error
	GetSubject(ctx context.Context, key string) (*Subject, error)
	ListSubjects(ctx context.Context) ([]*Subject, error)
	DeleteSubject(ctx context.Context, key string) error

	// Preferences are advisory: a forecast request that names a method wins.
	SetPreferredMethod(ctx context.Context, key, metric, method string) error
	ClearPreferredMethod(ctx context.Context, key, metric string) error
	// GetPreferredMethod returns "" when the subject has no preference for metric
	GetPreferredMethod(ctx context.Context, key, metric string) (string, error)

	// Lifecycle
	Close() error
}

// Subject is anything whose monthly series get forecast
type Subject struct {
	Key              string            `json:"key"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Metrics          []string          `json:"metrics,omitempty"`
	PreferredMethods map[string]string `json:"preferred_methods,omitempty"` // metric -> method
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy
func (s *Subject) Clone() *Subject {
	c := *s
	c.Metrics = append([]string(nil), s.Metrics...)
	if s.PreferredMethods != nil {
		c.PreferredMethods = make(map[string]string, len(s.PreferredMethods))
		for k, v := range s.PreferredMethods {
			c.PreferredMethods[k] = v
		}
	}
	return &c
}

// setPreference records method for metric and adds metric to the metric list
func (s *Subject) setPreference(metric, method string, now time.Time) {
	if s.PreferredMethods == nil {
		s.PreferredMethods = make(map[string]string)
	}
	s.PreferredMethods[metric] = method
	s.addMetric(metric)
	s.UpdatedAt = now
}

func (s *Subject) clearPreference(metric string, now time.Time) {
	delete(s.PreferredMethods, metric)
	if len(s.PreferredMethods) == 0 {
		s.PreferredMethods = nil
	}
	s.UpdatedAt = now
}

func (s *Subject) addMetric(metric string) {
	for _, m := range s.Metrics {
		if m == metric {
			return
		}
	}
	s.Metrics = append(s.Metrics, metric)
	sort.Strings(s.Metrics)
}

// prepareNew fills timestamps and normalises the metric list of a subject being created
func prepareNew(s *Subject, now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt
	metrics := s.Metrics
	s.Metrics = nil
	for _, m := range metrics {
		s.addMetric(m)
	}
	for m := range s.PreferredMethods {
		s.addMetric(m)
	}
}

func sortSubjects(subjects []*Subject) {
	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i].Key < subjects[j].Key
	})
}
