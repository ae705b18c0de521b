package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryManager implements Manager in process memory
type MemoryManager struct {
	mu       sync.RWMutex
	subjects map[string]*Subject
	now      func() time.Time
}

// NewMemoryManager creates an empty in-memory manager
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		subjects: make(map[string]*Subject),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryManager) CreateSubject(ctx context.Context, subject *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subjects[subject.Key]; exists {
		return fmt.Errorf("%s: %w", subject.Key, ErrAlreadyExists)
	}
	prepareNew(subject, m.now())
	m.subjects[subject.Key] = subject.Clone()
	return nil
}

func (m *MemoryManager) GetSubject(ctx context.Context, key string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subjects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryManager) ListSubjects(ctx context.Context) ([]*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subjects := make([]*Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		subjects = append(subjects, s.Clone())
	}
	sortSubjects(subjects)
	return subjects, nil
}

func (m *MemoryManager) DeleteSubject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subjects[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(m.subjects, key)
	return nil
}

func (m *MemoryManager) SetPreferredMethod(ctx context.Context, key, metric, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subjects[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	s.setPreference(metric, method, m.now())
	return nil
}

func (m *MemoryManager) ClearPreferredMethod(ctx context.Context, key, metric string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subjects[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	s.clearPreference(metric, m.now())
	return nil
}

func (m *MemoryManager) GetPreferredMethod(ctx context.Context, key, metric string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subjects[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return s.PreferredMethods[metric], nil
}

func (m *MemoryManager) Close() error {
	return nil
}
