package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/giftpool/forecaster/internal/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	subjectPrefix     = "/forecaster/subjects"
	maxUpdateAttempts = 5
)

// errConflict signals a lost compare-and-swap race
var errConflict = errors.New("concurrent update")

// EtcdManager implements Manager using etcd. Each subject is one JSON document
// under /forecaster/subjects/{key}.
type EtcdManager struct {
	client *clientv3.Client
	cache  *KVCache
	now    func() time.Time
}

// NewEtcdManager creates a new etcd-based metadata manager
func NewEtcdManager(cfg config.EtcdConfig, cacheTTL time.Duration) (*EtcdManager, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return NewEtcdManagerWithClient(client, cacheTTL), nil
}

// NewEtcdManagerWithClient wraps an existing client
func NewEtcdManagerWithClient(client *clientv3.Client, cacheTTL time.Duration) *EtcdManager {
	return &EtcdManager{
		client: client,
		cache:  NewKVCache(cacheTTL),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func subjectKey(key string) string {
	return path.Join(subjectPrefix, key)
}

func (m *EtcdManager) CreateSubject(ctx context.Context, subject *Subject) error {
	key := subjectKey(subject.Key)
	prepareNew(subject, m.now())

	data, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("failed to marshal subject: %w", err)
	}

	// Create only if the key has never been written
	resp, err := m.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to store subject in etcd: %w", err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%s: %w", subject.Key, ErrAlreadyExists)
	}

	m.cache.Set(key, string(data))
	return nil
}

func (m *EtcdManager) GetSubject(ctx context.Context, key string) (*Subject, error) {
	etcdKey := subjectKey(key)

	raw, ok := m.cache.Get(etcdKey)
	if !ok {
		resp, err := m.client.Get(ctx, etcdKey)
		if err != nil {
			return nil, fmt.Errorf("failed to get subject from etcd: %w", err)
		}
		if len(resp.Kvs) == 0 {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		raw = string(resp.Kvs[0].Value)
		m.cache.Set(etcdKey, raw)
	}

	var subject Subject
	if err := json.Unmarshal([]byte(raw), &subject); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject: %w", err)
	}
	return &subject, nil
}

func (m *EtcdManager) ListSubjects(ctx context.Context) ([]*Subject, error) {
	resp, err := m.client.Get(ctx, subjectPrefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects from etcd: %w", err)
	}

	subjects := make([]*Subject, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var s Subject
		if err := json.Unmarshal(kv.Value, &s); err != nil {
			// Skip undecodable documents rather than failing the listing
			continue
		}
		subjects = append(subjects, &s)
	}
	sortSubjects(subjects)
	return subjects, nil
}

func (m *EtcdManager) DeleteSubject(ctx context.Context, key string) error {
	etcdKey := subjectKey(key)

	resp, err := m.client.Delete(ctx, etcdKey)
	if err != nil {
		return fmt.Errorf("failed to delete subject from etcd: %w", err)
	}
	m.cache.Delete(etcdKey)

	if resp.Deleted == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return nil
}

// update applies fn to the stored subject under a ModRevision guard,
// retrying when another writer got there first
func (m *EtcdManager) update(ctx context.Context, key string, fn func(s *Subject)) error {
	etcdKey := subjectKey(key)

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		resp, err := m.client.Get(ctx, etcdKey)
		if err != nil {
			return fmt.Errorf("failed to get subject from etcd: %w", err)
		}
		if len(resp.Kvs) == 0 {
			m.cache.Delete(etcdKey)
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}

		kv := resp.Kvs[0]
		var subject Subject
		if err := json.Unmarshal(kv.Value, &subject); err != nil {
			return fmt.Errorf("failed to unmarshal subject: %w", err)
		}

		fn(&subject)

		data, err := json.Marshal(&subject)
		if err != nil {
			return fmt.Errorf("failed to marshal subject: %w", err)
		}

		txn, err := m.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(etcdKey), "=", kv.ModRevision)).
			Then(clientv3.OpPut(etcdKey, string(data))).
			Commit()
		if err != nil {
			return fmt.Errorf("failed to update subject in etcd: %w", err)
		}
		if txn.Succeeded {
			m.cache.Set(etcdKey, string(data))
			return nil
		}
	}
	return fmt.Errorf("%s: %w", key, errConflict)
}

func (m *EtcdManager) SetPreferredMethod(ctx context.Context, key, metric, method string) error {
	return m.update(ctx, key, func(s *Subject) {
		s.setPreference(metric, method, m.now())
	})
}

func (m *EtcdManager) ClearPreferredMethod(ctx context.Context, key, metric string) error {
	return m.update(ctx, key, func(s *Subject) {
		s.clearPreference(metric, m.now())
	})
}

func (m *EtcdManager) GetPreferredMethod(ctx context.Context, key, metric string) (string, error) {
	s, err := m.GetSubject(ctx, key)
	if err != nil {
		return "", err
	}
	return s.PreferredMethods[metric], nil
}

// CacheStats exposes the read cache statistics
func (m *EtcdManager) CacheStats() CacheStats {
	return m.cache.Stats()
}

// Close closes the etcd client connection
func (m *EtcdManager) Close() error {
	m.cache.Stop()
	return m.client.Close()
}
