package metadata

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/giftpool/forecaster/internal/config"
	"go.etcd.io/etcd/client/pkg/v3/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

// setupTestEtcd starts an embedded etcd server and returns its client endpoints
func setupTestEtcd(t *testing.T) []string {
	t.Helper()

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"

	// Use random local ports for all URLs
	cfg.ListenClientUrls, _ = types.NewURLs([]string{"http://127.0.0.1:0"})
	cfg.ListenPeerUrls, _ = types.NewURLs([]string{"http://127.0.0.1:0"})

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatalf("Failed to start embedded etcd: %v", err)
	}

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		e.Close()
		t.Fatal("Etcd server took too long to start")
	}
	t.Cleanup(e.Close)

	endpoints := []string{}
	for _, listener := range e.Clients {
		endpoints = append(endpoints, "http://"+listener.Addr().String())
	}
	return endpoints
}

func newTestEtcdManager(t *testing.T, endpoints []string, cacheTTL time.Duration) *EtcdManager {
	t.Helper()

	m, err := NewEtcdManager(config.EtcdConfig{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	}, cacheTTL)
	if err != nil {
		t.Fatalf("Failed to create EtcdManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestEtcdManager(t *testing.T) {
	endpoints := setupTestEtcd(t)

	runManagerContract(t, func(t *testing.T) Manager {
		m := newTestEtcdManager(t, endpoints, time.Minute)

		// Subtests share one server; start each from an empty keyspace
		if _, err := m.client.Delete(context.Background(), subjectPrefix, clientv3.WithPrefix()); err != nil {
			t.Fatalf("failed to reset keyspace: %v", err)
		}
		return m
	})
}

func TestEtcdManager_KeyLayout(t *testing.T) {
	endpoints := setupTestEtcd(t)
	m := newTestEtcdManager(t, endpoints, 0)
	ctx := context.Background()

	if err := m.CreateSubject(ctx, &Subject{Key: "pool-1", Name: "Pool"}); err != nil {
		t.Fatalf("CreateSubject failed: %v", err)
	}

	resp, err := m.client.Get(ctx, "/forecaster/subjects/pool-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(resp.Kvs) != 1 {
		t.Fatalf("expected subject document at /forecaster/subjects/pool-1")
	}
}

func TestEtcdManager_CacheServesReads(t *testing.T) {
	endpoints := setupTestEtcd(t)
	m := newTestEtcdManager(t, endpoints, time.Minute)
	ctx := context.Background()

	_ = m.CreateSubject(ctx, &Subject{Key: "pool-1"})
	for i := 0; i < 3; i++ {
		if _, err := m.GetSubject(ctx, "pool-1"); err != nil {
			t.Fatalf("GetSubject failed: %v", err)
		}
	}

	if stats := m.CacheStats(); stats.Hits != 3 {
		t.Errorf("expected 3 cache hits, got %+v", stats)
	}

	// Writes refresh the cached document
	_ = m.SetPreferredMethod(ctx, "pool-1", "revenue", "growth_rate")
	method, _ := m.GetPreferredMethod(ctx, "pool-1", "revenue")
	if method != "growth_rate" {
		t.Errorf("expected cached read to see the update, got %q", method)
	}
}

func TestEtcdManager_ConcurrentPreferences(t *testing.T) {
	endpoints := setupTestEtcd(t)
	m := newTestEtcdManager(t, endpoints, 0)
	ctx := context.Background()

	_ = m.CreateSubject(ctx, &Subject{Key: "pool-1"})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := m.SetPreferredMethod(ctx, "pool-1", fmt.Sprintf("metric-%d", i), "linear"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	s, err := m.GetSubject(ctx, "pool-1")
	if err != nil {
		t.Fatalf("GetSubject failed: %v", err)
	}
	if len(s.PreferredMethods) != succeeded {
		t.Errorf("expected %d preferences without lost updates, got %v", succeeded, s.PreferredMethods)
	}
}

func TestNewManager(t *testing.T) {
	cfg := config.DefaultConfig()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, ok := m.(*MemoryManager); !ok {
		t.Errorf("expected *MemoryManager, got %T", m)
	}

	cfg.Metadata.Backend = "consul"
	if _, err := NewManager(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
