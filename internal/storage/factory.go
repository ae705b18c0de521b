package storage

import (
	"fmt"

	"github.com/giftpool/forecaster/internal/compression"
	"github.com/giftpool/forecaster/internal/config"
)

// Backend names accepted by NewStore
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewStore creates the store selected by cfg.Backend
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		algo, err := compression.ParseAlgorithm(cfg.Compression)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(RedisOptions{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			KeyPrefix:   cfg.KeyPrefix,
			SnapshotTTL: cfg.SnapshotTTL,
			Compression: algo,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
