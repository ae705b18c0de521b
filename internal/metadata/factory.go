package metadata

import (
	"fmt"

	"github.com/giftpool/forecaster/internal/config"
)

// NewManager creates the manager selected by cfg.Metadata.Backend
func NewManager(cfg *config.Config) (Manager, error) {
	switch cfg.Metadata.Backend {
	case "", "memory":
		return NewMemoryManager(), nil
	case "etcd":
		return NewEtcdManager(cfg.Etcd, cfg.Metadata.CacheTTL)
	default:
		return nil, fmt.Errorf("unsupported metadata backend: %s", cfg.Metadata.Backend)
	}
}
