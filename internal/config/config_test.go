package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "unknown metadata backend",
			mutate:  func(c *Config) { c.Metadata.Backend = "zookeeper" },
			wantErr: true,
		},
		{
			name: "etcd backend without endpoints",
			mutate: func(c *Config) {
				c.Metadata.Backend = "etcd"
				c.Etcd.Endpoints = nil
			},
			wantErr: true,
		},
		{
			name:    "etcd endpoints ignored for memory backend",
			mutate:  func(c *Config) { c.Etcd.Endpoints = nil },
			wantErr: false,
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: true,
		},
		{
			name: "redis storage without address",
			mutate: func(c *Config) {
				c.Storage.Backend = "redis"
				c.Storage.RedisAddr = ""
			},
			wantErr: true,
		},
		{
			name:    "unknown compression",
			mutate:  func(c *Config) { c.Storage.Compression = "zstd" },
			wantErr: true,
		},
		{
			name: "queue with same subjects",
			mutate: func(c *Config) {
				c.Queue.Enabled = true
				c.Queue.ResultsSubject = c.Queue.JobsSubject
			},
			wantErr: true,
		},
		{
			name: "disabled queue skips validation",
			mutate: func(c *Config) {
				c.Queue.Type = "rabbitmq"
			},
			wantErr: false,
		},
		{
			name: "enabled queue with unknown type",
			mutate: func(c *Config) {
				c.Queue.Enabled = true
				c.Queue.Type = "rabbitmq"
			},
			wantErr: true,
		},
		{
			name:    "unknown default method",
			mutate:  func(c *Config) { c.Forecast.DefaultMethod = "arima" },
			wantErr: true,
		},
		{
			name:    "zero max points",
			mutate:  func(c *Config) { c.Forecast.MaxPoints = 0 },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 5580 {
		t.Errorf("expected HTTPPort 5580, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected memory storage backend, got %s", cfg.Storage.Backend)
	}

	if cfg.Storage.SnapshotTTL != 30*24*time.Hour {
		t.Errorf("expected snapshot TTL 720h, got %v", cfg.Storage.SnapshotTTL)
	}

	if cfg.Queue.Enabled {
		t.Error("queue worker should be disabled by default")
	}

	if cfg.Forecast.DefaultMethod != "auto" {
		t.Errorf("expected default method auto, got %s", cfg.Forecast.DefaultMethod)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 7000
storage:
  backend: redis
  redis_addr: "redis:6379"
forecast:
  default_method: seasonal
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("FORECASTER_FORECAST_MAX_POINTS", "120")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 7000 {
		t.Errorf("expected HTTPPort 7000, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisAddr != "redis:6379" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Forecast.DefaultMethod != "seasonal" {
		t.Errorf("expected default method seasonal, got %s", cfg.Forecast.DefaultMethod)
	}
	if cfg.Forecast.MaxPoints != 120 {
		t.Errorf("expected env override max_points 120, got %d", cfg.Forecast.MaxPoints)
	}
	// Untouched sections keep their defaults
	if cfg.Queue.JobsSubject != "forecast.jobs" {
		t.Errorf("expected default jobs subject, got %s", cfg.Queue.JobsSubject)
	}
	if cfg.Storage.SnapshotTTL != 30*24*time.Hour {
		t.Errorf("expected default snapshot TTL, got %v", cfg.Storage.SnapshotTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("debug/console config should be development mode")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for invalid logging level")
	}

	cfg := LoadOrDefault(path)
	if cfg.Logging.Level != "info" {
		t.Errorf("LoadOrDefault should fall back to defaults, got level %s", cfg.Logging.Level)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsProduction() {
		t.Error("default config should be production mode")
	}

	if addr := cfg.GetServerAddress(); addr != "0.0.0.0:5580" {
		t.Errorf("expected '0.0.0.0:5580', got %s", addr)
	}
}
