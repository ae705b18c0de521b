package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")               // Current directory
		v.AddConfigPath("./configs")       // Project configs directory
		v.AddConfigPath("./config")        // Alternative config directory
		v.AddConfigPath("/etc/forecaster") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. FORECASTER_SERVER_HTTP_PORT
	v.SetEnvPrefix("FORECASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout.String())
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout.String())
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	// Auth defaults
	v.SetDefault("auth.enabled", d.Auth.Enabled)

	// Etcd defaults
	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout.String())

	// Metadata defaults
	v.SetDefault("metadata.backend", d.Metadata.Backend)
	v.SetDefault("metadata.cache_ttl", d.Metadata.CacheTTL.String())

	// Storage defaults
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.compression", d.Storage.Compression)
	v.SetDefault("storage.snapshot_ttl", d.Storage.SnapshotTTL.String())
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_db", d.Storage.RedisDB)
	v.SetDefault("storage.key_prefix", d.Storage.KeyPrefix)

	// Queue defaults
	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.jobs_subject", d.Queue.JobsSubject)
	v.SetDefault("queue.results_subject", d.Queue.ResultsSubject)
	v.SetDefault("queue.workers", d.Queue.Workers)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	// Forecast defaults
	v.SetDefault("forecast.default_method", d.Forecast.DefaultMethod)
	v.SetDefault("forecast.min_points_warning", d.Forecast.MinPointsWarning)
	v.SetDefault("forecast.max_points", d.Forecast.MaxPoints)

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			HTTPPort:        5580,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       4 * 1024 * 1024,
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
		},
		Metadata: MetadataConfig{
			Backend:  "memory",
			CacheTTL: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     "memory",
			Compression: "snappy",
			SnapshotTTL: 30 * 24 * time.Hour,
			RedisAddr:   "localhost:6379",
			KeyPrefix:   "forecaster",
		},
		Queue: QueueConfig{
			Enabled:        false,
			Type:           "nats",
			URL:            "nats://localhost:4222",
			JobsSubject:    "forecast.jobs",
			ResultsSubject: "forecast.results",
			Workers:        4,
			RedisStream:    "forecaster",
			RedisGroup:     "forecaster-group",
			KafkaGroupID:   "forecaster",
		},
		Forecast: ForecastConfig{
			DefaultMethod:    "auto",
			MinPointsWarning: 6,
			MaxPoints:        600,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
