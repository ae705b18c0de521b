package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Etcd     EtcdConfig     `mapstructure:"etcd"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort        int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       int           `mapstructure:"body_limit"` // Max request body in bytes
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// MetadataConfig selects where subjects and method preferences live
type MetadataConfig struct {
	Backend  string        `mapstructure:"backend"`   // memory (default), etcd
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // Read cache TTL for the etcd backend
}

// StorageConfig represents series and snapshot storage configuration
type StorageConfig struct {
	Backend     string        `mapstructure:"backend"`     // memory (default), redis
	Compression string        `mapstructure:"compression"` // snappy (default), none
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"` // default: "forecaster"
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // Run the batch job worker
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	JobsSubject    string `mapstructure:"jobs_subject"`    // default: "forecast.jobs"
	ResultsSubject string `mapstructure:"results_subject"` // default: "forecast.results"
	Workers        int    `mapstructure:"workers"`         // Pairs of one job forecast concurrently (default: 4)

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "forecaster")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "forecaster-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// ForecastConfig holds request level limits and defaults for the engine
type ForecastConfig struct {
	DefaultMethod    string `mapstructure:"default_method"`     // empty or "auto" selects per series
	MinPointsWarning int    `mapstructure:"min_points_warning"` // Log a warning below this many points
	MaxPoints        int    `mapstructure:"max_points"`         // Reject series longer than this
}

// MetricsConfig represents Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Metadata.Validate(); err != nil {
		return fmt.Errorf("metadata config: %w", err)
	}

	if c.Metadata.Backend == "etcd" {
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	return nil
}

// Validate validates metadata configuration
func (c *MetadataConfig) Validate() error {
	switch c.Backend {
	case "", "memory", "etcd":
	default:
		return fmt.Errorf("metadata.backend must be 'memory' or 'etcd'")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("metadata.cache_ttl cannot be negative")
	}

	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be 'memory' or 'redis'")
	}

	switch c.Compression {
	case "", "snappy", "none":
	default:
		return fmt.Errorf("storage.compression must be 'snappy' or 'none'")
	}

	if c.SnapshotTTL < 0 {
		return fmt.Errorf("storage.snapshot_ttl cannot be negative")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.JobsSubject == "" || c.ResultsSubject == "" {
		return fmt.Errorf("queue.jobs_subject and queue.results_subject are required")
	}

	if c.JobsSubject == c.ResultsSubject {
		return fmt.Errorf("queue.jobs_subject and queue.results_subject cannot be the same")
	}

	if c.Workers < 0 {
		return fmt.Errorf("queue.workers cannot be negative")
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	switch c.DefaultMethod {
	case "", "auto", "linear", "moving_average", "growth_rate", "seasonal":
	default:
		return fmt.Errorf("forecast.default_method %q is not a known method", c.DefaultMethod)
	}

	if c.MinPointsWarning < 0 {
		return fmt.Errorf("forecast.min_points_warning cannot be negative")
	}

	if c.MaxPoints < 1 {
		return fmt.Errorf("forecast.max_points must be at least 1")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
