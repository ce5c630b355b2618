// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the admin/query HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the durable store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis URL for the fast cache tier (e.g. redis://localhost:6379/0). Empty disables the fast tier.
	RedisURL string `mapstructure:"REDIS_URL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsTopic is the Kafka topic the ingestion worker consumes raw events from.
	EventsTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the ingestion worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// PropertyDefsTopic is the Kafka topic property-type metadata is produced to for the definitions store.
	PropertyDefsTopic string `mapstructure:"PROPERTY_DEFS_KAFKA_TOPIC"`

	// WorkerConcurrency is the number of concurrent ingestion consumers in cmd/worker.
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	// ElementsCacheTTL is the fast-tier TTL for resolved element chains (e.g. "1h").
	ElementsCacheTTL string `mapstructure:"ELEMENTS_CACHE_TTL"`
	// CallTimeout is the per-call deadline applied to store/cache operations inside the worker (e.g. "5s").
	CallTimeout string `mapstructure:"CALL_TIMEOUT"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317). Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "ingestion-events")
	v.SetDefault("KAFKA_GROUP_ID", "ingestion-worker")
	v.SetDefault("PROPERTY_DEFS_KAFKA_TOPIC", "property-definitions")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("ELEMENTS_CACHE_TTL", "1h")
	v.SetDefault("CALL_TIMEOUT", "5s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("config: WORKER_CONCURRENCY must be at least 1")
	}

	return &cfg, nil
}

// CacheTTL parses ElementsCacheTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.ElementsCacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// PerCallTimeout parses CallTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) PerCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka is configured (non-empty list) and to create readers/writers.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
