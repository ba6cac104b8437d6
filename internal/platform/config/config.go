// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Remote selects and parameterizes the remote store driver.
type Remote struct {
	// Driver is "rest", "postgres", or "memory" (demo mode).
	Driver      string
	BaseURL     string
	APIKey      string
	PostgresDSN string
	Timeout     time.Duration
}

// Redis configures the invalidation push channel.
type Redis struct {
	URL           string
	ChannelPrefix string
}

// Kafka configures the optional audit mirror. Empty brokers disable it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Rating points at the external text-scoring function.
type Rating struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Sync tunes the invalidation-triggered resync behavior.
type Sync struct {
	Debounce     time.Duration
	FetchTimeout time.Duration
}

type Config struct {
	Addr          string
	JWTSigningKey string
	Remote        Remote
	Redis         Redis
	Kafka         Kafka
	Rating        Rating
	Sync          Sync
}

func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("AXIS_ADDR", ":8080"),
		JWTSigningKey: envOr("AXIS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Remote: Remote{
			Driver:      envOr("AXIS_REMOTE_DRIVER", "memory"),
			BaseURL:     os.Getenv("AXIS_REMOTE_URL"),
			APIKey:      os.Getenv("AXIS_REMOTE_API_KEY"),
			PostgresDSN: os.Getenv("AXIS_POSTGRES_DSN"),
			Timeout:     durationOr("AXIS_REMOTE_TIMEOUT", 10*time.Second),
		},
		Redis: Redis{
			URL:           os.Getenv("AXIS_REDIS_URL"),
			ChannelPrefix: envOr("AXIS_INVALIDATION_PREFIX", "axis:changed:"),
		},
		Kafka: Kafka{
			Topic: envOr("AXIS_KAFKA_TOPIC", "axis.audit"),
		},
		Rating: Rating{
			Endpoint: os.Getenv("AXIS_RATING_ENDPOINT"),
			APIKey:   os.Getenv("AXIS_RATING_API_KEY"),
			Timeout:  durationOr("AXIS_RATING_TIMEOUT", 8*time.Second),
		},
		Sync: Sync{
			Debounce:     durationOr("AXIS_RESYNC_DEBOUNCE", 200*time.Millisecond),
			FetchTimeout: durationOr("AXIS_RESYNC_TIMEOUT", 15*time.Second),
		},
	}
	if brokers := os.Getenv("AXIS_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
