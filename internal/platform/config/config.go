package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Stores and publishers are
// selected by which URLs are set: empty means the in-memory implementation.
type Config struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	// BlockTime is the wall-clock length of one block; IntervalBlocks is the
	// length of the registration interval in blocks.
	BlockTime      time.Duration
	IntervalBlocks uint64

	PostgresURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("SLOTKEEPER_ADDR", ":8080"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:     envOr("ADMIN_TOKEN", "dev-admin-token"),
		BlockTime:      12 * time.Second,
		IntervalBlocks: 100,
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaTopic:     envOr("KAFKA_TOPIC", "slotkeeper.registrations"),
	}

	if v := os.Getenv("BLOCK_TIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BlockTime = d
		}
	}
	if v := os.Getenv("INTERVAL_BLOCKS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.IntervalBlocks = n
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
