package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GRPCAddr      string
	DatabaseURL   string
	SQLitePath    string
	SeedPath      string
	AsyncConsumer bool
	BatchSize     int
	BatchInterval time.Duration
	StreamMaxAge  time.Duration
}

// Load reads the progress service settings; shared ones live in platform/config.
func Load() Config {
	addr := strings.TrimSpace(os.Getenv("GRPC_ADDR"))
	if addr == "" {
		addr = ":9092"
	}
	return Config{
		GRPCAddr:      addr,
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:    strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		SeedPath:      strings.TrimSpace(os.Getenv("ACTIVITIES_SEED")),
		AsyncConsumer: envBool("PROGRESS_CONSUMER_ENABLED", true),
		BatchSize:     envInt("WORKER_BATCH_SIZE", 100),
		BatchInterval: time.Duration(envInt("WORKER_BATCH_INTERVAL_MS", 2000)) * time.Millisecond,
		StreamMaxAge:  envDuration("PROGRESS_STREAM_MAX_AGE", 72*time.Hour),
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
