package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type BFFConfig struct {
	JWTSecret        []byte
	ProgressGRPCAddr string
	AsyncWrites      bool

	// Media resolution. An empty MediaCMSBaseURL disables API lookups and
	// every activity URL is played directly.
	MediaCMSBaseURL  string
	MediaCMSAPIToken string
	RedisURL         string
	CacheTTL         time.Duration
	CacheInvalidate  string

	MaxRetries         int
	RetryBaseDelay     time.Duration
	CBMaxRequests      uint32
	CBInterval         time.Duration
	CBTimeout          time.Duration
	CBFailureThreshold uint32

	ReportRate  float64
	ReportBurst int
}

func LoadBFF() (BFFConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return BFFConfig{}, errors.New("JWT_SECRET is required")
	}
	progressAddr := strings.TrimSpace(os.Getenv("PROGRESS_GRPC_ADDR"))
	if progressAddr == "" {
		return BFFConfig{}, errors.New("PROGRESS_GRPC_ADDR is required")
	}
	invalidate := strings.TrimSpace(os.Getenv("MEDIA_CACHE_INVALIDATE_SUBJECT"))
	if invalidate == "" {
		invalidate = "mediawatch.media.invalidate"
	}

	return BFFConfig{
		JWTSecret:          []byte(secret),
		ProgressGRPCAddr:   progressAddr,
		AsyncWrites:        envBool("BFF_ASYNC_WRITES", true),
		MediaCMSBaseURL:    strings.TrimSpace(os.Getenv("MEDIACMS_BASE_URL")),
		MediaCMSAPIToken:   strings.TrimSpace(os.Getenv("MEDIACMS_API_TOKEN")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		CacheTTL:           envDuration("CACHE_TTL", 10*time.Minute),
		CacheInvalidate:    invalidate,
		MaxRetries:         envInt("MEDIACMS_MAX_RETRIES", 2),
		RetryBaseDelay:     envDuration("MEDIACMS_RETRY_BASE_DELAY", 250*time.Millisecond),
		CBMaxRequests:      uint32(envInt("CB_MAX_REQUESTS", 5)),
		CBInterval:         envDuration("CB_INTERVAL", 60*time.Second),
		CBTimeout:          envDuration("CB_TIMEOUT", 30*time.Second),
		CBFailureThreshold: uint32(envInt("CB_FAILURE_THRESHOLD", 5)),
		ReportRate:         envFloat("REPORT_RATE_PER_SEC", 2),
		ReportBurst:        envInt("REPORT_BURST", 10),
	}, nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v != "0" && v != "false" && v != "no"
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
