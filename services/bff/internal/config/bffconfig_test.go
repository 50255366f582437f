package config

import (
	"testing"
	"time"
)

func TestLoadBFF_Required(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PROGRESS_GRPC_ADDR", "progress:9092")
	if _, err := LoadBFF(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PROGRESS_GRPC_ADDR", "")
	if _, err := LoadBFF(); err == nil {
		t.Fatal("expected error without PROGRESS_GRPC_ADDR")
	}
}

func TestLoadBFF_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PROGRESS_GRPC_ADDR", "progress:9092")
	t.Setenv("BFF_ASYNC_WRITES", "")
	t.Setenv("MEDIACMS_BASE_URL", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := LoadBFF()
	if err != nil {
		t.Fatalf("LoadBFF: %v", err)
	}
	if !cfg.AsyncWrites || cfg.MediaCMSBaseURL != "" || cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.CBFailureThreshold != 5 || cfg.ReportBurst != 10 || cfg.ReportRate != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadBFF_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PROGRESS_GRPC_ADDR", "progress:9092")
	t.Setenv("BFF_ASYNC_WRITES", "no")
	t.Setenv("MEDIACMS_BASE_URL", "https://media.example.edu")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("MEDIACMS_MAX_RETRIES", "-3")

	cfg, err := LoadBFF()
	if err != nil {
		t.Fatalf("LoadBFF: %v", err)
	}
	if cfg.AsyncWrites {
		t.Fatal("async writes should be disabled")
	}
	if cfg.MediaCMSBaseURL != "https://media.example.edu" || cfg.CacheTTL != 90*time.Second || cfg.MaxRetries != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
