package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.barcircle.dev/web/testingx"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), testingx.NewMockLogger(t), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	b := cfg.Backoff()
	if b.MaxRetries != 3 || b.BaseDelay != time.Second || b.Multiplier != 2 {
		t.Errorf("Backoff() = %+v, want 3 retries from 1s doubling", b)
	}
	if cfg.GuardMaxWait != 2*time.Second {
		t.Errorf("GuardMaxWait = %v, want 2s", cfg.GuardMaxWait)
	}
	if cfg.BreakerEnabled {
		t.Error("breaker should be off by default")
	}
	if len(cfg.GatewayOptions()) != 2 {
		t.Errorf("GatewayOptions() = %d options, want 2", len(cfg.GatewayOptions()))
	}
}

func TestLoad_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barcircle.yaml")
	yaml := "backend:\n  url: http://api.internal:9000\nretry:\n  max: 5\nbreaker:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BARCIRCLE_RETRY_MAX", "1")
	t.Setenv("BARCIRCLE_CORS_ORIGINS", "http://localhost:5173,http://localhost:4173")

	cfg, err := Load(context.Background(), testingx.NewMockLogger(t), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BackendURL != "http://api.internal:9000" {
		t.Errorf("BackendURL = %q, want file value", cfg.BackendURL)
	}
	if cfg.RetryMax != 1 {
		t.Errorf("RetryMax = %d, want env override 1", cfg.RetryMax)
	}
	if !cfg.BreakerEnabled || len(cfg.GatewayOptions()) != 3 {
		t.Errorf("breaker not wired: enabled=%v options=%d", cfg.BreakerEnabled, len(cfg.GatewayOptions()))
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"multiplier below one", "BARCIRCLE_RETRY_MULTIPLIER", "0.5"},
		{"not a url", "BARCIRCLE_BACKEND_URL", "backend"},
		{"too many retries", "BARCIRCLE_RETRY_MAX", "50"},
		{"port collision", "BARCIRCLE_HEALTH_PORT", ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(context.Background(), testingx.NewMockLogger(t), ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}
