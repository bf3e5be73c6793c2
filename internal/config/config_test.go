package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "facility-ticket-service" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q, want 0.0.0.0:8080", cfg.App.Addr())
	}
	if cfg.Cache.TicketConfigTTL() != 5*time.Minute {
		t.Errorf("ticket config TTL = %v, want 5m", cfg.Cache.TicketConfigTTL())
	}
	if cfg.Cache.WorkloadTTL() != 15*time.Second {
		t.Errorf("workload TTL = %v, want 15s", cfg.Cache.WorkloadTTL())
	}
	if !cfg.Postgres.RunMigrations {
		t.Error("migrations should default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.App.Port)
	}
	if cfg.Auth.AccessTokenTTLMinutes != 15 {
		t.Errorf("token TTL = %d, want 15", cfg.Auth.AccessTokenTTLMinutes)
	}
	if cfg.Postgres.RunMigrations {
		t.Error("migrations override ignored")
	}
}

func TestGetEnvAsIntBadValueFallsBack(t *testing.T) {
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s fallback", cfg.App.RequestTimeout())
	}
}
