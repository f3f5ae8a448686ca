package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "SQLITE_PATH",
		"SERVER_PORT", "ALLOW_AIRDROP", "EXPIRY_SCAN_INTERVAL", "REDIS_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Server.Port != "8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.App.ExpiryScanInterval != time.Minute || cfg.App.AllowAirdrop {
		t.Errorf("unexpected app defaults: %+v", cfg.App)
	}
	if cfg.GetDSN() != "host=localhost port=5432 user=postgres password= dbname=stream_market sslmode=disable" {
		t.Errorf("DSN = %q", cfg.GetDSN())
	}
}

func TestLoadSQLite(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/market.db")
	t.Setenv("ALLOW_AIRDROP", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetDSN() != "/tmp/market.db" || !cfg.App.AllowAirdrop {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"bad interval", map[string]string{"JWT_SECRET": "s", "EXPIRY_SCAN_INTERVAL": "soon"}},
		{"bad redis db", map[string]string{"JWT_SECRET": "s", "REDIS_DB": "x"}},
		{"bad airdrop flag", map[string]string{"JWT_SECRET": "s", "ALLOW_AIRDROP": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
