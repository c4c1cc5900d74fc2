package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
postgres:
  dsn: postgres://localhost:5432/auctioneer
nats:
  url: nats://localhost:4222
auction:
  tiebreaker_window: 30m
  bulk_max_window: 12h
  bid_key_hex: "000102030405060708090a0b0c0d0e0f"
  operators:
    - op-1
    - op-2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Postgres.DSN != "postgres://localhost:5432/auctioneer" {
		t.Errorf("dsn = %q", cfg.Postgres.DSN)
	}
	if cfg.Auction.TiebreakerWindow != 30*time.Minute {
		t.Errorf("tiebreaker_window = %s, want 30m", cfg.Auction.TiebreakerWindow)
	}
	if cfg.Auction.BulkMaxWindow != 12*time.Hour {
		t.Errorf("bulk_max_window = %s, want 12h", cfg.Auction.BulkMaxWindow)
	}
	if len(cfg.Auction.Operators) != 2 {
		t.Errorf("operators = %v, want two entries", cfg.Auction.Operators)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
postgres:
  dsn: postgres://file-host/db
`)
	t.Setenv("DATABASE_URL", "postgres://env-host/db")
	t.Setenv("TIEBREAKER_WINDOW", "15m")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Postgres.DSN != "postgres://env-host/db" {
		t.Errorf("dsn = %q, want env override", cfg.Postgres.DSN)
	}
	if cfg.Auction.TiebreakerWindow != 15*time.Minute {
		t.Errorf("tiebreaker_window = %s, want 15m", cfg.Auction.TiebreakerWindow)
	}
}

func TestLoadConfigMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-only/db")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Postgres.DSN != "postgres://env-only/db" {
		t.Errorf("dsn = %q, want env value", cfg.Postgres.DSN)
	}
}

func TestLoadConfigRequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig() error = nil, want missing DSN error")
	}
}

func TestBidKeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		wantErr bool
	}{
		{"aes-128", "000102030405060708090a0b0c0d0e0f", false},
		{"aes-256", "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f", false},
		{"wrong length", "0001", true},
		{"not hex", "zz0102030405060708090a0b0c0d0e0f", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AuctionConfig{BidKeyHex: tt.hex}.BidKey()
			if (err != nil) != tt.wantErr {
				t.Errorf("BidKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
