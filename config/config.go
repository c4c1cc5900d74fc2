package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	Auction  AuctionConfig  `yaml:"auction"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// AuctionConfig holds settlement engine configuration.
type AuctionConfig struct {
	// TiebreakerWindow is the bidding window for single tiebreakers.
	TiebreakerWindow time.Duration `yaml:"tiebreaker_window"`
	// BulkMaxWindow is the outer deadline for Last Person Standing auctions.
	BulkMaxWindow time.Duration `yaml:"bulk_max_window"`
	// BidKeyHex is the hex-encoded AES key used to open sealed bid amounts.
	BidKeyHex string `yaml:"bid_key_hex"`
	// Operators are the committee members allowed to preview/apply rounds.
	Operators []string `yaml:"operators"`
}

// BidKey decodes the configured bid encryption key.
func (c AuctionConfig) BidKey() ([]byte, error) {
	key, err := hex.DecodeString(c.BidKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bid_key_hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("bid key must be 16, 24, or 32 bytes, got %d", len(key))
	}
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is missing.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	applyEnvOverrides(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	return &cfg, nil
}

func loadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when no config file is present")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("BID_KEY_HEX"); v != "" {
		cfg.Auction.BidKeyHex = v
	}
	if v := os.Getenv("TIEBREAKER_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auction.TiebreakerWindow = d
		}
	}
	if v := os.Getenv("BULK_MAX_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auction.BulkMaxWindow = d
		}
	}
}
