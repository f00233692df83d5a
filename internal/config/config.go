// Package config loads engine configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SkipPolicy decides what happens when a recipient row cannot be
// created for a resolved member. The legacy behavior silently skips
// the member; strict mode still skips (the batch always completes) but
// surfaces an aggregate error naming the skipped members afterwards.
type SkipPolicy string

const (
	SkipPolicyLegacy SkipPolicy = "skip"
	SkipPolicyStrict SkipPolicy = "strict"
)

// Config holds all configuration for the delivery engine.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracking TrackingConfig `yaml:"tracking"`
	SES      SESConfig      `yaml:"ses"`
	Delivery DeliveryConfig `yaml:"delivery"`
}

// DatabaseConfig holds the campaign store connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the optional Redis connection used for the
// per-campaign send lock. An empty address disables the lock; the
// atomic status transition in the store still guards double-sends.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TrackingConfig holds the settings for tracking URL generation and
// the tracking HTTP endpoint.
type TrackingConfig struct {
	// BaseURL is the public root of the tracking endpoints, without a
	// trailing slash, e.g. "https://track.medlemsys.no".
	BaseURL    string `yaml:"base_url"`
	SigningKey string `yaml:"signing_key"`
	ListenPort int    `yaml:"listen_port"`
}

// SESConfig holds AWS SES API configuration.
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DeliveryConfig tunes the orchestrator.
type DeliveryConfig struct {
	// Workers bounds the recipient fan-out pool. 1 preserves the
	// legacy one-at-a-time behavior.
	Workers int `yaml:"workers"`
	// OnRecipientError selects the SkipPolicy for recipient rows that
	// fail to create.
	OnRecipientError SkipPolicy `yaml:"on_recipient_error"`
	// LockTTLSeconds is the Redis send-lock TTL.
	LockTTLSeconds int `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the send-lock TTL as a duration.
func (c DeliveryConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars in deployment. A
// missing config file is not an error; defaults plus env vars apply.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
		applyDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TRACKING_BASE_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("TRACKING_SIGNING_KEY"); v != "" {
		cfg.Tracking.SigningKey = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("DELIVERY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Delivery.Workers = n
		}
	}
	if v := os.Getenv("DELIVERY_ON_RECIPIENT_ERROR"); v != "" {
		cfg.Delivery.OnRecipientError = SkipPolicy(v)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "eu-north-1"
	}
	if cfg.Tracking.ListenPort == 0 {
		cfg.Tracking.ListenPort = 8081
	}
	if cfg.Delivery.Workers == 0 {
		cfg.Delivery.Workers = 1
	}
	if cfg.Delivery.OnRecipientError == "" {
		cfg.Delivery.OnRecipientError = SkipPolicyLegacy
	}
	if cfg.Delivery.LockTTLSeconds == 0 {
		cfg.Delivery.LockTTLSeconds = 600
	}
}
