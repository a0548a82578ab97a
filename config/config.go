// Package config loads service configuration from yaml/json files with
// environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dispatchlab/fieldsched/core/schedule"
	"github.com/dispatchlab/fieldsched/core/travel"
	"github.com/dispatchlab/fieldsched/infra/notify"
)

// Config is the root service configuration.
type Config struct {
	Schedule schedule.Config `json:"schedule"`
	Logging  LoggingConfig   `json:"logging"`
	Store    StoreConfig     `json:"store"`
	Travel   TravelConfig    `json:"travel"`
	Notify   notify.Config   `json:"notify"`
	Metrics  MetricsConfig   `json:"metrics"`
}

// StoreConfig selects the authoritative store backend.
type StoreConfig struct {
	// Driver is "postgres" or "memory" (tests, demo).
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "memory"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("store: dsn is required for postgres")
		}
		return nil
	default:
		return fmt.Errorf("store: unknown driver %s", c.Driver)
	}
}

// TravelConfig configures the travel estimator tiers and cache.
type TravelConfig struct {
	GoogleAPIKey  string                          `json:"google_api_key"`
	RedisAddr     string                          `json:"redis_addr"`
	RedisPassword string                          `json:"redis_password"`
	RedisDB       int                             `json:"redis_db"`
	Regions       map[string]travel.RegionProfile `json:"regions"`
}

// MetricsConfig configures metric exposition and sinks.
type MetricsConfig struct {
	PromAddr     string `json:"prom_addr"`
	InfluxURL    string `json:"influx_url"`
	InfluxToken  string `json:"influx_token"`
	InfluxOrg    string `json:"influx_org"`
	InfluxBucket string `json:"influx_bucket"`
}

// Load reads the configuration file at path, applying FS_* environment
// overrides (FS_SCHEDULE__CONCURRENCY=8 sets schedule.concurrency).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("FS_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Schedule.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Store.SetDefaults()
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
