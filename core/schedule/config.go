package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the run settings for batch scheduling.
type Config struct {
	// Concurrency is the number of jobs evaluated in parallel per group.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	// MaxCandidates caps the ranked candidates walked per job.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`
	// MinAlternatives is the number of fallback candidates retained on a
	// proposal when available.
	MinAlternatives int `json:"min_alternatives" yaml:"min_alternatives"`
	// AdvanceNoticeDays is the earliest day offers may target.
	AdvanceNoticeDays int `json:"advance_notice_days" yaml:"advance_notice_days"`
	// HorizonDays bounds the date search per engineer.
	HorizonDays int `json:"horizon_days" yaml:"horizon_days"`
	// MaxDatesPerEngineer stops the per-engineer date walk.
	MaxDatesPerEngineer int `json:"max_dates_per_engineer" yaml:"max_dates_per_engineer"`
	// LeniencyMinutes is the allowed overrun past working hours.
	LeniencyMinutes int `json:"leniency_minutes" yaml:"leniency_minutes"`
	// Thorough widens the date search at the cost of more lookups.
	Thorough bool `json:"thorough" yaml:"thorough"`
	// Channel is the delivery channel stamped on offers.
	Channel string `json:"channel" yaml:"channel"`
	// Weights tunes candidate scoring.
	Weights Weights `json:"weights" yaml:"weights"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 6
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 6
	}
	if c.MinAlternatives <= 0 {
		c.MinAlternatives = 4
	}
	if c.AdvanceNoticeDays <= 0 {
		c.AdvanceNoticeDays = 2
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.MaxDatesPerEngineer <= 0 {
		if c.Thorough {
			c.MaxDatesPerEngineer = 5
		} else {
			c.MaxDatesPerEngineer = 3
		}
	}
	if c.Channel == "" {
		c.Channel = "sms"
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.MaxCandidates < c.MinAlternatives {
		return fmt.Errorf("max_candidates (%d) must cover min_alternatives (%d)", c.MaxCandidates, c.MinAlternatives)
	}
	if c.LeniencyMinutes < 0 {
		return fmt.Errorf("leniency_minutes must not be negative")
	}
	return nil
}

// DecodeConfig reads from r to decode a Config in the given format.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
