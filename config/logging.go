package config

import "fmt"

// LoggingConfig defines settings for batch run log storage.
type LoggingConfig struct {
	// Backend selects the run log store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the run log store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "fieldsched-runs.log"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown run log backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("run log path is required")
	}
	return nil
}
