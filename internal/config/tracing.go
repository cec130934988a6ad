package config

import (
	"os"
	"strconv"
)

const (
	EnvTracingEnabled = "WAYFINDER_TRACING_ENABLED"
	EnvTracingOutput  = "WAYFINDER_TRACING_OUTPUT"
)

// TracingConfig controls span export. Output is "stdout", "stderr" or a file path.
type TracingConfig struct {
	Enabled bool   `toml:"enabled"`
	Output  string `toml:"output"`
}

// Finalize applies defaults and environment variable overrides.
func (c *TracingConfig) Finalize() error {
	if c.Output == "" {
		c.Output = "stdout"
	}
	if v := os.Getenv(EnvTracingEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(EnvTracingOutput); v != "" {
		c.Output = v
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *TracingConfig) Merge(overlay *TracingConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Output != "" {
		c.Output = overlay.Output
	}
}
