package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWorkflowMaxAttempts          = "WAYFINDER_WORKFLOW_MAX_ATTEMPTS"
	EnvWorkflowDecisionTimeout      = "WAYFINDER_WORKFLOW_DECISION_TIMEOUT"
	EnvWorkflowDepartureWindowHours = "WAYFINDER_WORKFLOW_DEPARTURE_WINDOW_HOURS"
	EnvWorkflowMaxPrice             = "WAYFINDER_WORKFLOW_MAX_PRICE"
	EnvWorkflowResumeConcurrency    = "WAYFINDER_WORKFLOW_RESUME_CONCURRENCY"
)

// WorkflowConfig tunes the orchestration loop and the search defaults the
// agent applies when a prompt leaves them open.
type WorkflowConfig struct {
	MaxAttempts          int     `toml:"max_attempts"`
	DecisionTimeout      string  `toml:"decision_timeout"`
	DepartureWindowHours int     `toml:"departure_window_hours"`
	MaxPrice             float64 `toml:"max_price"`
	ResumeConcurrency    int     `toml:"resume_concurrency"`
}

// DecisionTimeoutDuration returns DecisionTimeout as a time.Duration.
func (c *WorkflowConfig) DecisionTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DecisionTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.DecisionTimeout != "" {
		c.DecisionTimeout = overlay.DecisionTimeout
	}
	if overlay.DepartureWindowHours != 0 {
		c.DepartureWindowHours = overlay.DepartureWindowHours
	}
	if overlay.MaxPrice != 0 {
		c.MaxPrice = overlay.MaxPrice
	}
	if overlay.ResumeConcurrency != 0 {
		c.ResumeConcurrency = overlay.ResumeConcurrency
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.DecisionTimeout == "" {
		c.DecisionTimeout = "1h"
	}
	if c.DepartureWindowHours == 0 {
		c.DepartureWindowHours = 6
	}
	if c.MaxPrice == 0 {
		c.MaxPrice = 1000
	}
	if c.ResumeConcurrency == 0 {
		c.ResumeConcurrency = 4
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(EnvWorkflowDecisionTimeout); v != "" {
		c.DecisionTimeout = v
	}
	if v := os.Getenv(EnvWorkflowDepartureWindowHours); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DepartureWindowHours = n
		}
	}
	if v := os.Getenv(EnvWorkflowMaxPrice); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxPrice = f
		}
	}
	if v := os.Getenv(EnvWorkflowResumeConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ResumeConcurrency = n
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive: %d", c.MaxAttempts)
	}
	d, err := time.ParseDuration(c.DecisionTimeout)
	if err != nil {
		return fmt.Errorf("invalid decision_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("decision_timeout must be positive: %s", c.DecisionTimeout)
	}
	if c.DepartureWindowHours < 1 {
		return fmt.Errorf("departure_window_hours must be positive: %d", c.DepartureWindowHours)
	}
	if c.MaxPrice <= 0 {
		return fmt.Errorf("max_price must be positive: %v", c.MaxPrice)
	}
	if c.ResumeConcurrency < 1 {
		return fmt.Errorf("resume_concurrency must be positive: %d", c.ResumeConcurrency)
	}
	return nil
}
