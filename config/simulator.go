package config

import (
	"fmt"
	"time"
)

// SimulatorConfig tunes the scripted sequence and the ramps started
// without explicit parameters.
type SimulatorConfig struct {
	DefaultDurationMS int `json:"default_duration_ms"`
	DefaultSteps      int `json:"default_steps"`
}

// SetDefaults applies the 15s / 10 steps defaults.
func (c *SimulatorConfig) SetDefaults() {
	if c.DefaultDurationMS == 0 {
		c.DefaultDurationMS = 15000
	}
	if c.DefaultSteps == 0 {
		c.DefaultSteps = 10
	}
}

// Validate rejects non-positive values.
func (c SimulatorConfig) Validate() error {
	if c.DefaultDurationMS <= 0 {
		return fmt.Errorf("default_duration_ms must be positive")
	}
	if c.DefaultSteps <= 0 {
		return fmt.Errorf("default_steps must be positive")
	}
	return nil
}

// DefaultDuration returns DefaultDurationMS as a time.Duration.
func (c SimulatorConfig) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMS) * time.Millisecond
}
