package config

import (
	"fmt"
	"time"
)

// ScheduleConfig runs the scripted sequence periodically.
type ScheduleConfig struct {
	// IntervalSeconds between scenario starts. Zero disables the schedule.
	IntervalSeconds int `json:"interval_seconds"`
}

func (c ScheduleConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must not be negative")
	}
	return nil
}

func (c ScheduleConfig) Enabled() bool { return c.IntervalSeconds > 0 }

func (c ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
