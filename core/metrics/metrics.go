package metrics

import (
	"time"

	"github.com/kilianp07/battsim/core/battery"
)

// MetricsSink records battery change events for observability purposes.
type MetricsSink interface {
	RecordBatteryEvent(ev battery.Event) error
}

// RampEvent summarizes a completed charge or discharge ramp.
type RampEvent struct {
	Direction  battery.Direction
	LevelStart float64
	Target     float64
	Duration   time.Duration
	Steps      int
	Started    time.Time
	Completed  time.Time
}

// RampRecorder records completed ramps.
type RampRecorder interface {
	RecordRamp(ev RampEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordBatteryEvent(battery.Event) error { return nil }

// Ensure NopSink implements RampRecorder.
func (NopSink) RecordRamp(RampEvent) error { return nil }
