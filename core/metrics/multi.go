package metrics

import (
	"github.com/kilianp07/battsim/core/battery"
)

// MultiSink fanouts battery events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordBatteryEvent forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordBatteryEvent(ev battery.Event) error {
	for _, s := range m.Sinks {
		if err := s.RecordBatteryEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRamp forwards ramp summaries when supported by the sink.
func (m *MultiSink) RecordRamp(ev RampEvent) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(RampRecorder); ok {
			if err := rr.RecordRamp(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
