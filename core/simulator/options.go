package simulator

import (
	"fmt"
	"time"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/logger"
	"github.com/kilianp07/battsim/core/metrics"
)

// Option is a configurable option for tailoring a Simulator.
type Option interface {
	apply(*Simulator) error
}

type optionFunc func(*Simulator) error

func (f optionFunc) apply(s *Simulator) error { return f(s) }

// WithLogger sets the logger used for ramp progress messages.
func WithLogger(l logger.Logger) Option {
	return optionFunc(func(s *Simulator) error {
		if l != nil {
			s.log = l
		}
		return nil
	})
}

// WithDefaults sets the duration and step count used by Simulate.
func WithDefaults(duration time.Duration, steps int) Option {
	return optionFunc(func(s *Simulator) error {
		if err := validateRamp(duration, steps); err != nil {
			return err
		}
		s.defaultDuration = duration
		s.defaultSteps = steps
		return nil
	})
}

// WithRampRecorder receives a summary of every completed ramp.
func WithRampRecorder(r metrics.RampRecorder) Option {
	return optionFunc(func(s *Simulator) error {
		s.recorder = r
		return nil
	})
}

// WithInitialState starts the simulator from st instead of the fully
// charged idle state. The level is rounded like any other write.
func WithInitialState(st battery.State) Option {
	return optionFunc(func(s *Simulator) error {
		if st.ChargingTime < 0 || st.DischargingTime < 0 {
			return fmt.Errorf("%w: countdowns must not be negative", ErrInvalidArgument)
		}
		st.Level = battery.Round(st.Level)
		s.state = st
		return nil
	})
}
