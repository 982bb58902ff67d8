package simulator

import (
	"context"
	"fmt"
)

// Simulate resets the battery and then runs a discharge to 0, a charge to 1
// and a second discharge to 0, each stage using the simulator defaults and
// starting only after the previous one completed. It ends with an empty,
// discharging battery.
func (s *Simulator) Simulate(ctx context.Context) error {
	s.Reset()
	d, n := s.defaultDuration, s.defaultSteps
	s.log.Infof("simulating discharge/charge/discharge, %s per stage", d)

	if err := s.Discharge(ctx, 0, d, n); err != nil {
		return fmt.Errorf("first discharge: %w", err)
	}
	if err := s.Charge(ctx, 1, d, n); err != nil {
		return fmt.Errorf("charge: %w", err)
	}
	if err := s.Discharge(ctx, 0, d, n); err != nil {
		return fmt.Errorf("second discharge: %w", err)
	}
	return nil
}
