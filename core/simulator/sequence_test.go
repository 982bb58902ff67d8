package simulator

import (
	"context"
	"time"

	"github.com/kilianp07/battsim/core/battery"
)

// runToCompletion fires every armed timer until fn returns.
func (suite *SimulatorTestSuite) runToCompletion(fn func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case d := <-suite.armed:
			suite.clock.Add(d)
		case err := <-errCh:
			return err
		case <-deadline:
			suite.FailNow("sequence did not complete")
			return nil
		}
	}
}

func (suite *SimulatorTestSuite) TestSimulateEndsDischarged() {
	s := suite.newSimulator(WithDefaults(time.Second, 4))
	s.SetLevel(0.42)
	h, rec := suite.newRecordedHandle(s)

	err := suite.runToCompletion(func() error { return s.Simulate(context.Background()) })
	suite.Require().NoError(err)

	st := h.State()
	suite.Equal(0.0, st.Level)
	suite.False(st.Charging)
	suite.Equal(time.Duration(0), st.DischargingTime)
	suite.True(battery.IsUnbounded(st.ChargingTime))

	var charging []bool
	for _, ev := range rec.of(battery.ChargingChange) {
		charging = append(charging, ev.State.Charging)
	}
	suite.Equal([]bool{false, true, false}, charging)

	levels := rec.of(battery.LevelChange)
	suite.Require().NotEmpty(levels)
	suite.Equal(1.0, levels[0].State.Level, "reset announces the restored level first")
}

func (suite *SimulatorTestSuite) TestSimulateStopsOnContext() {
	s := suite.newSimulator(WithDefaults(time.Second, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Simulate(ctx) }()
	d := suite.awaitArmed()
	select {
	case err := <-errCh:
		suite.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		suite.FailNow("Simulate did not return")
	}
	// finish the in-flight ramp; no further stage starts
	suite.clock.Add(d)
	d = suite.awaitArmed()
	suite.clock.Add(d)
	suite.Eventually(func() bool { return s.State().DischargingTime == 0 }, time.Second, time.Millisecond)
	suite.False(s.State().Charging)
}
