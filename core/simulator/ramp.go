package simulator

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/metrics"
)

// RampState is the lifecycle state of a Ramp.
type RampState int32

const (
	RampIdle RampState = iota
	RampRunning
	RampComplete
)

func (s RampState) String() string {
	switch s {
	case RampIdle:
		return "idle"
	case RampRunning:
		return "running"
	case RampComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Ramp drives the level of a simulator toward a target over a fixed
// duration. A ramp always runs to completion once started; Done is closed
// when it reaches RampComplete.
type Ramp struct {
	sim       *Simulator
	direction battery.Direction
	target    float64
	duration  time.Duration
	steps     int
	interval  time.Duration

	start      time.Time
	levelStart float64

	state atomic.Int32
	done  chan struct{}
}

// StepInterval returns the tick interval of a ramp: duration divided by
// steps, rounded up to a whole millisecond and never below one.
func StepInterval(duration time.Duration, steps int) time.Duration {
	ms := math.Ceil(float64(duration) / float64(time.Millisecond) / float64(steps))
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

func validateRamp(duration time.Duration, steps int) error {
	if duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidArgument, duration)
	}
	if steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidArgument, steps)
	}
	return nil
}

// StartDischarge begins ramping the level down toward target and returns
// without waiting. The first tick has been applied when it returns.
func (s *Simulator) StartDischarge(target float64, duration time.Duration, steps int) (*Ramp, error) {
	return s.startRamp(battery.Discharging, target, duration, steps)
}

// StartCharge begins ramping the level up toward target and returns
// without waiting. The first tick has been applied when it returns.
func (s *Simulator) StartCharge(target float64, duration time.Duration, steps int) (*Ramp, error) {
	return s.startRamp(battery.Charging, target, duration, steps)
}

// Discharge ramps the level down and waits for the ramp to complete. If ctx
// ends first, ctx.Err() is returned and the ramp keeps running.
func (s *Simulator) Discharge(ctx context.Context, target float64, duration time.Duration, steps int) error {
	r, err := s.StartDischarge(target, duration, steps)
	if err != nil {
		return err
	}
	return r.Wait(ctx)
}

// Charge ramps the level up and waits for the ramp to complete. If ctx ends
// first, ctx.Err() is returned and the ramp keeps running.
func (s *Simulator) Charge(ctx context.Context, target float64, duration time.Duration, steps int) error {
	r, err := s.StartCharge(target, duration, steps)
	if err != nil {
		return err
	}
	return r.Wait(ctx)
}

func (s *Simulator) startRamp(dir battery.Direction, target float64, duration time.Duration, steps int) (*Ramp, error) {
	if err := validateRamp(duration, steps); err != nil {
		return nil, err
	}
	r := &Ramp{
		sim:       s,
		direction: dir,
		target:    target,
		duration:  duration,
		steps:     steps,
		interval:  StepInterval(duration, steps),
		done:      make(chan struct{}),
	}
	r.begin()
	if !r.tick() {
		go r.run()
	}
	return r, nil
}

// Direction returns whether the ramp charges or discharges.
func (r *Ramp) Direction() battery.Direction { return r.direction }

// Target returns the level the interpolation heads for.
func (r *Ramp) Target() float64 { return r.target }

// LevelStart returns the level in effect when the ramp started.
func (r *Ramp) LevelStart() float64 { return r.levelStart }

// Interval returns the time between ticks.
func (r *Ramp) Interval() time.Duration { return r.interval }

// State returns the current lifecycle state.
func (r *Ramp) State() RampState { return RampState(r.state.Load()) }

// Done is closed once the ramp is complete.
func (r *Ramp) Done() <-chan struct{} { return r.done }

// Wait blocks until the ramp completes or ctx ends.
func (r *Ramp) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	default:
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin records the starting point and flips the charging flag. The
// countdown of the opposite direction becomes unbounded.
func (r *Ramp) begin() {
	s := r.sim
	r.start = s.now()
	r.levelStart = s.State().Level
	r.state.Store(int32(RampRunning))

	s.SetCharging(r.direction == battery.Charging)
	if r.direction == battery.Charging {
		s.SetDischargingTime(battery.Unbounded)
	} else {
		s.SetChargingTime(battery.Unbounded)
	}
	s.log.Debugf("%s from %.2f to %.2f in %s", r.direction, r.levelStart, r.target, r.duration)
}

// tick applies one interpolation step. It reports whether the ramp is
// complete.
func (r *Ramp) tick() bool {
	s := r.sim
	elapsed := s.now().Sub(r.start)
	if elapsed >= r.duration {
		s.SetLevel(r.direction.Bound())
		r.setCountdown(0)
		r.complete()
		return true
	}

	progress := float64(elapsed) / float64(r.duration)
	level := battery.Round(r.levelStart + (r.target-r.levelStart)*progress)
	s.SetLevel(r.direction.Clamp(level))
	r.setCountdown(r.duration - elapsed)
	return false
}

func (r *Ramp) run() {
	for {
		ch, _ := r.sim.newTimer(r.interval)
		<-ch
		if r.tick() {
			return
		}
	}
}

// setCountdown writes the countdown of the ramp's own direction.
func (r *Ramp) setCountdown(d time.Duration) {
	if r.direction == battery.Charging {
		r.sim.SetChargingTime(d)
	} else {
		r.sim.SetDischargingTime(d)
	}
}

// complete marks the ramp done and hands its summary to the recorder on a
// separate goroutine, so a slow recorder never holds up Done.
func (r *Ramp) complete() {
	s := r.sim
	completed := s.now().UTC()
	r.state.Store(int32(RampComplete))
	close(r.done)

	s.log.Debugw("ramp complete", map[string]any{
		"direction":   r.direction.String(),
		"level_start": r.levelStart,
		"target":      r.target,
		"duration":    r.duration.String(),
		"steps":       r.steps,
	})
	if s.recorder == nil {
		return
	}
	ev := metrics.RampEvent{
		Direction:  r.direction,
		LevelStart: r.levelStart,
		Target:     r.target,
		Duration:   r.duration,
		Steps:      r.steps,
		Started:    r.start.UTC(),
		Completed:  completed,
	}
	go func() {
		if err := s.recorder.RecordRamp(ev); err != nil {
			s.log.Errorf("record ramp: %v", err)
		}
	}()
}
