// Package control translates controller requests received from the outside
// (HTTP, MQTT) into simulator operations.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/logger"
	"github.com/kilianp07/battsim/core/simulator"
)

// ErrInvalidRequest is returned for unknown actions or malformed values.
var ErrInvalidRequest = errors.New("invalid request")

// maxMS is the largest millisecond count a time.Duration can hold.
const maxMS = math.MaxInt64 / int64(time.Millisecond)

// Action names a controller operation.
type Action string

const (
	ActionReset              Action = "reset"
	ActionSimulate           Action = "simulate"
	ActionCharge             Action = "charge"
	ActionDischarge          Action = "discharge"
	ActionSetLevel           Action = "set_level"
	ActionSetCharging        Action = "set_charging"
	ActionSetChargingTime    Action = "set_charging_time"
	ActionSetDischargingTime Action = "set_discharging_time"
)

// Request is a controller operation with its optional parameters. Missing
// ramp parameters take the simulator defaults and the direction's bound.
type Request struct {
	Action     Action          `json:"action"`
	Target     *float64        `json:"target,omitempty"`
	DurationMS *int64          `json:"duration_ms,omitempty"`
	Steps      *int            `json:"steps,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
}

// Controller executes requests against a simulator. Ramps and scripted
// sequences are started in the background; Execute returns once they are
// under way.
type Controller struct {
	sim *simulator.Simulator
	log logger.Logger

	// ctx bounds background sequences started by Execute.
	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a Controller. Background sequences stop waiting when ctx ends.
func New(ctx context.Context, sim *simulator.Simulator, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Controller{sim: sim, log: log, ctx: ctx}
}

// Execute performs req. Invalid requests yield an error wrapping
// ErrInvalidRequest or simulator.ErrInvalidArgument.
func (c *Controller) Execute(req Request) error {
	switch req.Action {
	case ActionReset:
		c.sim.Reset()
		return nil
	case ActionSimulate:
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.sim.Simulate(c.ctx); err != nil {
				c.log.Warnf("simulate: %v", err)
			}
		}()
		return nil
	case ActionCharge, ActionDischarge:
		return c.startRamp(req)
	case ActionSetLevel:
		var v float64
		if err := decodeValue(req.Value, &v); err != nil {
			return err
		}
		c.sim.SetLevel(v)
		return nil
	case ActionSetCharging:
		var v bool
		if err := decodeValue(req.Value, &v); err != nil {
			return err
		}
		c.sim.SetCharging(v)
		return nil
	case ActionSetChargingTime, ActionSetDischargingTime:
		var ms *int64
		if err := decodeValue(req.Value, &ms); err != nil {
			return err
		}
		if ms != nil && (*ms < 0 || *ms > maxMS) {
			return fmt.Errorf("%w: countdown must be between 0 and %d ms", ErrInvalidRequest, maxMS)
		}
		d := battery.CountdownFromMS(ms)
		if req.Action == ActionSetChargingTime {
			c.sim.SetChargingTime(d)
		} else {
			c.sim.SetDischargingTime(d)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, req.Action)
	}
}

// Wait blocks until background sequences started by Execute return.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) startRamp(req Request) error {
	duration, steps := c.sim.Defaults()
	if req.DurationMS != nil {
		ms := *req.DurationMS
		if ms <= 0 || ms > maxMS {
			return fmt.Errorf("%w: duration_ms must be between 1 and %d", ErrInvalidRequest, maxMS)
		}
		duration = time.Duration(ms) * time.Millisecond
	}
	if req.Steps != nil {
		steps = *req.Steps
	}
	var err error
	if req.Action == ActionCharge {
		target := 1.0
		if req.Target != nil {
			target = *req.Target
		}
		_, err = c.sim.StartCharge(target, duration, steps)
	} else {
		target := 0.0
		if req.Target != nil {
			target = *req.Target
		}
		_, err = c.sim.StartDischarge(target, duration, steps)
	}
	if err != nil {
		return err
	}
	c.log.Infof("%s started over %s in %d steps", req.Action, duration, steps)
	return nil
}

func decodeValue(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: value is required", ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, simulator.ErrInvalidArgument)
}
