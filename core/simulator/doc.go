// Package simulator drives a simulated battery through charge and discharge
// timelines and fans every confirmed state change out to observer handles.
//
// A Simulator owns one battery.State and the ordered registry of Handles
// acquired from it. Every mutation goes through a change-checked setter:
// writing the current value is a no-op, any other value is stored and
// announced exactly once to each live handle.
//
// Ramps move the level linearly from the level in effect when they start
// toward a target, ticking every ceil(duration/steps) milliseconds, and snap
// to the direction's bound (0 or 1) once the duration has elapsed:
//
//	sim, _ := simulator.New()
//	h := sim.Acquire()
//	h.OnLevelChange(func(h *simulator.Handle, ev battery.Event) {
//	    fmt.Println(h.Level())
//	})
//	_ = sim.Discharge(ctx, 0, 15*time.Second, 10)
package simulator
