package simulator

import (
	"slices"
	"sync"
	"time"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/logger"
	"github.com/kilianp07/battsim/core/metrics"
)

const (
	// DefaultRampDuration is the duration of each stage of Simulate.
	DefaultRampDuration = 15 * time.Second

	// DefaultRampSteps is the number of ticks of each stage of Simulate.
	DefaultRampSteps = 10
)

// Simulator owns the simulated battery state and the handles observing it.
// All methods are safe for concurrent use.
//
// Changes are applied in the order they are made and announced in that same
// order, one event at a time. Listeners run synchronously while an event is
// being announced and must not block. A listener may call any mutator: the
// change is applied at once and its event is queued behind the event being
// announced. Likewise a mutator called while another goroutine is announcing
// returns after applying its change and leaves the announcement to that
// goroutine.
type Simulator struct {
	log      logger.Logger
	recorder metrics.RampRecorder

	// now is the strategy used to get the current time.
	now now

	// newTimer is a factory for ramp tick timers. Tests replace it to
	// drive ramps from a fake clock.
	newTimer newTimer

	defaultDuration time.Duration
	defaultSteps    int

	// lock guards state, handles and the announcement queue.
	lock    sync.RWMutex
	state   battery.State
	handles []*Handle

	// pending holds changes not yet announced, oldest first. announcing is
	// set while a goroutine drains it.
	pending    []announcement
	announcing bool
}

// announcement is an event together with the handles registered when the
// change was made.
type announcement struct {
	ev      battery.Event
	handles []*Handle
}

// New creates a Simulator in the fully charged idle state.
func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{
		log:             logger.NopLogger{},
		now:             time.Now,
		newTimer:        defaultNewTimer,
		defaultDuration: DefaultRampDuration,
		defaultSteps:    DefaultRampSteps,
		state:           battery.FullState(),
	}
	for _, o := range opts {
		if err := o.apply(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// State returns a snapshot of the current battery state.
func (s *Simulator) State() battery.State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Defaults returns the duration and step count used by Simulate.
func (s *Simulator) Defaults() (time.Duration, int) {
	return s.defaultDuration, s.defaultSteps
}

// Acquire registers and returns a new observer handle. It never fails.
func (s *Simulator) Acquire() *Handle {
	h := newHandle(s)
	s.lock.Lock()
	s.handles = append(s.handles, h)
	s.lock.Unlock()
	return h
}

// Release removes h from the registry and closes its channel subscriptions.
// It reports whether h was registered.
func (s *Simulator) Release(h *Handle) bool {
	s.lock.Lock()
	idx := slices.Index(s.handles, h)
	if idx >= 0 {
		s.handles = slices.Delete(s.handles, idx, idx+1)
	}
	s.lock.Unlock()
	if idx < 0 {
		return false
	}
	h.closed.Store(true)
	h.bus.Close()
	return true
}

// Handles returns the number of registered handles.
func (s *Simulator) Handles() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.handles)
}

// SetLevel stores level rounded to two decimals. It reports whether the
// stored level changed.
func (s *Simulator) SetLevel(level float64) bool {
	level = battery.Round(level)
	return s.update(battery.LevelChange, func(st *battery.State) bool {
		if st.Level == level {
			return false
		}
		st.Level = level
		return true
	})
}

// SetCharging stores the charging flag.
func (s *Simulator) SetCharging(charging bool) bool {
	return s.update(battery.ChargingChange, func(st *battery.State) bool {
		if st.Charging == charging {
			return false
		}
		st.Charging = charging
		return true
	})
}

// SetChargingTime stores the time until full, battery.Unbounded when unknown.
func (s *Simulator) SetChargingTime(d time.Duration) bool {
	return s.update(battery.ChargingTimeChange, func(st *battery.State) bool {
		if st.ChargingTime == d {
			return false
		}
		st.ChargingTime = d
		return true
	})
}

// SetDischargingTime stores the time until empty, battery.Unbounded when unknown.
func (s *Simulator) SetDischargingTime(d time.Duration) bool {
	return s.update(battery.DischargingTimeChange, func(st *battery.State) bool {
		if st.DischargingTime == d {
			return false
		}
		st.DischargingTime = d
		return true
	})
}

// Reset restores the fully charged idle state in one write and then
// announces every field that differs from its previous value.
func (s *Simulator) Reset() {
	s.lock.Lock()
	prev := s.state
	s.state = battery.FullState()
	ts := s.now().UTC()
	for _, kind := range changedKinds(prev, s.state) {
		s.enqueue(battery.Event{Kind: kind, State: s.state, Time: ts})
	}
	s.lock.Unlock()

	s.announce()
}

// update applies mutate and announces kind when mutate reports a change.
func (s *Simulator) update(kind battery.EventKind, mutate func(*battery.State) bool) bool {
	s.lock.Lock()
	if !mutate(&s.state) {
		s.lock.Unlock()
		return false
	}
	s.enqueue(battery.Event{Kind: kind, State: s.state, Time: s.now().UTC()})
	s.lock.Unlock()

	s.announce()
	return true
}

// enqueue queues ev for the currently registered handles. s.lock must be
// held for writing.
func (s *Simulator) enqueue(ev battery.Event) {
	s.pending = append(s.pending, announcement{ev: ev, handles: slices.Clone(s.handles)})
}

// announce delivers pending events in order. Only one goroutine announces
// at a time; any other caller, including a listener of the event being
// delivered, returns at once and its event is delivered by the announcing
// goroutine.
func (s *Simulator) announce() {
	s.lock.Lock()
	if s.announcing {
		s.lock.Unlock()
		return
	}
	s.announcing = true
	s.lock.Unlock()

	drained := false
	defer func() {
		// A panicking listener must not leave the queue stuck.
		if !drained {
			s.lock.Lock()
			s.announcing = false
			s.lock.Unlock()
		}
	}()
	for {
		s.lock.Lock()
		if len(s.pending) == 0 {
			s.announcing = false
			s.lock.Unlock()
			drained = true
			return
		}
		next := s.pending[0]
		s.pending[0] = announcement{}
		s.pending = s.pending[1:]
		s.lock.Unlock()

		dispatch(next.handles, next.ev)
	}
}

func dispatch(handles []*Handle, ev battery.Event) {
	for _, h := range handles {
		h.deliver(ev)
	}
}

// changedKinds lists, in enumeration order, the kinds whose field differs
// between a and b.
func changedKinds(a, b battery.State) []battery.EventKind {
	var kinds []battery.EventKind
	if a.Level != b.Level {
		kinds = append(kinds, battery.LevelChange)
	}
	if a.Charging != b.Charging {
		kinds = append(kinds, battery.ChargingChange)
	}
	if a.ChargingTime != b.ChargingTime {
		kinds = append(kinds, battery.ChargingTimeChange)
	}
	if a.DischargingTime != b.DischargingTime {
		kinds = append(kinds, battery.DischargingTimeChange)
	}
	return kinds
}
