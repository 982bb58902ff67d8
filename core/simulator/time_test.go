package simulator

import (
	"sync"
	"time"

	"github.com/xmidt-org/chronon"

	"github.com/kilianp07/battsim/core/battery"
)

// fakeTimer creates a newTimer closure backed by the given FakeClock. Each
// armed timer's duration is sent on armed once the timer exists, so a test
// can advance the clock knowing the ramp is waiting on it.
func fakeTimer(fc *chronon.FakeClock, armed chan<- time.Duration) newTimer {
	return func(d time.Duration) (<-chan time.Time, func() bool) {
		ft := fc.NewTimer(d)
		armed <- d
		return ft.C(), ft.Stop
	}
}

// recorder collects every event delivered to the listeners it is attached to.
type recorder struct {
	lock   sync.Mutex
	events []battery.Event
}

func (r *recorder) listen(_ *Handle, ev battery.Event) {
	r.lock.Lock()
	r.events = append(r.events, ev)
	r.lock.Unlock()
}

func (r *recorder) all() []battery.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]battery.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) of(kind battery.EventKind) []battery.Event {
	var out []battery.Event
	for _, ev := range r.all() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// attach registers the recorder on every event kind of h.
func (r *recorder) attach(h *Handle) error {
	for _, k := range battery.EventKinds {
		if _, err := h.AddListener(k, r.listen); err != nil {
			return err
		}
	}
	return nil
}
