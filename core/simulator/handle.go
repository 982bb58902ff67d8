package simulator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/internal/eventbus"
)

// Listener receives battery events. The handle the event was delivered to
// is passed as h.
type Listener func(h *Handle, ev battery.Event)

// ListenerID identifies a listener added with AddListener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Handle is a consumer's view of the simulated battery. It holds no battery
// state of its own: every getter reads the simulator at call time, so all
// handles of a simulator agree at any instant.
//
// Each event reaches a handle in this order: the single-slot handler set
// for its kind, the listeners added for its kind in registration order,
// then the channel subscribers.
type Handle struct {
	id  string
	sim *Simulator

	lock      sync.Mutex
	slots     [battery.NumEventKinds]Listener
	listeners [battery.NumEventKinds][]listenerEntry
	nextID    ListenerID

	bus    *eventbus.TypedBus[battery.Event]
	closed atomic.Bool
}

func newHandle(sim *Simulator) *Handle {
	return &Handle{
		id:  uuid.NewString(),
		sim: sim,
		bus: eventbus.NewTyped[battery.Event](),
	}
}

// ID returns the unique identifier of this handle.
func (h *Handle) ID() string { return h.id }

// State returns a snapshot of the simulated battery.
func (h *Handle) State() battery.State { return h.sim.State() }

func (h *Handle) Level() float64 { return h.sim.State().Level }

func (h *Handle) Charging() bool { return h.sim.State().Charging }

func (h *Handle) ChargingTime() time.Duration { return h.sim.State().ChargingTime }

func (h *Handle) DischargingTime() time.Duration { return h.sim.State().DischargingTime }

// SetHandler fills the single handler slot for kind, replacing any previous
// handler. A nil fn clears the slot.
func (h *Handle) SetHandler(kind battery.EventKind, fn Listener) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownEventKind, kind)
	}
	h.lock.Lock()
	h.slots[kind] = fn
	h.lock.Unlock()
	return nil
}

// Handler returns the handler in the slot for kind, or nil.
func (h *Handle) Handler(kind battery.EventKind) Listener {
	if !kind.Valid() {
		return nil
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.slots[kind]
}

func (h *Handle) OnLevelChange(fn Listener) { _ = h.SetHandler(battery.LevelChange, fn) }

func (h *Handle) OnChargingChange(fn Listener) { _ = h.SetHandler(battery.ChargingChange, fn) }

func (h *Handle) OnChargingTimeChange(fn Listener) {
	_ = h.SetHandler(battery.ChargingTimeChange, fn)
}

func (h *Handle) OnDischargingTimeChange(fn Listener) {
	_ = h.SetHandler(battery.DischargingTimeChange, fn)
}

// AddListener appends fn to the listeners of kind. Any number of listeners
// may be added; the returned ID removes it again.
func (h *Handle) AddListener(kind battery.EventKind, fn Listener) (ListenerID, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownEventKind, kind)
	}
	if fn == nil {
		return 0, fmt.Errorf("listener for %s is nil", kind)
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.nextID++
	h.listeners[kind] = append(h.listeners[kind], listenerEntry{id: h.nextID, fn: fn})
	return h.nextID, nil
}

// RemoveListener removes a listener added with AddListener. It reports
// whether the listener was found.
func (h *Handle) RemoveListener(id ListenerID) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	for k := range h.listeners {
		for i, e := range h.listeners[k] {
			if e.id == id {
				h.listeners[k] = append(h.listeners[k][:i], h.listeners[k][i+1:]...)
				return true
			}
		}
	}
	return false
}

// Subscribe returns a channel receiving every event of every kind. Delivery
// never blocks the simulator; a subscriber that falls behind misses events.
func (h *Handle) Subscribe() <-chan battery.Event { return h.bus.Subscribe() }

// Unsubscribe closes a channel returned by Subscribe.
func (h *Handle) Unsubscribe(ch <-chan battery.Event) { h.bus.Unsubscribe(ch) }

// Close releases the handle from its simulator. It receives no further
// events and its subscription channels are closed.
func (h *Handle) Close() { h.sim.Release(h) }

// Closed reports whether the handle has been released.
func (h *Handle) Closed() bool { return h.closed.Load() }

func (h *Handle) deliver(ev battery.Event) {
	if h.closed.Load() || !ev.Kind.Valid() {
		return
	}
	h.lock.Lock()
	slot := h.slots[ev.Kind]
	entries := h.listeners[ev.Kind]
	fns := make([]Listener, len(entries))
	for i, e := range entries {
		fns[i] = e.fn
	}
	h.lock.Unlock()

	if slot != nil {
		slot(h, ev)
	}
	// A callback may have closed the handle.
	for _, fn := range fns {
		if h.closed.Load() {
			return
		}
		fn(h, ev)
	}
	h.bus.Publish(ev)
}
