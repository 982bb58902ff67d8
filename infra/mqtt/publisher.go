package mqtt

import (
	"errors"
	"sync"

	"github.com/kilianp07/battsim/core/battery"
	coremqtt "github.com/kilianp07/battsim/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MemoryPublisher records published states and events. It is used in tests
// and when no broker is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	states []battery.State
	events []battery.Event
	Fail   bool
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

var errPublishFailed = errors.New("publish failed")

// PublishState records st or fails when Fail is set.
func (m *MemoryPublisher) PublishState(st battery.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errPublishFailed
	}
	m.states = append(m.states, st)
	return nil
}

// PublishEvent records ev or fails when Fail is set.
func (m *MemoryPublisher) PublishEvent(ev battery.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errPublishFailed
	}
	m.events = append(m.events, ev)
	return nil
}

// States returns a copy of the recorded states.
func (m *MemoryPublisher) States() []battery.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]battery.State(nil), m.states...)
}

// Events returns a copy of the recorded events.
func (m *MemoryPublisher) Events() []battery.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]battery.Event(nil), m.events...)
}

// LastState returns the most recent state, if any.
func (m *MemoryPublisher) LastState() (battery.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return battery.State{}, false
	}
	return m.states[len(m.states)-1], true
}
