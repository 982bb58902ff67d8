package mqtt

import (
	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/control"
)

// Publisher mirrors battery state and change events onto a broker.
type Publisher interface {
	// PublishState publishes the full snapshot, retained for late subscribers.
	PublishState(st battery.State) error

	// PublishEvent publishes a single change event.
	PublishEvent(ev battery.Event) error
}

// CommandHandler receives decoded controller requests from the broker.
type CommandHandler func(req control.Request) error
