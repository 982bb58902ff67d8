package mqtt

import (
	"context"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/logger"
	coremqtt "github.com/kilianp07/battsim/core/mqtt"
	"github.com/kilianp07/battsim/core/simulator"
)

// Bridge mirrors a simulator handle onto a Publisher. Publishing happens on
// the bridge goroutine, never inside the simulator fan-out.
type Bridge struct {
	pub coremqtt.Publisher
	log logger.Logger
}

// NewBridge creates a Bridge. A nil logger discards output.
func NewBridge(pub coremqtt.Publisher, log logger.Logger) *Bridge {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Bridge{pub: pub, log: log}
}

// Run publishes the current state, then each event received by h together
// with the state it carries. It returns when ctx ends or h is closed.
func (b *Bridge) Run(ctx context.Context, h *simulator.Handle) error {
	events := h.Subscribe()
	defer h.Unsubscribe(events)

	if err := b.pub.PublishState(h.State()); err != nil {
		b.log.Warnf("mqtt publish state: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.forward(ev)
		}
	}
}

func (b *Bridge) forward(ev battery.Event) {
	if err := b.pub.PublishEvent(ev); err != nil {
		b.log.Warnf("mqtt publish %s: %v", ev.Kind, err)
	}
	if err := b.pub.PublishState(ev.State); err != nil {
		b.log.Warnf("mqtt publish state: %v", err)
	}
}
