package journal

import (
	"context"

	"github.com/kilianp07/battsim/core/logger"
	"github.com/kilianp07/battsim/core/simulator"
)

// StartRecorder subscribes to h and appends every event into store until
// ctx is done or the handle is closed. The returned channel is closed once
// the recorder has stopped.
func StartRecorder(ctx context.Context, h *simulator.Handle, store Store, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := h.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer h.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := store.Append(ctx, ev); err != nil {
					log.Warnf("journal %s: %v", ev.Kind, err)
				}
			}
		}
	}()
	return done
}
