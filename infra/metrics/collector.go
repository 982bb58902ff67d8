package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/battsim/core/metrics"
	"github.com/kilianp07/battsim/core/simulator"
	"github.com/kilianp07/battsim/infra/logger"
)

// StartEventCollector subscribes to the handle and records every battery
// event on sink. It stops when the context is canceled or the handle is
// closed. Sinks run on the collector goroutine, outside the simulator fan-out.
func StartEventCollector(ctx context.Context, h *simulator.Handle, sink coremetrics.MetricsSink) {
	if h == nil || sink == nil {
		return
	}
	if ps, ok := sink.(*PromSink); ok {
		ps.SetState(h.State())
	}
	log := logger.New("metrics-collector")
	sub := h.Subscribe()
	go func() {
		defer h.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordBatteryEvent(ev); err != nil {
					log.Warnf("record %s: %v", ev.Kind, err)
				}
			}
		}
	}()
}
