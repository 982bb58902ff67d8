package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/battsim/core/battery"
	coremetrics "github.com/kilianp07/battsim/core/metrics"
)

// PromSink exposes the battery state and its changes as Prometheus metrics.
type PromSink struct {
	level           prometheus.Gauge
	charging        prometheus.Gauge
	chargingTime    prometheus.Gauge
	dischargingTime prometheus.Gauge
	events          *prometheus.CounterVec
	ramps           *prometheus.HistogramVec
}

// NewPromSink registers battery metrics on the default Prometheus registerer.
// The Prometheus server is started separately on metrics.prometheus_address.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.level, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "battery_level",
		Help: "Battery charge level between 0 and 1",
	})); err != nil {
		return nil, err
	}
	if s.charging, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "battery_charging",
		Help: "1 while the battery is charging, 0 otherwise",
	})); err != nil {
		return nil, err
	}
	if s.chargingTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "battery_charging_time_seconds",
		Help: "Seconds until fully charged, -1 when unbounded",
	})); err != nil {
		return nil, err
	}
	if s.dischargingTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "battery_discharging_time_seconds",
		Help: "Seconds until fully discharged, -1 when unbounded",
	})); err != nil {
		return nil, err
	}
	if s.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_events_total",
		Help: "Total number of battery change events",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.ramps, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "battery_ramp_duration_seconds",
		Help:    "Wall time of completed charge and discharge ramps",
		Buckets: prometheus.DefBuckets,
	}, []string{"direction"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordBatteryEvent counts ev and updates the gauges from its state.
func (s *PromSink) RecordBatteryEvent(ev battery.Event) error {
	s.events.WithLabelValues(ev.Kind.String()).Inc()
	s.SetState(ev.State)
	return nil
}

// SetState sets the gauges without counting an event.
func (s *PromSink) SetState(st battery.State) {
	s.level.Set(st.Level)
	s.charging.Set(boolToFloat(st.Charging))
	s.chargingTime.Set(countdownSeconds(st.ChargingTime))
	s.dischargingTime.Set(countdownSeconds(st.DischargingTime))
}

// RecordRamp observes the wall time of a completed ramp.
func (s *PromSink) RecordRamp(ev coremetrics.RampEvent) error {
	s.ramps.WithLabelValues(ev.Direction.String()).Observe(ev.Completed.Sub(ev.Started).Seconds())
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func countdownSeconds(d time.Duration) float64 {
	if battery.IsUnbounded(d) {
		return -1
	}
	return d.Seconds()
}
