package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/factory"
	metrics "github.com/kilianp07/battsim/core/metrics"
	inframetrics "github.com/kilianp07/battsim/infra/metrics"
)

func TestSinkTypes(t *testing.T) {
	assert.Equal(t, []string{"influx", "nop", "prometheus"}, metrics.SinkTypes())
}

func TestNewMetricsSink(t *testing.T) {
	cases := []struct {
		name string
		cfgs []factory.ModuleConfig
		want any
	}{
		{"none", nil, metrics.NopSink{}},
		{"nop", []factory.ModuleConfig{{Type: "nop"}}, metrics.NopSink{}},
		{"prometheus", []factory.ModuleConfig{{Type: "prometheus"}}, &inframetrics.PromSink{}},
		// an unreachable server falls back to nop
		{"influx", []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{"url": "http://127.0.0.1:1", "bucket": "battery"}}}, metrics.NopSink{}},
		{"several", []factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}}, &metrics.MultiSink{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := metrics.NewMetricsSink(c.cfgs)
			require.NoError(t, err)
			assert.IsType(t, c.want, s)
			assert.NoError(t, s.RecordBatteryEvent(battery.Event{Kind: battery.LevelChange, State: battery.FullState()}))
		})
	}
}

func TestNewMetricsSink_PrometheusRecordsRamps(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "prometheus"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok)
	require.Len(t, m.Sinks, 2)
	for _, sub := range m.Sinks {
		_, ok := sub.(metrics.RampRecorder)
		assert.True(t, ok, "%T records ramps", sub)
	}
	assert.NoError(t, m.RecordRamp(metrics.RampEvent{Direction: battery.Charging}))
}

func TestNewMetricsSink_Errors(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.ErrorContains(t, err, "metrics sink 0")

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "influx", Conf: map[string]any{"url": map[string]any{"host": "influx"}}}})
	assert.ErrorContains(t, err, "metrics sink 1")

	assert.Error(t, metrics.RegisterMetricsSink("nop", func(map[string]any) (metrics.MetricsSink, error) {
		return metrics.NopSink{}, nil
	}), "duplicate registration")
}
