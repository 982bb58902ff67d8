package metrics

import "github.com/kilianp07/battsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress is where /metrics is served when a prometheus sink is
	// configured. Empty disables the endpoint.
	PrometheusAddress string `json:"prometheus_address"`
}

// HasSink reports whether a sink of the given type is configured.
func (c Config) HasSink(typ string) bool {
	for _, s := range c.Sinks {
		if s.Type == typ {
			return true
		}
	}
	return false
}
