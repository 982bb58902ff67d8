package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `simulator:
  default_duration_ms: 3000
  default_steps: 6
http:
  address: ":9000"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "battsim"
  username: "user"
  password: "pass"
  topic_prefix: "lab/battery"
  use_tls: false
metrics:
  prometheus_address: ":2112"
  sinks:
    - type: "nop"
schedule:
  interval_seconds: 60
logging:
  level: "debug"
  format: "console"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"default_duration_ms", cfg.Simulator.DefaultDurationMS, 3000},
		{"default_steps", cfg.Simulator.DefaultSteps, 6},
		{"http.address", cfg.HTTP.Address, ":9000"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "battsim"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "lab/battery"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"prometheus_address", cfg.Metrics.PrometheusAddress, ":2112"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"schedule", cfg.Schedule.Interval(), time.Minute},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format", cfg.Logging.Format, "console"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, 3*time.Second, cfg.Simulator.DefaultDuration())
	assert.True(t, cfg.HTTP.Enabled())
	assert.True(t, cfg.MQTT.Enabled())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Simulator.DefaultDuration())
	assert.Equal(t, 10, cfg.Simulator.DefaultSteps)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "battsim", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Schedule.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "http:\n  address: \":9000\"\n")
	t.Setenv("K_HTTP__ADDRESS", ":7000")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Address)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err, "unsupported extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "config.yaml", "simulator:\n  default_steps: -2\n"))
	assert.ErrorContains(t, err, "default_steps")

	_, err = Load(writeConfig(t, "config.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging")

	_, err = Load(writeConfig(t, "config.yaml", "schedule:\n  interval_seconds: -1\n"))
	assert.ErrorContains(t, err, "schedule")
}

func TestLoadJournal(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", `journal:
  store:
    type: sqlite
    conf:
      path: /tmp/battery.db
`))
	require.NoError(t, err)
	assert.True(t, cfg.Journal.Enabled())
	assert.Equal(t, "sqlite", cfg.Journal.Store.Type)
	assert.Equal(t, "/tmp/battery.db", cfg.Journal.Store.Conf["path"])

	_, err = Load(writeConfig(t, "config.yaml", "journal:\n  store:\n    type: mongo\n"))
	assert.ErrorContains(t, err, "journal")
}
