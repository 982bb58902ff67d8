package battery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1, 1},
		{0, 0},
		{0.123, 0.12},
		{0.125, 0.13},
		{0.994, 0.99},
		{-0.004, 0},
		{0.7, 0.7},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Round(c.in), 1e-9, "round(%v)", c.in)
	}
}

func TestRoundIdempotent(t *testing.T) {
	for i := 0; i <= 100; i++ {
		v := Round(float64(i) / 100)
		assert.Equal(t, v, Round(v))
	}
}

func TestFullState(t *testing.T) {
	s := FullState()
	assert.Equal(t, 1.0, s.Level)
	assert.True(t, s.Charging)
	assert.Equal(t, time.Duration(0), s.ChargingTime)
	assert.True(t, IsUnbounded(s.DischargingTime))
}

func TestStateJSON(t *testing.T) {
	s := State{Level: 0.42, Charging: false, ChargingTime: Unbounded, DischargingTime: 7500 * time.Millisecond}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":0.42,"charging":false,"charging_time_ms":null,"discharging_time_ms":7500}`, string(data))

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
