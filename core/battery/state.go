package battery

import (
	"encoding/json"
	"math"
	"time"
)

// Unbounded marks a countdown that has no meaningful finite value, for
// example the charging time while the battery is discharging.
const Unbounded = time.Duration(math.MaxInt64)

// State is a snapshot of the simulated battery.
type State struct {
	Level           float64       // charge level in [0,1], two decimals
	Charging        bool          // true while connected to a charger
	ChargingTime    time.Duration // time until full, or Unbounded
	DischargingTime time.Duration // time until empty, or Unbounded
}

// FullState returns the canonical idle state of a fully charged battery.
func FullState() State {
	return State{
		Level:           1,
		Charging:        true,
		ChargingTime:    0,
		DischargingTime: Unbounded,
	}
}

// Round rounds the level half-up to two decimals.
func Round(level float64) float64 {
	return math.Floor(level*100+0.5) / 100
}

// IsUnbounded reports whether the countdown carries the Unbounded sentinel.
func IsUnbounded(d time.Duration) bool { return d == Unbounded }

type stateJSON struct {
	Level             float64 `json:"level"`
	Charging          bool    `json:"charging"`
	ChargingTimeMS    *int64  `json:"charging_time_ms"`
	DischargingTimeMS *int64  `json:"discharging_time_ms"`
}

// MarshalJSON encodes countdowns in milliseconds, Unbounded as null.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Level:             s.Level,
		Charging:          s.Charging,
		ChargingTimeMS:    countdownMS(s.ChargingTime),
		DischargingTimeMS: countdownMS(s.DischargingTime),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Level = raw.Level
	s.Charging = raw.Charging
	s.ChargingTime = CountdownFromMS(raw.ChargingTimeMS)
	s.DischargingTime = CountdownFromMS(raw.DischargingTimeMS)
	return nil
}

func countdownMS(d time.Duration) *int64 {
	if IsUnbounded(d) {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

// CountdownFromMS converts an optional millisecond value to a countdown.
// A nil value yields Unbounded.
func CountdownFromMS(ms *int64) time.Duration {
	if ms == nil {
		return Unbounded
	}
	return time.Duration(*ms) * time.Millisecond
}
