package battery

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies which battery field changed.
type EventKind int

const (
	LevelChange EventKind = iota
	ChargingChange
	ChargingTimeChange
	DischargingTimeChange
)

// NumEventKinds is the number of defined event kinds.
const NumEventKinds = 4

// EventKinds lists every kind in declaration order.
var EventKinds = [NumEventKinds]EventKind{
	LevelChange,
	ChargingChange,
	ChargingTimeChange,
	DischargingTimeChange,
}

// String returns the platform event name.
func (k EventKind) String() string {
	switch k {
	case LevelChange:
		return "levelchange"
	case ChargingChange:
		return "chargingchange"
	case ChargingTimeChange:
		return "chargingtimechange"
	case DischargingTimeChange:
		return "dischargingtimechange"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k EventKind) Valid() bool { return k >= 0 && k < NumEventKinds }

// ParseEventKind maps a platform event name back to its kind.
func ParseEventKind(name string) (EventKind, error) {
	for _, k := range EventKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}

// Event is emitted once per confirmed field change. State is the snapshot
// taken right after the change.
type Event struct {
	Kind  EventKind
	State State
	Time  time.Time
}

// MarshalJSON encodes the event with its kind name.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string    `json:"type"`
		State State     `json:"state"`
		Time  time.Time `json:"time"`
	}{Type: e.Kind.String(), State: e.State, Time: e.Time})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string    `json:"type"`
		State State     `json:"state"`
		Time  time.Time `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseEventKind(raw.Type)
	if err != nil {
		return err
	}
	e.Kind, e.State, e.Time = kind, raw.State, raw.Time
	return nil
}

// Direction is the direction of a level ramp.
type Direction int

const (
	Discharging Direction = iota
	Charging
)

func (d Direction) String() string {
	switch d {
	case Discharging:
		return "discharging"
	case Charging:
		return "charging"
	default:
		return "unknown"
	}
}

// Bound is the level a ramp in this direction snaps to on completion.
func (d Direction) Bound() float64 {
	if d == Charging {
		return 1
	}
	return 0
}

// Clamp limits level to the legal bound of the direction.
func (d Direction) Clamp(level float64) float64 {
	if d == Charging {
		if level > 1 {
			return 1
		}
		return level
	}
	if level < 0 {
		return 0
	}
	return level
}
