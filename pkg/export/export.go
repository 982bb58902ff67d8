// Package export writes recorded battery events in JSON or CSV form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/battsim/core/battery"
)

// Header is the CSV column row written by WriteCSV.
var Header = []string{"time", "type", "level", "charging", "charging_time_ms", "discharging_time_ms"}

// WriteJSON writes the events to w as a JSON array.
func WriteJSON(w io.Writer, events []battery.Event) error {
	if events == nil {
		events = []battery.Event{}
	}
	return json.NewEncoder(w).Encode(events)
}

// WriteCSV writes the events to w with one row per event. Unbounded
// countdowns are written as empty cells.
func WriteCSV(w io.Writer, events []battery.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{
			e.Time.Format(time.RFC3339Nano),
			e.Kind.String(),
			strconv.FormatFloat(e.State.Level, 'f', -1, 64),
			strconv.FormatBool(e.State.Charging),
			millis(e.State.ChargingTime),
			millis(e.State.DischargingTime),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format, "json" or "csv".
func Write(w io.Writer, format string, events []battery.Event) error {
	switch format {
	case "", "json":
		return WriteJSON(w, events)
	case "csv":
		return WriteCSV(w, events)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func millis(d time.Duration) string {
	if battery.IsUnbounded(d) {
		return ""
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
