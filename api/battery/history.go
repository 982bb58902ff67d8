package battery

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	corebattery "github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/journal"
	"github.com/kilianp07/battsim/pkg/export"
)

// NewHistoryHandler serves recorded events via GET /api/battery/history.
//
// Query parameters: start and end (RFC 3339), kind (repeatable or comma
// separated event names) and format ("json" or "csv").
func NewHistoryHandler(store journal.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := ParseHistoryQuery(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format := r.URL.Query().Get("format")
		if format != "" && format != "json" && format != "csv" {
			http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
			return
		}
		events, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if format == "csv" {
			w.Header().Set("Content-Type", "text/csv")
		} else {
			w.Header().Set("Content-Type", "application/json")
		}
		_ = export.Write(w, format, events)
	})
}

// ParseHistoryQuery builds a journal query from URL values.
func ParseHistoryQuery(v url.Values) (journal.Query, error) {
	var q journal.Query
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = t
	}
	for _, raw := range v["kind"] {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			k, err := corebattery.ParseEventKind(name)
			if err != nil {
				return q, err
			}
			q.Kinds = append(q.Kinds, k)
		}
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, fmt.Errorf("end before start")
	}
	return q, nil
}
