// Package journal persists battery change events so the history of a
// simulation can be queried after the fact.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/battsim/core/battery"
)

// Query defines filters for retrieving events. Zero values match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Kinds []battery.EventKind
}

// Match reports whether ev passes the filters.
func (q Query) Match(ev battery.Event) bool {
	if !q.Start.IsZero() && ev.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && ev.Time.After(q.End) {
		return false
	}
	if len(q.Kinds) == 0 {
		return true
	}
	for _, k := range q.Kinds {
		if k == ev.Kind {
			return true
		}
	}
	return false
}

// Store persists events and supports querying.
type Store interface {
	Append(ctx context.Context, ev battery.Event) error
	Query(ctx context.Context, q Query) ([]battery.Event, error)
	Close() error
}
