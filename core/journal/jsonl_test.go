package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battsim/core/battery"
)

func event(kind battery.EventKind, level float64, ts time.Time) battery.Event {
	st := battery.FullState()
	st.Level = level
	return battery.Event{Kind: kind, State: st, Time: ts}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, event(battery.LevelChange, 0.9, base)))
	require.NoError(t, store.Append(ctx, event(battery.ChargingChange, 0.9, base.Add(time.Second))))
	require.NoError(t, store.Append(ctx, event(battery.LevelChange, 0.8, base.Add(2*time.Second))))

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, battery.ChargingChange, all[1].Kind)

	levels, err := store.Query(ctx, Query{Kinds: []battery.EventKind{battery.LevelChange}})
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.InDelta(t, 0.8, levels[1].State.Level, 1e-9)

	window, err := store.Query(ctx, Query{Start: base.Add(time.Second), End: base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.True(t, window[0].Time.Equal(base.Add(time.Second)))
}

func TestQuery_Match(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := event(battery.DischargingTimeChange, 0.5, base)

	assert.True(t, Query{}.Match(ev))
	assert.False(t, Query{Start: base.Add(time.Millisecond)}.Match(ev))
	assert.False(t, Query{End: base.Add(-time.Millisecond)}.Match(ev))
	assert.False(t, Query{Kinds: []battery.EventKind{battery.LevelChange}}.Match(ev))
	assert.True(t, Query{Kinds: []battery.EventKind{battery.LevelChange, battery.DischargingTimeChange}}.Match(ev))
}
