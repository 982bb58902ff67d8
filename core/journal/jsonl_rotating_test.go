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

func TestRotatingJSONLStore_Query(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "events.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), event(battery.LevelChange, 1-float64(i)/10, now)))
	}
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.InDelta(t, 0.6, out[4].State.Level, 1e-9)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// Records are about 130 bytes, so 12000 of them exceed 1 MB.
	ev := event(battery.LevelChange, 0.5, time.Now().UTC())
	for i := 0; i < 12000; i++ {
		require.NoError(t, store.Append(context.Background(), ev))
	}
	backups, err := filepath.Glob(filepath.Join(filepath.Dir(path), "events-*.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups)

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 12000)
}
