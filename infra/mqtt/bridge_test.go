package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/simulator"
)

func TestBridgeMirrorsEvents(t *testing.T) {
	sim, err := simulator.New()
	require.NoError(t, err)
	h := sim.Acquire()
	pub := NewMemoryPublisher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewBridge(pub, nil).Run(ctx, h) }()

	require.Eventually(t, func() bool { return len(pub.States()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, battery.FullState(), pub.States()[0])

	sim.SetLevel(0.4)
	sim.SetCharging(false)

	require.Eventually(t, func() bool { return len(pub.Events()) == 2 }, time.Second, time.Millisecond)
	evs := pub.Events()
	assert.Equal(t, battery.LevelChange, evs[0].Kind)
	assert.Equal(t, battery.ChargingChange, evs[1].Kind)

	require.Eventually(t, func() bool { return len(pub.States()) == 3 }, time.Second, time.Millisecond)
	last, ok := pub.LastState()
	require.True(t, ok)
	assert.Equal(t, 0.4, last.Level)
	assert.False(t, last.Charging)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestBridgeStopsWhenHandleCloses(t *testing.T) {
	sim, err := simulator.New()
	require.NoError(t, err)
	h := sim.Acquire()
	pub := NewMemoryPublisher()
	pub.Fail = true

	done := make(chan error, 1)
	go func() { done <- NewBridge(pub, nil).Run(context.Background(), h) }()

	sim.SetLevel(0.9)
	h.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop after handle was closed")
	}
}
