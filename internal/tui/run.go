package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/kilianp07/battsim/core/simulator"
)

// Run draws the gauge and redraws it on every event received by h. It
// returns nil on q, Esc or Ctrl-C, or when h is closed, and ctx.Err() when
// ctx ends. The caller owns the screen and finalizes it.
func Run(ctx context.Context, screen tcell.Screen, h *simulator.Handle) error {
	events := h.Subscribe()
	defer h.Unsubscribe(events)

	done := make(chan struct{})
	defer close(done)
	input := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case input <- ev:
			case <-done:
				return
			}
		}
	}()

	Draw(screen, h.State())
	screen.Show()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			Draw(screen, ev.State)
			screen.Show()
		case ev := <-input:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if isQuit(ev) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				Draw(screen, h.State())
				screen.Show()
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}
