// Package tui renders the simulated battery as a terminal gauge.
package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kilianp07/battsim/core/battery"
)

const (
	maxBarWidth = 50
	filledRune  = '█'
	emptyRune   = '░'
)

var (
	labelStyle = tcell.StyleDefault.Bold(true)
	dimStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// BarWidth returns the number of cells between the brackets of the bar on a
// screen of the given width.
func BarWidth(screenWidth int) int {
	w := screenWidth - 2
	if w > maxBarWidth {
		w = maxBarWidth
	}
	if w < 0 {
		w = 0
	}
	return w
}

// Filled returns how many bar cells represent level.
func Filled(level float64, width int) int {
	n := int(math.Round(level * float64(width)))
	return min(max(n, 0), width)
}

// Draw renders st on screen. It clears the screen but does not call Show.
func Draw(screen tcell.Screen, st battery.State) {
	screen.Clear()
	width, _ := screen.Size()

	status := "discharging"
	if st.Charging {
		status = "charging"
	}
	drawText(screen, 0, 0, labelStyle, fmt.Sprintf("Battery %3d%%", int(math.Round(st.Level*100))))
	drawText(screen, 14, 0, statusStyle(st.Charging), status)

	bar := BarWidth(width)
	filled := Filled(st.Level, bar)
	style := levelStyle(st.Level)
	screen.SetContent(0, 1, '[', nil, tcell.StyleDefault)
	for i := 0; i < bar; i++ {
		r, s := emptyRune, dimStyle
		if i < filled {
			r, s = filledRune, style
		}
		screen.SetContent(1+i, 1, r, nil, s)
	}
	screen.SetContent(1+bar, 1, ']', nil, tcell.StyleDefault)

	drawText(screen, 0, 3, tcell.StyleDefault, "charging time:    "+FormatCountdown(st.ChargingTime))
	drawText(screen, 0, 4, tcell.StyleDefault, "discharging time: "+FormatCountdown(st.DischargingTime))
	drawText(screen, 0, 6, dimStyle, "q to quit")
}

// FormatCountdown renders a countdown, "∞" when unbounded.
func FormatCountdown(d time.Duration) string {
	if battery.IsUnbounded(d) {
		return "∞"
	}
	return d.Round(100 * time.Millisecond).String()
}

func levelStyle(level float64) tcell.Style {
	switch {
	case level > 0.5:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case level > 0.2:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
}

func statusStyle(charging bool) tcell.Style {
	if charging {
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorYellow)
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
