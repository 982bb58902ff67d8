package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kilianp07/battsim/infra/logger"
	"github.com/kilianp07/battsim/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sequence and render the battery as a terminal gauge",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The gauge owns the terminal; logs would corrupt it.
	logger.SetOutput(io.Discard)
	sim, err := newLocalSimulator(cfg)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	h := sim.Acquire()
	defer h.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = sim.Simulate(ctx)
	}()
	if err := tui.Run(ctx, screen, h); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
