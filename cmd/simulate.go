package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/battsim/config"
	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/simulator"
	"github.com/kilianp07/battsim/infra/logger"
	"github.com/kilianp07/battsim/internal/tui"
)

var (
	rampDuration time.Duration
	rampSteps    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the discharge/charge/discharge sequence and log every change",
	RunE:  runSimulate,
}

func init() {
	for _, c := range []*cobra.Command{simulateCmd, watchCmd} {
		c.Flags().DurationVar(&rampDuration, "duration", 0, "duration of each ramp (default from config)")
		c.Flags().IntVar(&rampSteps, "steps", 0, "steps per ramp (default from config)")
	}
	rootCmd.AddCommand(simulateCmd)
}

// newLocalSimulator builds a simulator from the config, with the command
// line overrides applied.
func newLocalSimulator(cfg *config.Config) (*simulator.Simulator, error) {
	d, steps := cfg.Simulator.DefaultDuration(), cfg.Simulator.DefaultSteps
	if rampDuration != 0 {
		d = rampDuration
	}
	if rampSteps != 0 {
		steps = rampSteps
	}
	return simulator.New(
		simulator.WithLogger(logger.New("simulator")),
		simulator.WithDefaults(d, steps),
	)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sim, err := newLocalSimulator(cfg)
	if err != nil {
		return err
	}
	h := sim.Acquire()
	defer h.Close()

	out := cmd.OutOrStdout()
	printEvent := func(_ *simulator.Handle, ev battery.Event) {
		st := ev.State
		fmt.Fprintf(out, "%s %-22s level=%.2f charging=%t charging_time=%s discharging_time=%s\n",
			ev.Time.Format(time.TimeOnly), ev.Kind, st.Level, st.Charging,
			tui.FormatCountdown(st.ChargingTime), tui.FormatCountdown(st.DischargingTime))
	}
	for _, kind := range battery.EventKinds {
		if _, err := h.AddListener(kind, printEvent); err != nil {
			return err
		}
	}

	d, steps := sim.Defaults()
	log := logger.New("simulate")
	log.Infof("running sequence: %d steps over %s per ramp", steps, d)
	if err := sim.Simulate(ctx); err != nil {
		return err
	}
	log.Infof("sequence complete")
	return nil
}
