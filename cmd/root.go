package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/battsim/app"
	"github.com/kilianp07/battsim/config"
	"github.com/kilianp07/battsim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "battsim",
	Short: "Battery status mock service",
	Long: `battsim simulates a device battery: level, charging state and the two
countdowns. It serves the state over HTTP, mirrors it on MQTT and runs
scripted discharge/charge sequences.`,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. When the default file is absent
// the built-in defaults are used. Logging is configured from the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	_, statErr := os.Stat(cfgPath)
	flag := cmd.Flag("config")
	if errors.Is(statErr, os.ErrNotExist) && (flag == nil || !flag.Changed) {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
