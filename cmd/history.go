package cmd

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	batteryapi "github.com/kilianp07/battsim/api/battery"
	"github.com/kilianp07/battsim/core/journal"
	"github.com/kilianp07/battsim/pkg/export"
)

var (
	historyKinds  []string
	historySince  time.Duration
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Export recorded battery events from the configured journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringSliceVar(&historyKinds, "kind", nil, "event kinds to include, e.g. levelchange")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only events newer than this, e.g. 1h")
	historyCmd.Flags().StringVar(&historyFormat, "format", "json", "output format: json or csv")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled() {
		return fmt.Errorf("no journal store configured")
	}
	q, err := batteryapi.ParseHistoryQuery(url.Values{"kind": historyKinds})
	if err != nil {
		return err
	}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	store, err := journal.NewStore(cfg.Journal.Store)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	events, err := store.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	return export.Write(cmd.OutOrStdout(), historyFormat, events)
}
