package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/internal/tui"
)

var stateURL string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the battery state of a running service",
	RunE:  runState,
}

func init() {
	stateCmd.Flags().StringVar(&stateURL, "url", "", "base URL of the service (default derived from http.address)")
	rootCmd.AddCommand(stateCmd)
}

// baseURL turns a listen address such as ":8080" into a client URL.
func baseURL(address string) string {
	if strings.HasPrefix(address, ":") {
		return "http://localhost" + address
	}
	if !strings.Contains(address, "://") {
		return "http://" + address
	}
	return address
}

func runState(cmd *cobra.Command, args []string) error {
	url := stateURL
	if url == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url = baseURL(cfg.HTTP.Address)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimSuffix(url, "/")+"/api/battery", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get state: unexpected status %s", resp.Status)
	}
	var st battery.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "level:            %.0f%%\n", st.Level*100)
	fmt.Fprintf(out, "charging:         %t\n", st.Charging)
	fmt.Fprintf(out, "charging time:    %s\n", tui.FormatCountdown(st.ChargingTime))
	fmt.Fprintf(out, "discharging time: %s\n", tui.FormatCountdown(st.DischargingTime))
	return nil
}
