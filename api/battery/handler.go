// Package battery exposes the simulated battery over HTTP.
package battery

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	corebattery "github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/control"
	"github.com/kilianp07/battsim/core/journal"
	"github.com/kilianp07/battsim/core/simulator"
)

// NewHandler returns the battery API rooted at /api/battery. Mutating
// requests must carry "Bearer <token>" when token is non-empty. The history
// route is only mounted when store is non-nil.
func NewHandler(sim *simulator.Simulator, ctl *control.Controller, store journal.Store, token string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/battery", NewStateHandler(sim))
	mux.Handle("/api/battery/events", NewEventsHandler(sim))
	if store != nil {
		mux.Handle("/api/battery/history", NewHistoryHandler(store))
	}

	post := map[string]control.Action{
		"reset":     control.ActionReset,
		"simulate":  control.ActionSimulate,
		"charge":    control.ActionCharge,
		"discharge": control.ActionDischarge,
	}
	for path, action := range post {
		mux.Handle("/api/battery/"+path, requireToken(token, newActionHandler(sim, ctl, http.MethodPost, action)))
	}
	put := map[string]control.Action{
		"level":            control.ActionSetLevel,
		"charging":         control.ActionSetCharging,
		"charging_time":    control.ActionSetChargingTime,
		"discharging_time": control.ActionSetDischargingTime,
	}
	for path, action := range put {
		mux.Handle("/api/battery/"+path, requireToken(token, newActionHandler(sim, ctl, http.MethodPut, action)))
	}
	return mux
}

// NewStateHandler serves the current state via GET /api/battery.
func NewStateHandler(sim *simulator.Simulator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, sim.State())
	})
}

func newActionHandler(sim *simulator.Simulator, ctl *control.Controller, method string, action control.Action) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := control.Request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Action = action
		if err := ctl.Execute(req); err != nil {
			status := http.StatusInternalServerError
			if control.IsClientError(err) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		switch action {
		case control.ActionSimulate, control.ActionCharge, control.ActionDischarge:
			writeJSON(w, http.StatusAccepted, actionResponse{Action: action, State: sim.State()})
		default:
			writeJSON(w, http.StatusOK, sim.State())
		}
	})
}

type actionResponse struct {
	Action control.Action    `json:"action"`
	State  corebattery.State `json:"state"`
}

func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
