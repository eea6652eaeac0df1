// Package httpapi exposes the Brain service's external HTTP surface: a
// health check and a manual scan trigger, served on a bare
// net/http.ServeMux rather than a web framework.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/georgenoob1234/freshline-brain/internal/logging"
)

// ScanTrigger is the subset of the orchestrator this package depends on,
// kept narrow so handlers are trivially testable against a fake.
type ScanTrigger interface {
	TriggerScan(ctx context.Context, grams float64)
}

type triggerScanRequest struct {
	WeightGrams float64 `json:"weight_grams"`
}

// NewHealthMux builds the mux served on Settings.HealthAddr: /healthz and
// /trigger-scan share one listener rather than a third one per concern.
func NewHealthMux(orch ScanTrigger, logger logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/trigger-scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req triggerScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.WeightGrams <= 0 {
			writeError(w, http.StatusBadRequest, "weight_grams must be a positive number")
			return
		}
		orch.TriggerScan(r.Context(), req.WeightGrams)
		logger.Info(r.Context(), "manual scan trigger accepted", "weight_grams", req.WeightGrams)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})
	return mux
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": msg})
}
