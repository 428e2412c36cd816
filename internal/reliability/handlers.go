package reliability

import (
	"encoding/json"
	"net/http"
)

// HealthzHandler serves a point-in-time HealthReport, always 200 OK; callers
// read the status/db_ok/kv_ok fields rather than the HTTP status code, since
// a transient KV or scheduler hiccup shouldn't flap a load balancer.
func (h *HealthService) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Report(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// ReadyzHandler reports 503 when the database is unreachable, the one
// dependency this process cannot serve any request without.
func (h *HealthService) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Report(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !report.DBOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
