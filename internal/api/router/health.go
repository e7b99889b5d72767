package router

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// healthHandler reports liveness and seconds since startup.
func healthHandler(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		resp := healthResponse{
			Status:    "ok",
			Timestamp: now.UTC().Format(time.RFC3339Nano),
			Uptime:    now.Sub(started).Seconds(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
