package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
	"git.home.luguber.info/inful/texdoc/internal/version"
)

// HealthStatus is the overall daemon health.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// StatusResponse is served on /status and /healthz.
type StatusResponse struct {
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version"`
	Uptime     string       `json:"uptime"`
	Runs       int          `json:"runs"`
	LastStatus string       `json:"last_status,omitempty"`
	LastOutput string       `json:"last_output,omitempty"`
	LastJobID  string       `json:"last_job_id,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	LastAt     *time.Time   `json:"last_at,omitempty"`
}

// Handler returns the daemon's HTTP routes.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	if d.cfg.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(d.cfg.Registry))
	}
	mux.HandleFunc("GET /healthz", d.handleStatus)
	mux.HandleFunc("GET /status", d.handleStatus)
	return mux
}

func (d *Daemon) status() StatusResponse {
	snap := d.Snapshot()
	resp := StatusResponse{
		Status:  HealthStatusHealthy,
		Version: version.Resolved(),
		Uptime:  snap.Uptime.Round(time.Second).String(),
		Runs:    snap.Runs,
	}
	if snap.Err != nil {
		resp.Status = HealthStatusDegraded
		resp.LastError = snap.Err.Error()
	}
	if snap.Last != nil {
		resp.LastStatus = string(snap.Last.Status)
		resp.LastOutput = snap.Last.Output
		resp.LastJobID = snap.Last.JobID
		at := snap.Last.EndTime
		resp.LastAt = &at
	}
	return resp
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := d.status()
	w.Header().Set("Content-Type", "application/json")
	if resp.Status != HealthStatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("Failed to write status response", logfields.Error(err))
	}
}
