// Package dashboard serves a small status page for a running EcoCheck API:
// check counters, the last analysis and a form to check a URL.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// StatsProvider provides check statistics.
type StatsProvider interface {
	Snapshot() map[string]int64
}

// Dashboard serves the web dashboard.
type Dashboard struct {
	provider StatsProvider
	started  time.Time
	logger   *slog.Logger
}

// New creates a dashboard backed by provider.
func New(provider StatsProvider, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		provider: provider,
		started:  time.Now(),
		logger:   logger.With("component", "dashboard"),
	}
}

// Mount registers the page at / and the stats feed at /api/stats.
func (d *Dashboard) Mount(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", d.handleDashboard)
	mux.HandleFunc("GET /api/stats", d.handleAPIStats)
	d.logger.Debug("dashboard mounted")
}

func (d *Dashboard) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

func (d *Dashboard) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(d.started).Round(time.Second).String(),
	}
	if d.provider != nil {
		for k, v := range d.provider.Snapshot() {
			stats[k] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		d.logger.Error("failed to encode stats", "error", err)
	}
}
