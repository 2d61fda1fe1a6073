// Package observability exposes operational counters in Prometheus text
// format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Metrics tracks operational metrics for product checks.
type Metrics struct {
	// Page metrics
	FetchesTotal    atomic.Int64
	FetchesFailed   atomic.Int64
	BytesDownloaded atomic.Int64

	// Detector metrics
	ProductPages    atomic.Int64
	NonProductPages atomic.Int64

	// Extraction metrics
	ScrapesTotal    atomic.Int64
	ScrapesEmpty    atomic.Int64
	PayloadRejected atomic.Int64

	// Analysis metrics
	AnalysesTotal       atomic.Int64
	AnalysesFailed      atomic.Int64
	AnalysesTimedOut    atomic.Int64
	LabelEcoFriendly    atomic.Int64
	LabelModerate       atomic.Int64
	LabelNotEcoFriendly atomic.Int64
	LabelOther          atomic.Int64

	// Storage metrics
	AnalysesSaved atomic.Int64
	StorageErrors atomic.Int64

	// Check metrics
	ChecksTotal    atomic.Int64
	ChecksFailed   atomic.Int64
	ChecksRejected atomic.Int64
	ActiveChecks   atomic.Int32

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// RecordLabel counts an analysis by its label.
func (m *Metrics) RecordLabel(label string) {
	switch label {
	case types.LabelEcoFriendly:
		m.LabelEcoFriendly.Add(1)
	case types.LabelModerate:
		m.LabelModerate.Add(1)
	case types.LabelNotEcoFriendly:
		m.LabelNotEcoFriendly.Add(1)
	default:
		m.LabelOther.Add(1)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"ecocheck_fetches_total", "Total pages fetched", "counter", m.FetchesTotal.Load()},
		{"ecocheck_fetches_failed_total", "Total failed page fetches", "counter", m.FetchesFailed.Load()},
		{"ecocheck_bytes_downloaded_total", "Total page bytes downloaded", "counter", m.BytesDownloaded.Load()},
		{"ecocheck_product_pages_total", "Pages the detector recognised as product pages", "counter", m.ProductPages.Load()},
		{"ecocheck_non_product_pages_total", "Pages the detector did not recognise", "counter", m.NonProductPages.Load()},
		{"ecocheck_scrapes_total", "Total extractions", "counter", m.ScrapesTotal.Load()},
		{"ecocheck_scrapes_empty_total", "Extractions that found no product information", "counter", m.ScrapesEmpty.Load()},
		{"ecocheck_payload_rejected_total", "Extractions rejected for size", "counter", m.PayloadRejected.Load()},
		{"ecocheck_analyses_total", "Total analysis calls", "counter", m.AnalysesTotal.Load()},
		{"ecocheck_analyses_failed_total", "Total failed analysis calls", "counter", m.AnalysesFailed.Load()},
		{"ecocheck_analyses_timed_out_total", "Analysis calls that hit the deadline", "counter", m.AnalysesTimedOut.Load()},
		{"ecocheck_label_eco_friendly_total", "Analyses labelled Eco-Friendly", "counter", m.LabelEcoFriendly.Load()},
		{"ecocheck_label_moderate_total", "Analyses labelled Moderate", "counter", m.LabelModerate.Load()},
		{"ecocheck_label_not_eco_friendly_total", "Analyses labelled Not Eco-Friendly", "counter", m.LabelNotEcoFriendly.Load()},
		{"ecocheck_label_other_total", "Analyses with an unrecognised label", "counter", m.LabelOther.Load()},
		{"ecocheck_analyses_saved_total", "Analyses persisted", "counter", m.AnalysesSaved.Load()},
		{"ecocheck_storage_errors_total", "Storage failures", "counter", m.StorageErrors.Load()},
		{"ecocheck_checks_total", "Total product checks", "counter", m.ChecksTotal.Load()},
		{"ecocheck_checks_failed_total", "Failed product checks", "counter", m.ChecksFailed.Load()},
		{"ecocheck_checks_rejected_total", "Checks refused while another was running", "counter", m.ChecksRejected.Load()},
		{"ecocheck_active_checks", "Checks currently running", "gauge", int64(m.ActiveChecks.Load())},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"fetches_total":          m.FetchesTotal.Load(),
		"fetches_failed":         m.FetchesFailed.Load(),
		"bytes_downloaded":       m.BytesDownloaded.Load(),
		"product_pages":          m.ProductPages.Load(),
		"non_product_pages":      m.NonProductPages.Load(),
		"scrapes_total":          m.ScrapesTotal.Load(),
		"scrapes_empty":          m.ScrapesEmpty.Load(),
		"payload_rejected":       m.PayloadRejected.Load(),
		"analyses_total":         m.AnalysesTotal.Load(),
		"analyses_failed":        m.AnalysesFailed.Load(),
		"analyses_timed_out":     m.AnalysesTimedOut.Load(),
		"label_eco_friendly":     m.LabelEcoFriendly.Load(),
		"label_moderate":         m.LabelModerate.Load(),
		"label_not_eco_friendly": m.LabelNotEcoFriendly.Load(),
		"label_other":            m.LabelOther.Load(),
		"analyses_saved":         m.AnalysesSaved.Load(),
		"storage_errors":         m.StorageErrors.Load(),
		"checks_total":           m.ChecksTotal.Load(),
		"checks_failed":          m.ChecksFailed.Load(),
		"checks_rejected":        m.ChecksRejected.Load(),
		"active_checks":          int64(m.ActiveChecks.Load()),
	}
}
