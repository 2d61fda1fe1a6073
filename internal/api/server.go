// Package api exposes product checks over a small JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/EcoCheck/internal/checker"
	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/report"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// Checker is the check flow the API drives.
type Checker interface {
	Inspect(ctx context.Context, target string) (*checker.Inspection, error)
	Analyze(ctx context.Context, cleanedText string) (*types.AnalysisResult, error)
	Check(ctx context.Context, target string) (*checker.Report, error)
}

// Store is the persistence the API reads and writes directly.
type Store interface {
	GetCredential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, key string) error
	LoadLastAnalysis(ctx context.Context) (*types.AnalysisResult, error)
	ClearOldAnalyses(ctx context.Context) (int, error)
}

// Server provides a REST API for product checks.
type Server struct {
	mux     *http.ServeMux
	port    int
	checker Checker
	store   Store
	metrics http.Handler
	extras  []Mounter
	srv     *http.Server
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// Mounter adds its own routes to the server mux.
type Mounter interface {
	Mount(mux *http.ServeMux)
}

// WithMount lets m register additional routes, such as the dashboard.
func WithMount(m Mounter) Option {
	return func(s *Server) { s.extras = append(s.extras, m) }
}

// NewServer creates a new API server.
func NewServer(port int, c Checker, store Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		port:    port,
		checker: c,
		store:   store,
		logger:  logger.With("component", "api_server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with request IDs applied.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Start starts the API server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	// Health
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Checks
	s.mux.HandleFunc("POST /api/scrape", s.handleScrape)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/check", s.handleCheck)

	// Stored state
	s.mux.HandleFunc("GET /api/key", s.handleGetKey)
	s.mux.HandleFunc("PUT /api/key", s.handleSetKey)
	s.mux.HandleFunc("GET /api/last", s.handleLast)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	for _, m := range s.extras {
		m.Mount(s.mux)
	}
}

// analysisView is an analysis together with its display values.
type analysisView struct {
	*types.AnalysisResult
	Display display `json:"display"`
}

type display struct {
	Label      types.LabelStyle      `json:"label"`
	Confidence string                `json:"confidence"`
	Summary    string                `json:"summary"`
	Breakdown  []types.BreakdownItem `json:"breakdown"`
}

func newAnalysisView(r *types.AnalysisResult) *analysisView {
	if r == nil {
		return nil
	}
	return &analysisView{
		AnalysisResult: r,
		Display: display{
			Label:      report.FormatLabel(r.Label),
			Confidence: report.FormatConfidence(r.Confidence),
			Summary:    report.FormatSummary(r.Summary),
			Breakdown:  report.FormatBreakdown(r.Explanation),
		},
	}
}

type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var body urlRequest
	if !s.decode(w, r, &body) {
		return
	}
	insp, err := s.checker.Inspect(r.Context(), body.URL)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, insp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.checker.Analyze(r.Context(), body.Text)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newAnalysisView(res))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body urlRequest
	if !s.decode(w, r, &body) {
		return
	}
	rep, err := s.checker.Check(r.Context(), body.URL)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"url":         rep.URL,
		"productPage": rep.ProductPage,
		"matched":     rep.Matched,
		"scrape":      rep.Scrape,
		"analysis":    newAnalysisView(rep.Analysis),
		"saved":       rep.Saved,
		"durationMs":  rep.Duration.Milliseconds(),
	})
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.store.GetCredential(r.Context())
	if err != nil && !errors.Is(err, types.ErrCredentialMissing) {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"configured": key != "",
		"key":        MaskKey(key),
	})
}

func (s *Server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.store.SaveCredential(r.Context(), body.Key); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.LoadLastAnalysis(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newAnalysisView(res))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.ClearOldAnalyses(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"removed": n})
}

// MaskKey hides all but the last four characters of a credential.
func MaskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		if len(runes) == 0 {
			return ""
		}
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var aerr *types.AnalysisError
	var ferr *types.FetchError
	switch {
	case errors.Is(err, types.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidURL),
		errors.Is(err, types.ErrInvalidCredential),
		errors.Is(err, types.ErrCredentialTooLong),
		errors.Is(err, types.ErrNoProductText):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrCredentialMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrNoProductInfo),
		errors.Is(err, types.ErrPageNotReady),
		errors.Is(err, types.ErrInvalidAnalysis):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrAnalysisTimeout),
		errors.Is(err, types.ErrCheckTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &aerr), errors.As(err, &ferr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", requestID(r), "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "request_id", requestID(r), "error", err)
	}
	s.jsonResponse(w, status, map[string]string{
		"error":     types.UserMessage(err),
		"requestId": requestID(r),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type requestIDKey struct{}

// withRequestID tags every request with an ID, reusing X-Request-ID when
// the caller sends one.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}
