package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource provides the most recent scan report.
type ReportSource interface {
	Latest() (report.Report, bool)
}

// Server exposes health, readiness, metrics, and the latest ranked report.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/approaches routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/approaches", handleApproaches(reports))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleApproaches serves the latest report. The optional limit query
// parameter trims the listing further; it never widens it. limit=0 yields
// an empty listing.
func handleApproaches(reports ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := -1
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "limit must be a non-negative integer",
				})
				return
			}
			limit = n
		}

		latest, ok := reports.Latest()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "no scan has completed yet",
			})
			return
		}
		if limit >= 0 {
			latest = latest.Truncate(limit)
		}
		writeJSON(w, http.StatusOK, latest)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
