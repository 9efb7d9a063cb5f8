// Package api provides the HTTP API server for FilingSense.
//
// It exposes on-demand filing analysis, health and credential status,
// Prometheus metrics, and a WebSocket stream of live monitor results.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/seenimoa/filingsense/internal/config"
	"github.com/seenimoa/filingsense/internal/metrics"
	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
	"github.com/seenimoa/filingsense/web"
)

// maxAnalyzeBody caps POST /api/v1/analyze bodies. Full submissions with
// exhibits are rarely above a few megabytes; base64 adds a third.
const maxAnalyzeBody = 64 << 20

// Analyzer is the analysis engine behind POST /api/v1/analyze.
type Analyzer interface {
	Analyze(event models.FilingEvent) models.AnalysisResult
}

// Options configures a Server.
type Options struct {
	Config   *config.Config
	Analyzer Analyzer
	Metrics  *metrics.Recorder
	Logger   zerolog.Logger
	Version  string
	// DisableUI turns off the embedded dashboard at /.
	DisableUI bool
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer Analyzer
	metrics  *metrics.Recorder
	wsHub    *WSHub
	log      zerolog.Logger
	version  string
	serveUI  bool // when true, serve the embedded dashboard at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	log := opts.Logger.With().Str("component", "api").Logger()
	s := &Server{
		cfg:      opts.Config,
		analyzer: opts.Analyzer,
		metrics:  opts.Metrics,
		wsHub:    NewWSHub(log),
		log:      log,
		version:  opts.Version,
		serveUI:  !opts.DisableUI,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub; it doubles as a report.Reporter.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config/keys", s.handleGetConfigKeys)
		r.With(middleware.Timeout(60*time.Second)).Post("/analyze", s.handleAnalyze)
		r.Get("/ws", s.handleWebSocket)
	})

	if s.serveUI {
		s.mountUI(r, web.StaticFS())
	}

	return r
}

// mountUI serves the embedded dashboard. Unknown paths are 404s.
func (s *Server) mountUI(r chi.Router, static fs.FS) {
	fileServer := http.FileServerFS(static)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" {
			name = "index.html"
		}
		f, err := static.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		f.Close()

		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	EDGARStatus string `json:"edgar_status"`
	TimeET      string `json:"time_et"`
	WSClients   int    `json:"ws_clients"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := utils.NowET()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthStatus{
			Status:      "ok",
			Version:     s.version,
			EDGARStatus: utils.EDGARStatus(now),
			TimeET:      utils.FormatDateTimeET(now),
			WSClients:   s.wsHub.ClientCount(),
		},
	})
}

// handleAnalyze runs the analyzer over a FilingEvent posted as JSON.
// Document content is base64 encoded.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not configured")
		return
	}

	var event models.FilingEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody)).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if event.SubmissionType == "" {
		writeError(w, http.StatusBadRequest, "submission_type is required")
		return
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	start := time.Now()
	result := s.analyzer.Analyze(event)
	if s.metrics != nil {
		s.metrics.ObserveDuration("analyze", start)
		s.metrics.RecordAnalyzed(event.SubmissionType, string(result.Sentiment))
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("accession", event.Accession).
		Str("sentiment", string(result.Sentiment)).
		Msg("analyzed posted filing")

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

// handleGetConfigKeys returns the status of outbound identities and secrets.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckCredentials(s.cfg),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
