// Package server exposes single-player analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/pable/susscan/internal/model"
	"github.com/pable/susscan/internal/scanner"
)

// DefaultOrigins are allowed when CORS_ORIGINS is unset or blank.
var DefaultOrigins = []string{
	"http://localhost:3000", "http://127.0.0.1:3000",
	"http://localhost:5173", "http://127.0.0.1:5173",
}

const shutdownTimeout = 10 * time.Second

// Analyzer runs the pipeline for one player.
type Analyzer interface {
	Analyze(ctx context.Context, username string, months int) (*model.PlayerMetrics, error)
}

// Recorder persists scan results. Optional.
type Recorder interface {
	SaveScan(m *model.PlayerMetrics, scannedAt time.Time) (int64, error)
}

// Options configures a Server.
type Options struct {
	Origins []string
	// Recorder, when set, stores every successful scan.
	Recorder Recorder
}

// Server serves /health and /scan.
type Server struct {
	analyzer Analyzer
	opts     Options
	log      zerolog.Logger
}

// New returns a Server. Empty Origins fall back to DefaultOrigins.
func New(a Analyzer, opts Options, log zerolog.Logger) *Server {
	if len(opts.Origins) == 0 {
		opts.Origins = DefaultOrigins
	}
	return &Server{analyzer: a, opts: opts, log: log}
}

// ParseOrigins splits a comma-separated origin list, dropping blanks.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type scanRequest struct {
	Username       string `json:"username"`
	LookbackMonths int    `json:"lookback_months,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /scan", s.handleScan)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return RequestID(s.log)(c.Handler(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Strs("origins", s.opts.Origins).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	s.log.Info().Msg("server stopped gracefully")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: scanner.ErrEmptyUsername.Error()})
		return
	}

	m, err := s.analyzer.Analyze(r.Context(), username, req.LookbackMonths)
	if errors.Is(err, scanner.ErrEmptyUsername) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("analysis failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "analysis failed: " + err.Error()})
		return
	}

	if s.opts.Recorder != nil {
		if _, err := s.opts.Recorder.SaveScan(m, time.Now()); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("failed to record scan")
		}
	}
	writeJSON(w, http.StatusOK, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
