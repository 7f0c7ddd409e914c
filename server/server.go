// Package server exposes the pipeline over HTTP: trigger a run, poll its
// status, check health. One run at a time; a second trigger while a run is
// active gets 409.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"social-content-pipeline/config"
	"social-content-pipeline/pipeline"
	"social-content-pipeline/types"
)

// RunRequest is the POST /run body. Mode defaults to local; all other
// fields are optional overrides.
type RunRequest struct {
	Mode types.Mode `json:"mode"`
	types.LocalParams
	types.DriveParams
}

type statusResponse struct {
	State   string           `json:"state"`
	LastRun *types.RunResult `json:"last_run,omitempty"`
	LastErr string           `json:"last_error,omitempty"`
}

// Server serves the pipeline API.
type Server struct {
	cfg  *config.Config
	ctrl *pipeline.Controller
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	lastRun *types.RunResult
	lastErr string
}

func New(cfg *config.Config, ctrl *pipeline.Controller, log zerolog.Logger) *Server {
	return &Server{cfg: cfg, ctrl: ctrl, log: log.With().Str("component", "server").Logger()}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return s.logRequests(mux)
}

// ListenAndServe blocks serving the API on the configured address.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.cfg.Server.Addr).Msg("listening")
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	// An empty body means a default local run.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Mode == "" {
		req.Mode = types.ModeLocal
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.ctrl.Run(r.Context(), req.Mode, types.RunParams{Local: req.LocalParams, Drive: req.DriveParams})

	s.mu.Lock()
	s.running = false
	if err != nil {
		s.lastErr = err.Error()
		s.lastRun = nil
	} else {
		s.lastErr = ""
		s.lastRun = result
	}
	s.mu.Unlock()

	if err != nil {
		var runErr *types.RunError
		status := http.StatusInternalServerError
		if errors.As(err, &runErr) && runErr.Stage == "inputs" {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := statusResponse{State: "idle", LastRun: s.lastRun, LastErr: s.lastErr}
	if s.running {
		resp.State = "running"
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "social-content-pipeline",
		"run":     "POST /run",
		"status":  "GET /status",
		"health":  "GET /health",
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
