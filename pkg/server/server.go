// Package server exposes the question answering pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/usecase/ask"
	"github.com/gema-dev/gema/pkg/utils/logging"
	"golang.org/x/sync/semaphore"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer    string              `json:"answer"`
	Sources   []model.Source      `json:"sources"`
	State     model.TerminalState `json:"state"`
	Verified  bool                `json:"verified"`
	Disclosed bool                `json:"disclosed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server handles chat requests against a single ask pipeline. A
// semaphore bounds in-flight generations so a burst of questions
// cannot pile up LLM calls.
type Server struct {
	pipeline *ask.UseCase
	sem      *semaphore.Weighted
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithMaxConcurrent sets the number of chat requests served at once.
func WithMaxConcurrent(n int64) Option {
	return func(s *Server) {
		s.sem = semaphore.NewWeighted(n)
	}
}

// New builds an HTTP server around the ask pipeline.
func New(pipeline *ask.UseCase, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		sem:      semaphore.NewWeighted(8),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	s.mux = mux

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.From(ctx).Info("starting server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "server busy"})
		return
	}
	defer s.sem.Release(1)

	resp, err := s.pipeline.Ask(ctx, req.Question)
	if err != nil {
		logger.Error("chat request failed", "error", err)
		if errors.Is(err, model.ErrGenerationUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "generation temporarily unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    resp.Answer,
		Sources:   resp.Sources,
		State:     resp.State,
		Verified:  resp.Verified(),
		Disclosed: resp.Disclosed,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
