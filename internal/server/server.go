// Package server provides the HTTP API for interview analyses and generated
// demo interviews.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/store"
)

const (
	DefaultAddr = ":8000"

	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 300 * time.Second
	shutdownTimeout     = 30 * time.Second
)

// Providers resolves a provider by the id given in the query string.
type Providers interface {
	Get(name string) ai.Provider
}

// Lister is implemented by result logs that can return recent entries.
type Lister interface {
	List(ctx context.Context, limit int) ([]store.Entry, error)
}

// Config holds server configuration.
type Config struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`

	Evaluation evaluation.Config `mapstructure:"-"`
}

// Server serves the interview API.
type Server struct {
	httpServer *http.Server
	providers  Providers
	evaluation evaluation.Config
	recorder   evaluation.Recorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// New creates a server. recorder may be nil; when it also implements Lister
// the recent evaluations are served on GET /interviews/evaluations.
func New(cfg Config, providers Providers, recorder evaluation.Recorder, log *zap.Logger) (*Server, error) {
	if providers == nil {
		return nil, errors.New("providers are required")
	}
	if err := cfg.Evaluation.Validate(); err != nil {
		return nil, fmt.Errorf("evaluation config: %w", err)
	}
	if cfg.Evaluation.Language == "" {
		cfg.Evaluation.Language = prompts.DefaultLanguage
	}

	s := &Server{
		providers:  providers,
		evaluation: cfg.Evaluation,
		recorder:   recorder,
		validator:  validator.New(),
		logger:     logger.OrNop(log),
	}

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  durationOr(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: durationOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler wrapped in the logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /interviews/analyses", s.handleAnalyses)
	mux.HandleFunc("POST /interviews/generations", s.handleGenerations)
	mux.HandleFunc("GET /interviews/evaluations", s.handleEvaluations)

	return s.withLogging(s.withCORS(mux))
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "AI Interview Analyzer API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode json response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"detail": message})
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
