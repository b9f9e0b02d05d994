// Package server exposes the ask bridge over HTTP for spreadsheet add-ins.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/logging"
	"github.com/klytics/sheetai/internal/tabular"
)

const (
	defaultAddr         = "127.0.0.1:8787"
	defaultMaxBodyBytes = 4 << 20
	shutdownTimeout     = 5 * time.Second
	requestIDHeader     = "X-Request-ID"
)

// Config controls the listener and the browser-facing headers.
type Config struct {
	Addr string
	// AllowedOrigin is echoed in Access-Control-Allow-Origin. Empty disables CORS headers.
	AllowedOrigin string
	MaxBodyBytes  int64
}

// Server answers ask requests with an Answerer. A nil Answerer means no
// provider is configured; /api/ask then fails with 500.
type Server struct {
	cfg      Config
	answerer bridge.Answerer
	logger   *zap.Logger
}

// New creates a server.
func New(cfg Config, a bridge.Answerer, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{cfg: cfg, answerer: a, logger: logging.OrNop(logger)}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

type tableData struct {
	Address string  `json:"address,omitempty"`
	Values  [][]any `json:"values"`
}

type askRequest struct {
	Prompt    string     `json:"prompt"`
	TableData *tableData `json:"tableData,omitempty"`
}

type askResponse struct {
	Success bool           `json:"success"`
	Answer  string         `json:"answer"`
	Output  tabular.Output `json:"output"`
	Extent  tabular.Extent `json:"extent"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.HandleFunc("/healthz", s.handleHealth)
	return s.logRequests(s.cors(mux))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Only POST allowed"})
		return
	}

	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Details: err.Error()})
		return
	}

	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing prompt"})
		return
	}

	if s.answerer == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server missing LLM provider configuration"})
		return
	}

	var values [][]any
	if req.TableData != nil {
		values = req.TableData.Values
	}

	res, err := s.answerer.Answer(r.Context(), req.Prompt, values)
	if err != nil {
		s.logger.Error("LLM error", zap.String("request_id", requestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "LLM error", Details: err.Error()})
		return
	}

	out := tabular.Classify(res.Content)
	writeJSON(w, http.StatusOK, askResponse{
		Success: true,
		Answer:  res.Content,
		Output:  out,
		Extent:  out.Extent(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Only GET allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AllowedOrigin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// requestID returns the ID assigned by logRequests, or "".
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// logRequests tags each request with an ID (the caller's X-Request-ID, or a
// new UUID), echoes it in the response and logs the outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s — is another server running? %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
