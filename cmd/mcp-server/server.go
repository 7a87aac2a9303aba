package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/florisdf/mathsteps"
	"github.com/florisdf/mathsteps/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// requestID returns the id requestIDs stored in ctx.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// server answers tool calls over HTTP.
type server struct {
	tools        *mathsteps.Toolbox
	metrics      *metrics.Metrics
	log          *zap.Logger
	maxBodyBytes int64
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDs, s.recoverer)

	r.Post("/tool", s.handleTool)
	r.Get("/schema", s.handleSchema)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// requestIDs keeps the caller's X-Request-ID or assigns a new one.
func (s *server) requestIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in handler",
					zap.String("request_id", requestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /tool
func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req mathsteps.ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}

	start := time.Now()
	resp := s.tools.HandleToolCall(req)
	elapsed := time.Since(start)
	s.metrics.ObserveTool(req.Tool, resp.Error != "", elapsed)

	fields := []zap.Field{
		zap.String("request_id", requestID(r.Context())),
		zap.String("tool", req.Tool),
		zap.Duration("elapsed", elapsed),
	}
	if resp.Error != "" {
		s.log.Info("tool call failed", append(fields, zap.String("tool_error", resp.Error))...)
	} else {
		s.log.Debug("tool call", fields...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /schema
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, mathsteps.MCPToolSpec())
}

// GET /health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": mathsteps.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
