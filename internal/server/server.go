// Package server exposes the chat and health HTTP endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"muetbot/internal/service"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the body of a successful chat reply.
type ChatResponse struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

// HealthResponse reports component readiness.
type HealthResponse struct {
	Status           string `json:"status"`
	QAReady          bool   `json:"qa_ready"`
	SchedulerRunning bool   `json:"scheduler_running"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Server handles chat queries over HTTP.
type Server struct {
	pipeline         *service.Pipeline
	schedulerRunning func() bool
	staticDir        string
	queryTimeout     time.Duration
}

// New creates a server over a pipeline. schedulerRunning may be nil
// when no scheduler is configured. staticDir, when non-empty, is
// served at the root path.
func New(pipeline *service.Pipeline, schedulerRunning func() bool, staticDir string) *Server {
	if schedulerRunning == nil {
		schedulerRunning = func() bool { return false }
	}
	return &Server{
		pipeline:         pipeline,
		schedulerRunning: schedulerRunning,
		staticDir:        staticDir,
		queryTimeout:     2 * time.Minute,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api", s.handleInfo)
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	} else {
		mux.HandleFunc("GET /", s.handleInfo)
	}
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a query field")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSONError(w, http.StatusBadRequest, "empty_query", "query must not be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	answer, err := s.pipeline.Answer(ctx, query)
	if errors.Is(err, service.ErrNotReady) {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "the answer chain is still initializing, try again shortly")
		return
	}
	if err != nil {
		slog.Error("chat query failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "query_failed", "failed to answer the query")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Answer: answer, Status: "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		QAReady:          s.pipeline.Ready(),
		SchedulerRunning: s.schedulerRunning(),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "MUETBOT",
		"message":   "MUET information assistant API",
		"endpoints": []string{"POST /chat", "GET /health"},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errorCode, Message: message})
}
