// Package health serves liveness and journal endpoints over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jusunglee/mostlybot/internal/cooldown"
	"github.com/jusunglee/mostlybot/internal/db"
	"github.com/jusunglee/mostlybot/internal/logger"
)

const (
	statsWindow        = 24 * time.Hour
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type Server struct {
	httpServer *http.Server
	log        logger.Logger
	repo       db.Repository
	now        func() time.Time
}

// New builds the server. repo may be nil, which leaves only /health.
// apiKey guards the per-invocation endpoints.
func New(port int, log logger.Logger, repo db.Repository, apiKey string) *Server {
	s := &Server{
		log:  log,
		repo: repo,
		now:  time.Now,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.routes(apiKey),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(apiKey string) http.Handler {
	mux := http.NewServeMux()
	limiter := NewRateLimiter(cooldown.NewPolicy(30, time.Minute))

	mux.Handle("GET /health", Chain(http.HandlerFunc(s.handleHealth), PrometheusMetrics()))
	if s.repo == nil {
		return mux
	}

	mux.Handle("GET /stats", Chain(
		http.HandlerFunc(s.handleStats),
		PrometheusMetrics(),
		RequestLogger(s.log),
		RateLimit(limiter),
	))
	mux.Handle("GET /recent", Chain(
		http.HandlerFunc(s.handleRecent),
		PrometheusMetrics(),
		RequestLogger(s.log),
		APIKeyAuth(apiKey),
	))
	mux.Handle("GET /invocations/{id}", Chain(
		http.HandlerFunc(s.handleInvocation),
		PrometheusMetrics(),
		RequestLogger(s.log),
		APIKeyAuth(apiKey),
	))
	return mux
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type usageResponse struct {
	Command  string `json:"command"`
	Total    int64  `json:"total"`
	Failures int64  `json:"failures"`
}

type statsResponse struct {
	Since    string          `json:"since"`
	Commands []usageResponse `json:"commands"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	since := s.now().Add(-statsWindow)
	usage, err := s.repo.CountInvocationsByCommand(r.Context(), since)
	if err != nil {
		s.log.ErrorContext(r.Context(), "counting invocations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := statsResponse{Since: since.UTC().Format(time.RFC3339), Commands: make([]usageResponse, len(usage))}
	for i, u := range usage {
		resp.Commands[i] = usageResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

type invocationResponse struct {
	ID         int64  `json:"id"`
	Platform   string `json:"platform"`
	Channel    string `json:"channel"`
	MessageID  string `json:"message_id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Command    string `json:"command,omitempty"`
	Outcome    string `json:"outcome"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func toInvocationResponse(inv db.Invocation) invocationResponse {
	return invocationResponse{
		ID:         inv.ID,
		Platform:   inv.Platform,
		Channel:    inv.Channel,
		MessageID:  inv.MessageID,
		UserID:     inv.UserID,
		UserName:   inv.UserName,
		Command:    inv.Command,
		Outcome:    inv.Outcome,
		ErrorKind:  inv.ErrorKind,
		Detail:     inv.Detail,
		DurationMs: inv.DurationMs,
		CreatedAt:  inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	var (
		rows []db.Invocation
		err  error
	)
	if user := r.URL.Query().Get("user"); user != "" {
		platform := r.URL.Query().Get("platform")
		if platform == "" {
			writeError(w, http.StatusBadRequest, "user filter needs a platform")
			return
		}
		rows, err = s.repo.ListInvocationsByUser(r.Context(), platform, user, int32(limit))
	} else {
		rows, err = s.repo.ListRecentInvocations(r.Context(), int32(limit))
	}
	if err != nil {
		s.log.ErrorContext(r.Context(), "listing invocations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := make([]invocationResponse, len(rows))
	for i, row := range rows {
		data[i] = toInvocationResponse(row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleInvocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	inv, err := s.repo.GetInvocation(r.Context(), id)
	if err != nil {
		if db.IsNoRows(err) {
			writeError(w, http.StatusNotFound, "invocation not found")
			return
		}
		s.log.ErrorContext(r.Context(), "getting invocation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toInvocationResponse(inv))
}

func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
