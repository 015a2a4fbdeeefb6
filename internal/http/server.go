// Package http exposes the JSON API and the SSE stream. Every /api route
// authenticates via the X-User-ID header; identity is an opaque string and
// the server never sees credentials.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finura/internal/cache"
	"finura/internal/log"
	"finura/internal/realtime"
	"finura/internal/services"
)

type Server struct {
	http.Server

	transactions *services.TransactionService
	todos        *services.TodoService
	settings     *services.SettingsService
	hub          *realtime.Hub
	logger       *log.Logger

	rateLimiter  *rateLimiter
	summaryCache *cache.LRU[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(addr string, tx *services.TransactionService, todos *services.TodoService, settings *services.SettingsService, hub *realtime.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		transactions: tx,
		todos:        todos,
		settings:     settings,
		hub:          hub,
		logger:       logger.WithComponent("http"),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRU[[]byte](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/summary/daily", s.guard(s.handleDailySummary))
	mux.HandleFunc("GET /api/summary/monthly", s.guard(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/summary/categories", s.guard(s.handleCategorySummary))
	mux.HandleFunc("GET /api/summary/series", s.guard(s.handleSeries))

	mux.HandleFunc("GET /api/todos", s.guard(s.handleListTodos))
	mux.HandleFunc("POST /api/todos", s.guard(s.handleCreateTodo))
	mux.HandleFunc("PATCH /api/todos/{id}", s.guard(s.handleUpdateTodo))
	mux.HandleFunc("DELETE /api/todos/{id}", s.guard(s.handleDeleteTodo))

	mux.HandleFunc("GET /api/settings/daily-limit", s.guard(s.handleGetDailyLimit))
	mux.HandleFunc("PUT /api/settings/daily-limit", s.guard(s.handleSetDailyLimit))

	mux.HandleFunc("GET /api/export.csv", s.guard(s.handleExportCSV))
	mux.HandleFunc("GET /api/stream", s.guard(s.handleStream))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// guard wraps an API handler with security headers, rate limiting, request
// logging and user identification.
func (s *Server) guard(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With("request_id", requestID)
		ctx := r.Context()

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, userID)

		logger.InfoContext(ctx, "Request completed",
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter captures the status code for the request log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE streaming works behind the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (s *Server) summaryKey(userID string, parts ...string) string {
	key := userID
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// invalidateSummaries drops every cached summary for the user. Called after
// any transaction or settings mutation.
func (s *Server) invalidateSummaries(userID string) {
	s.summaryCache.DeletePrefix(userID + ":")
}
