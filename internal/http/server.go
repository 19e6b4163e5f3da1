// Package http serves the transaction history and analytics JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
)

// TransactionAPI is the service surface the handlers depend on.
type TransactionAPI interface {
	History(ctx context.Context, f core.Filter, s core.Sort) ([]core.Transaction, error)
	GroupedHistory(ctx context.Context, f core.Filter, s core.Sort) ([]core.DateGroup, error)
	Analytics(ctx context.Context, period core.Period) (core.Analytics, error)
	Dashboard(ctx context.Context, period core.Period) (services.Dashboard, error)
	Transaction(ctx context.Context, id string) (core.Transaction, error)
	Ingest(ctx context.Context, raw core.RawTransaction) (core.Transaction, error)
	Ready(ctx context.Context) error
}

var _ TransactionAPI = (*services.TransactionService)(nil)

type Server struct {
	http.Server
	api         TransactionAPI
	loc         *time.Location
	logger      *applog.Logger
	sl          *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, api TransactionAPI, loc *time.Location, logger *applog.Logger) *Server {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		api:         api,
		loc:         loc,
		logger:      logger,
		sl:          applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/grouped", s.withSecurityHeaders(s.handleGroupedTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withSecurityHeaders(s.handleGetTransaction))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/analytics", s.withSecurityHeaders(s.handleAnalytics))
	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleDashboard))

	return s
}

// Shutdown stops the rate limiter and then the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, request ids and
// request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		reqLogger := s.logger.With(applog.FieldRequestID, requestID, applog.FieldClientIP, clientIP)
		r = r.WithContext(applog.NewContext(r.Context(), reqLogger))

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			reqLogger.WarnContext(r.Context(), "Rate limit exceeded", applog.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeError(rw, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		} else {
			next(rw, r)
		}

		s.sl.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
