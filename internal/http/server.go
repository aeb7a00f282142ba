// Package http exposes the ledger as a JSON API. Every route is scoped
// to the user identified by the X-User-ID header; there is no ambient
// current-user state anywhere below this layer.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"carteira/internal/cache"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/storage"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	storage     *storage.Repository
	rateLimiter *rateLimiter

	// Per-user caches for the read-heavy aggregated views. Keys are
	// "<userID>:<view>"; any write by a user drops all their entries.
	dashboardCache *cache.LRUCache[core.DashboardMetrics]
	invoicesCache  *cache.LRUCache[[]core.CardInvoices]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, repo *storage.Repository) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           ledger,
		storage:          repo,
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRUCache[core.DashboardMetrics](500, 2*time.Minute),
		invoicesCache:    cache.NewLRUCache[[]core.CardInvoices](500, 2*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /cards", s.withMiddleware(s.handleCreateCard))
	mux.HandleFunc("GET /cards", s.withMiddleware(s.handleListCards))
	mux.HandleFunc("PUT /cards/{id}", s.withMiddleware(s.handleUpdateCard))
	mux.HandleFunc("DELETE /cards/{id}", s.withMiddleware(s.handleDeleteCard))
	mux.HandleFunc("GET /cards/invoices", s.withMiddleware(s.handleListInvoices))

	mux.HandleFunc("POST /goals", s.withMiddleware(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", s.withMiddleware(s.handleListGoals))
	mux.HandleFunc("DELETE /goals/{id}", s.withMiddleware(s.handleDeleteGoal))

	mux.HandleFunc("GET /dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /profile", s.withMiddleware(s.handleGetProfile))
	mux.HandleFunc("PUT /profile", s.withMiddleware(s.handleUpdateProfile))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.dashboardCache.CleanExpired() + s.invoicesCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateUserCaches drops a user's cached views after a write.
func (s *Server) invalidateUserCaches(userID string) {
	s.dashboardCache.DeletePrefix(userID + ":")
	s.invoicesCache.DeletePrefix(userID + ":")
}

// withMiddleware adds request tracing, security headers, rate limiting
// and the X-User-ID requirement.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
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
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if userID(r) == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
