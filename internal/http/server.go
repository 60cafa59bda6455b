package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"dompet/internal/auth"
	"dompet/internal/cache"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
	appweb "dompet/web"
)

// appMetrics tracks application-level counters exposed by /readyz.
type appMetrics struct {
	totalTransactions int64
	cacheHits         int64
	cacheMisses       int64
	uptime            time.Time
}

type Server struct {
	http.Server
	logger    *applog.Logger
	httpLog   *applog.StructuredLogger
	templates *template.Template

	store      store.Store
	auth       auth.Provider
	sessionTTL time.Duration

	rateLimiter *rateLimiter
	secMetrics  securityMetrics
	appMetrics  appMetrics

	// Per-owner transaction lists; the dashboard and history views both
	// derive from the same list, so one cache serves both.
	txCache      *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// sessionTTL bounds how long the session cookie stays valid.
func NewServer(addr string, st store.Store, ap auth.Provider, sessionTTL time.Duration, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:       logger.WithComponent(applog.ComponentHTTP),
		httpLog:      applog.NewStructuredLogger(logger),
		store:        st,
		auth:         ap,
		sessionTTL:   sessionTTL,
		rateLimiter:  newRateLimiter(),
		appMetrics:   appMetrics{uptime: time.Now()},
		txCache:      cache.NewLRUCache[[]core.Transaction](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.txCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/forgot", s.withSecurityHeaders(s.handleForgotPassword))
	mux.HandleFunc("/reset-password", s.withSecurityHeaders(s.handleResetPassword))

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.handleDeleteTransaction))

	// UI partials
	mux.HandleFunc("/ui/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/ui/history", s.withSecurityHeaders(s.handleHistory))
	mux.HandleFunc("/ui/theme", s.withSecurityHeaders(s.handleTheme))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		// Mutating requests are rate limited per client IP.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.secMetrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
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

// ownerTransactions returns the owner's transactions, newest first,
// from cache when fresh.
func (s *Server) ownerTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if txs, found := s.txCache.Get(ownerID); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		// Return a copy to prevent external mutation.
		out := make([]core.Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	txs, err := s.store.ListByOwner(cctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.txCache.Set(ownerID, txs)
	return txs, nil
}

func (s *Server) invalidateOwner(ownerID string) {
	s.txCache.Delete(ownerID)
}
