// Package http serves the chat and dashboard UI. Dashboard aggregates are
// cached and invalidated whenever a chat turn reports a data mutation.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"financia/internal/agent"
	"financia/internal/cache"
	"financia/internal/core"
	"financia/internal/log"
	"financia/internal/memory"
	"financia/internal/store"
	appweb "financia/web"
)

// Responder runs one full chat turn. *agent.Agent is the production
// implementation; tests stub it.
type Responder interface {
	Respond(ctx context.Context, conv *memory.Conversation, userInput string) (agent.Reply, error)
}

type Server struct {
	http.Server
	templates   *template.Template
	clients     store.ClientReader
	history     store.HistoryReader
	responder   Responder
	conv        *memory.Conversation
	clientID    string
	logger      *log.Logger
	rateLimiter *rateLimiter

	// Chat turns are serialized: the transcript is a single linear
	// conversation, so concurrent POSTs must not interleave tool loops.
	turnMu sync.Mutex

	// One-shot banner shown on the next index render after a failed turn.
	flashMu sync.Mutex
	flash   string

	summaryCache *cache.LRUCache[core.PeriodSummary]
	monthsCache  *cache.LRUCache[[]core.MonthAmount]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, clients store.ClientReader, history store.HistoryReader, responder Responder, conv *memory.Conversation, clientID string, cacheTTL time.Duration, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		clients:          clients,
		history:          history,
		responder:        responder,
		conv:             conv,
		clientID:         clientID,
		logger:           logger.WithComponent("http"),
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[core.PeriodSummary](100, cacheTTL),
		monthsCache:      cache.NewLRUCache[[]core.MonthAmount](100, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/chat", s.withSecurityHeaders(s.handleChat))
	mux.HandleFunc("/export.csv", s.withSecurityHeaders(s.handleExport))
	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summaries := s.summaryCache.CleanExpired()
			months := s.monthsCache.CleanExpired()
			if summaries > 0 || months > 0 {
				s.logger.Debug("Cache cleanup completed",
					"summary_entries_removed", summaries,
					"month_entries_removed", months)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the server and its cleanup goroutines.
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

// invalidateDashboards drops the cached aggregates after a data mutation.
func (s *Server) invalidateDashboards() {
	s.summaryCache.Delete(s.summaryKey())
	s.monthsCache.Delete(s.monthsKey())
}

func (s *Server) summaryKey() string { return "summary:" + s.clientID }
func (s *Server) monthsKey() string  { return "months:" + s.clientID }

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := "req_" + uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Chat turns call out to the LLM; throttle POSTs per client IP.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
