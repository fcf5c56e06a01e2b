package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/streambuf/internal/api/handlers"
	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/internal/telemetry"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Request-scoped log context and custom request logging
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /api/v1/stats - Registry and pool statistics
//   - POST /api/v1/sweep - Run one eviction sweep
//   - GET /api/v1/users/{userID}/sessions/{sessionID} - Session lengths and timestamps
//   - DELETE /api/v1/users/{userID}/sessions/{sessionID} - Clear one session
//   - DELETE /api/v1/users/{userID}/sessions - Clear every session of a user
func NewRouter(store handlers.SessionStore, sweeper handlers.Sweeper, instanceID string, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	var stats handlers.StatsSource
	if store != nil {
		stats = store
	}
	healthHandler := handlers.NewHealthHandler(stats, instanceID)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	if store == nil {
		return r
	}

	sessionHandler := handlers.NewSessionHandler(store, sweeper)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", sessionHandler.Stats)
		r.Post("/sweep", sessionHandler.Sweep)

		r.Route("/users/{userID}/sessions", func(r chi.Router) {
			r.Delete("/", sessionHandler.DeleteAll)
			r.Get("/{sessionID}", sessionHandler.Get)
			r.Delete("/{sessionID}", sessionHandler.Delete)
		})
	})

	return r
}

// isHealthPath returns true if the path is a health check endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// logContext attaches a LogContext carrying the request ID, client IP and
// trace IDs so handlers can log with the *Ctx functions.
func logContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		lc := logger.NewLogContext(clientIP)
		lc.RequestID = middleware.GetReqID(ctx)
		lc.Operation = r.Method + " " + r.URL.Path
		if traceID := telemetry.TraceID(ctx); traceID != "" {
			lc = lc.WithTrace(traceID, telemetry.SpanID(ctx))
		}

		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, lc)))
	})
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			logger.KeyRequestID, requestID,
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyAddr, r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyRequestID, requestID,
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDuration, time.Since(start).String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
