// Package server exposes a read-only HTTP view of a mounted volume.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/jfsio/auth"
	"github.com/ebogdum/jfsio/config"
	"github.com/ebogdum/jfsio/core"
	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/metrics"
	"github.com/ebogdum/jfsio/server/handlers"
	authMiddleware "github.com/ebogdum/jfsio/server/middleware"
)

// NewRouter creates and configures the HTTP router. The /v1 browse routes
// are mounted only when an authenticator is given.
func NewRouter(sess *core.Session, cfg config.ServerConfig, authenticator auth.Authenticator, logger *zap.Logger) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(authMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(authMiddleware.V1SecurityHeaders())
	r.Use(requestLogger(logger))

	// Health check and metrics endpoints (no auth required)
	r.Get("/health", handlers.V1Health(sess, logger))
	r.Handle("/metrics", promhttp.Handler())

	if authenticator == nil {
		logger.Info("No API keys configured, browse API disabled")
		return r
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.V1AuthMiddleware(authenticator, logger))
		r.Use(authMiddleware.V1RateLimitMiddleware(limiter, logger))

		r.Get("/stat/*", handlers.V1Stat(sess, logger))
		r.Get("/summary/*", handlers.V1Summary(sess, logger))
		r.Get("/directories/*", handlers.V1ListDirectory(sess, logger))
		r.Get("/files/*", handlers.V1GetFile(sess, logger))
		r.Head("/files/*", handlers.V1GetFile(sess, logger))
	})

	logger.Info("HTTP router configured successfully")
	return r
}

// requestLogger records request metrics labelled by route pattern and
// logs each request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", jfslog.SanitizePath(r.URL.Path)),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", authMiddleware.GetRequestID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

// NewHTTPServer wraps the router with the configured timeouts.
func NewHTTPServer(handler http.Handler, cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
