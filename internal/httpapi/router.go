// Package httpapi exposes the in-memory autocomplete index over HTTP,
// following the teacher's chi-router-plus-middleware-chain layout.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autocompleted/internal/config"
)

// NewRouter builds the v1 API router for h, wiring CORS, request IDs,
// structured request logging and panic recovery per cfg. registry may be
// nil, in which case /metrics is not mounted.
func NewRouter(h *Handler, cfg config.CORS, logger *zap.Logger, registry *prometheus.Registry) chi.Router {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(Recoverer(logger))

	if cfg.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   cfg.AllowedMethods,
			AllowedHeaders:   cfg.AllowedHeaders,
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           cfg.MaxAge,
		}))
	}

	router.Route("/v1", func(r chi.Router) {
		r.Get("/autocomplete", h.Autocomplete)
		r.Post("/entries", h.CreateEntry)
		r.Get("/entries/{key}", h.GetEntry)
		r.Delete("/entries/{key}", h.DeleteEntry)
		r.Post("/entries/{key}/score", h.SetScore)
		r.Get("/healthz", h.Healthz)
	})

	if registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return router
}

// Recoverer recovers panics in downstream handlers, logs them, and writes a
// 500 error response instead of crashing the listener goroutine.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					)
					writeError(w, r, http.StatusInternalServerError, "INTERNAL", "an unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs each request's method, path, status and latency.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
