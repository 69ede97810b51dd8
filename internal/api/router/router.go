package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/incident-report-ai/internal/http/middleware"
	"github.com/wolfman30/incident-report-ai/internal/reports"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// HealthCheck probes one dependency for readiness.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ReportsHandler     *reports.Handler
	AuthJWTSecret      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// GenerateLimiter throttles model-backed routes per officer; nil disables it.
	GenerateLimiter *httpmiddleware.RateLimiter
	HealthChecks    map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ReportsHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.UserJWT(cfg.AuthJWTSecret))
			var limit []func(http.Handler) http.Handler
			if cfg.GenerateLimiter != nil {
				limit = append(limit, cfg.GenerateLimiter.Middleware)
			}
			cfg.ReportsHandler.Routes(api, limit...)
		})
	}

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		writeJSON(w, status, resp)
	}
}
