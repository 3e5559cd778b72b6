package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/handlers"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	ProjectHandler *handlers.ProjectHandler
	TaskHandler    *handlers.TaskHandler
	HealthHandler  *handlers.HealthHandler
	Sessions       *middleware.SessionManager
	Log            zerolog.Logger
	Secure         func(http.Handler) http.Handler
	CORS           func(http.Handler) http.Handler
	IPRateLimit    func(http.Handler) http.Handler
	Metrics        bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Every route below runs with a session attached.
	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.Handler)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/{provider}", cfg.AuthHandler.Begin)
			r.Get("/{provider}/callback", cfg.AuthHandler.Callback)
		})
		r.Get("/profile", cfg.AuthHandler.Profile)
		r.Get("/logout", cfg.AuthHandler.Logout)

		r.Route("/api", func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", cfg.ProjectHandler.Create)
				r.Get("/", cfg.ProjectHandler.List)
				r.Get("/{id}", cfg.ProjectHandler.Get)
				r.Put("/{id}", cfg.ProjectHandler.Update)
				r.Delete("/{id}", cfg.ProjectHandler.Delete)
			})
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", cfg.TaskHandler.Create)
				r.Get("/", cfg.TaskHandler.List)
				r.Get("/{id}", cfg.TaskHandler.Get)
				r.Put("/{id}", cfg.TaskHandler.Update)
				r.Delete("/{id}", cfg.TaskHandler.Delete)
			})
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
