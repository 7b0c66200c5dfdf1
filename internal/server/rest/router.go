package rest

import (
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps collects what NewRouter needs. Logger, Metrics and Gatherer are
// optional; /metrics is mounted only when Gatherer is set.
type RouterDeps struct {
	Service        AuthService
	Logger         logging.Logger
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter builds the HTTP API:
//
//	POST /api/auth/register
//	POST /api/auth/login
//	GET  /api/protected      (bearer token)
//	GET  /healthz
//	GET  /metrics
func NewRouter(d RouterDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	logger := d.Logger.With("module", "http_server")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger, d.Metrics))
	r.Use(Recovery(logger))
	r.Use(CORS(d.AllowedOrigins))

	h := NewHandler(d.Service, logger)

	r.Get("/healthz", h.Healthz)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.With(RequireToken(d.Service)).Get("/protected", h.Protected)
	})

	return r
}
