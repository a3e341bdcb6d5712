package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civitas/internal/governance/handler"
	"civitas/internal/platform/metrics"
	"civitas/internal/ratelimit"
	"civitas/pkg/platform/httputil"
	adminmw "civitas/pkg/platform/middleware/admin"
	authmw "civitas/pkg/platform/middleware/auth"
	"civitas/pkg/platform/middleware/metadata"
	request "civitas/pkg/platform/middleware/request"
	"civitas/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	service     handler.Service
	health      func(r *http.Request) error
	validator   authmw.JWTValidator
	adminToken  string
	limiter     *ratelimit.Limiter
	httpMetrics *metrics.Metrics
	logger      *slog.Logger
}

// newRouter mounts ops endpoints unauthenticated, the governance API behind
// bearer auth, and operator endpoints behind the admin token.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(d.logger))
	r.Use(request.Logger(d.logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	if d.httpMetrics != nil {
		r.Use(d.httpMetrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.httpMetrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.health != nil {
			if err := d.health(req); err != nil {
				d.logger.WarnContext(req.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := handler.New(d.service, d.logger)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.validator, d.logger))
		if d.limiter != nil {
			r.Use(ratelimit.Middleware(d.limiter, d.logger))
		}
		h.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.adminToken, d.logger))
		h.RegisterAdmin(r)
	})
	return r
}
