// Package httptransport assembles the HTTP surface of the lifecycle engine.
// It owns routing and middleware order; all business rules live in the
// feature services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adopterhandler "homeward/internal/adopter/handler"
	applicationhandler "homeward/internal/application/handler"
	organizationhandler "homeward/internal/organization/handler"
	"homeward/internal/platform/metrics"
	"homeward/internal/platform/middleware"
	statshandler "homeward/internal/stats/handler"
	"homeward/pkg/domain"
	"homeward/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects everything the router mounts.
type Deps struct {
	Adopters      *adopterhandler.Handler
	Organizations *organizationhandler.Handler
	Applications  *applicationhandler.Handler
	Stats         *statshandler.Handler

	Tokens  middleware.TokenValidator
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Health maps a dependency name to its checker. Nil-valued entries are
	// skipped so callers can pass optional backends unconditionally.
	Health map[string]HealthChecker
}

// NewRouter wires middleware and routes. Registration endpoints are open;
// everything else requires a bearer token, and the admin surface additionally
// requires the admin role.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Timeout(requestTimeout))
	if deps.Metrics != nil {
		r.Use(latency(deps.Metrics))
	}

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		deps.Adopters.RegisterPublic(r)
		deps.Organizations.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))

			deps.Adopters.Register(r)
			deps.Organizations.Register(r)
			deps.Applications.Register(r)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(deps.Logger, domain.RoleAdmin))

				deps.Adopters.RegisterAdmin(r)
				deps.Organizations.RegisterAdmin(r)
				deps.Stats.RegisterAdmin(r)
			})
		})
	})

	return r
}

// latency records per-route request duration. The route pattern is resolved
// after the handler runs so parametrized paths collapse into one label.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RequestLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func handleHealth(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := map[string]string{"status": "ok"}
		for name, checker := range checkers {
			if checker == nil {
				continue
			}
			if err := checker.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				report["status"] = "degraded"
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, report)
	}
}
