/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards
  5. Metrics:    Per-route request counters for Prometheus

ROUTE GROUPS:
  /api/transactions       Ledger postings
  /api/claims/*           Claim lifecycle webhook
  /api/employees/*        Balance summary and history
  /api/alerts/*           Low-balance scans
  /api/admin/*            Initialization, reconciliation, seeding
  /metrics                Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public;
  deploy behind a gateway that enforces auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/meridian/benefit-ledger/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(requestMetrics)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Ledger routes
		r.Post("/transactions", h.ApplyTransaction)

		// Claim workflow webhook
		r.Post("/claims/events", h.HandleClaimEvent)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/transactions", h.GetTransactions)
		})

		// Alert routes
		r.Get("/alerts/low-balance", h.GetLowBalanceAlerts)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/initialize", h.Initialize)
			r.Post("/recalculate", h.Recalculate)
			r.Post("/budgets", h.CreateBudget)
			r.Post("/employees", h.CreateEmployee)
			r.Post("/benefit-types", h.CreateBenefitType)
			r.Post("/marriage-statuses", h.CreateMarriageStatus)
		})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", metrics.Handler())

	return r
}

// requestMetrics records one counter increment per completed request,
// labeled by route pattern rather than raw path to keep cardinality low.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}
