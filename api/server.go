/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zap request logging, with the request ID
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend

  Request latency is recorded per route pattern, so /api/attendance/{orgID}
  stays one series however many organizations are edited.

ROUTE GROUPS:
  /api/period, /api/organizations, /api/tree   Selection and roster
  /api/summary, /api/reporting-units, ...      Aggregates
  /api/records/*, /api/attendance/*            Record reads and writes
  /api/payroll/*                               CSV import and template
  /api/insights/*                              Narrative generation
  /api/datasets/*                              Demo datasets
  /metrics                                     Prometheus exposition

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// AllowedOrigins are the dashboard frontend origins accepted by CORS.
var AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger, h.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Selection
		r.Get("/period", h.GetPeriod)
		r.Put("/period", h.SelectPeriod)

		// Roster
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Put("/", h.ReplaceOrganizations)
		})
		r.Get("/tree", h.GetTree)
		r.Get("/unattributed", h.GetUnattributed)

		// Aggregates
		r.Get("/summary", h.GetSummary)
		r.Route("/reporting-units", func(r chi.Router) {
			r.Get("/", h.GetReportingUnits)
			r.Get("/comparison", h.GetUnitComparison)
		})
		r.Get("/production/comparison", h.GetProductionComparison)

		// Records
		r.Route("/records", func(r chi.Router) {
			r.Get("/{kind}", h.GetRecords)
			r.Put("/{kind}", h.ReplaceRecords)
		})
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/report", h.GetAttendanceReport)
			r.Patch("/{orgID}", h.EditAttendance)
		})

		// Payroll files
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/import", h.ImportPayroll)
			r.Get("/template", h.DownloadPayrollTemplate)
		})

		// Insights
		r.Route("/insights", func(r chi.Router) {
			r.Post("/", h.StartInsight)
			r.Get("/{id}", h.GetInsight)
		})

		// Datasets
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Post("/reset", h.ResetDataset)
		})
	})

	return r
}

// requestLogger logs one line per request and records its latency.
func requestLogger(logger *zap.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				elapsed := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if pattern := rctx.RoutePattern(); pattern != "" {
						route = pattern
					}
				}
				metrics.observeRequest(r.Method, route, strconv.Itoa(status), elapsed.Seconds())

				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", elapsed))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
