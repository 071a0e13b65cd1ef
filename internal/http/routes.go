package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/VitalTrace/healthmon_backend/internal/metrics"
)

// SetupRoutes configures all HTTP routes for the health monitoring API
func SetupRoutes(handlers *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(prometheusMiddleware)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, specify allowed origins
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// System stats
		r.Get("/stats", handlers.GetSystemStats)

		// Subject routes
		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", handlers.GetSubjects)
			r.Get("/latest", handlers.GetAllLatestReadings)

			r.Route("/{personID}", func(r chi.Router) {
				r.Get("/latest", handlers.GetLatestReading)
				r.Get("/readings", handlers.GetPersonReadings)
				r.Get("/report", handlers.GetPersonReport)
				r.Get("/status", handlers.GetPersonStatus)
			})
		})

		// Cohort reports
		r.Get("/reports", handlers.GetCohortReports)

		// Reading ingest
		r.Post("/readings", handlers.AddReading)

		// Synthetic history generation
		r.Post("/simulate", handlers.SimulateBatch)

		// Export routes for reading history
		r.Route("/export", func(r chi.Router) {
			r.Get("/readings.csv", handlers.ExportReadingsCSV)
			r.Get("/readings.xlsx", handlers.ExportReadingsExcel)
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket route for real-time updates
	if handlers.hub != nil {
		r.HandleFunc("/ws", handlers.hub.HandleWebSocket)
	}

	return r
}

// statusRecorder captures the response status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// prometheusMiddleware records request counts and latency per endpoint
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw ResponseWriter (hijacking)
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		endpoint := r.URL.Path
		if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
			endpoint = pattern
		}

		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(recorder.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
