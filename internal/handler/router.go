package handler

import (
	"context"
	"net/http"
	"time"

	"doc-reader-api/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const healthTimeout = 2 * time.Second

// RouterOptions carries the pieces of the router that are not handlers.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        *metrics.EntitlementMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// HealthChecks are pinged by /health, keyed by dependency name.
	HealthChecks map[string]func(context.Context) error
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	usageHandler *UsageHandler,
	aiHandler *AIHandler,
	ocrHandler *OCRHandler,
	adminHandler *AdminHandler,
	authMiddleware func(http.Handler) http.Handler,
	opts RouterOptions,
) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", healthHandler(opts.HealthChecks)).Methods("GET")
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Admin routes authenticate with X-Admin-Secret instead of a user token.
	api.HandleFunc("/admin/limits", adminHandler.ListLimits).Methods("GET")
	api.HandleFunc("/admin/limits/{tier}/{feature}", adminHandler.UpsertLimit).Methods("PUT")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/usage", usageHandler.GetUsage).Methods("GET")
	protected.HandleFunc("/usage/{feature}", usageHandler.ReportUsage).Methods("POST")
	protected.HandleFunc("/entitlements/{feature}", usageHandler.CheckFeature).Methods("GET")
	protected.HandleFunc("/features/{feature}/consume", usageHandler.Consume).Methods("POST")

	protected.HandleFunc("/ai/{action}", aiHandler.RunAction).Methods("POST")
	protected.HandleFunc("/chat", aiHandler.Chat).Methods("POST")
	protected.HandleFunc("/ocr", ocrHandler.Extract).Methods("POST")

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:4173", "http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Admin-Secret",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		body := map[string]interface{}{
			"status":  "ok",
			"service": "doc-reader-api",
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		writeJSON(w, status, body)
	}
}
