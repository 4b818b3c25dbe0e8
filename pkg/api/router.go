// Package api provides the HTTP surface of the vault: health probes, the
// public single-use download endpoint, and the JWT-protected management
// API.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/api/auth"
	"github.com/hubvault/hubvault/pkg/api/handlers"
	apiMiddleware "github.com/hubvault/hubvault/pkg/api/middleware"
	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/engine"
	"github.com/hubvault/hubvault/pkg/metrics"
	promMetrics "github.com/hubvault/hubvault/pkg/metrics/prometheus"
	"github.com/hubvault/hubvault/pkg/store"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe (database + storage)
//   - GET /api/download/{token} - Single-use download (the link is the
//     credential)
//   - POST /api/v1/projects - Create project
//   - GET /api/v1/projects/{projectID} - Project metadata
//   - DELETE /api/v1/projects/{projectID} - Project deletion (admin)
//   - GET /api/v1/projects/{projectID}/report - Compliance report
//   - GET /api/v1/projects/{projectID}/files - File listing
//   - GET /api/v1/projects/{projectID}/locks - Live locks in a project
//   - POST /api/v1/projects/{projectID}/files - Upload
//   - GET /api/v1/files/{fileID} - File metadata
//   - DELETE /api/v1/files/{fileID} - File deletion
//   - GET /api/v1/files/{fileID}/versions - Version history
//   - POST /api/v1/files/{fileID}/checkout - Claim the editing lock
//   - POST /api/v1/files/{fileID}/checkout/cancel - Release without a version
//   - POST /api/v1/files/{fileID}/checkout/extend - Push the lock expiry
//   - POST /api/v1/files/{fileID}/checkin - New version, lock released
//   - GET /api/v1/files/{fileID}/lock - Lock inspection
//   - DELETE /api/v1/files/{fileID}/lock - Force release (admin)
//   - POST /api/v1/files/{fileID}/download-token - Issue a download link
//   - /api/v1/deletions/* - Secure deletion management (admin)
//
// jwtService may be nil: the management API is then not mounted and only
// the health probes and the download endpoint serve.
func NewRouter(eng *engine.Engine, jwtService *auth.JWTService, metaStore *store.Store, blobs *content.Store) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(requestMetrics(promMetrics.NewHTTPMetrics()))
	r.Use(middleware.Recoverer)

	healthHandler := handlers.NewHealthHandler(metaStore, blobs)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	// Download links authenticate themselves; no JWT involved. No
	// request timeout either: large files stream as long as they need.
	downloadHandler := handlers.NewDownloadHandler(eng)
	r.Get("/api/download/{token}", downloadHandler.Get)

	if jwtService == nil {
		logger.Warn("no JWT secret configured, management API disabled")
		return r
	}

	fileHandler := handlers.NewFileHandler(eng)
	projectHandler := handlers.NewProjectHandler(eng)
	lockHandler := handlers.NewLockHandler(eng)
	deletionHandler := handlers.NewDeletionHandler(eng)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiMiddleware.JWTAuth(jwtService))
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/{projectID}", projectHandler.Get)
			r.Get("/{projectID}/report", projectHandler.Report)
			r.Get("/{projectID}/files", fileHandler.List)
			r.Get("/{projectID}/locks", lockHandler.List)
			r.Post("/{projectID}/files", fileHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin())
				r.Delete("/{projectID}", projectHandler.Delete)
			})
		})

		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", fileHandler.Get)
			r.Delete("/", fileHandler.Delete)
			r.Get("/versions", fileHandler.ListVersions)
			r.Post("/checkout", fileHandler.Checkout)
			r.Post("/checkout/cancel", fileHandler.CancelCheckout)
			r.Post("/checkout/extend", fileHandler.ExtendCheckout)
			r.Post("/checkin", fileHandler.Checkin)
			r.Get("/lock", lockHandler.Get)
			r.Post("/download-token", fileHandler.CreateDownloadToken)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin())
				r.Delete("/lock", lockHandler.ForceRelease)
			})
		})

		r.Route("/deletions", func(r chi.Router) {
			r.Use(apiMiddleware.RequireAdmin())

			r.Post("/", deletionHandler.Wipe)
			r.Get("/", deletionHandler.List)
			r.Get("/{recordID}", deletionHandler.Get)
			r.Post("/{recordID}/retry", deletionHandler.Retry)
			r.Post("/{recordID}/certificate", deletionHandler.Certificate)
		})
	})

	return r
}

// requestMetrics records request counters and latency. A nil collector
// (metrics disabled) makes this a pass-through.
func requestMetrics(hm metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hm == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hm.RecordRequestStart()
			defer hm.RecordRequestEnd()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// The route pattern keeps label cardinality bounded; raw
			// paths would mint a series per file id.
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			hm.RecordRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}

// isHealthPath returns true if the request path is a healthcheck
// endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests through the internal logger. Healthcheck
// requests log at DEBUG to keep probe noise out of production logs.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
