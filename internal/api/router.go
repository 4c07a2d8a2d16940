package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rflorenc/salesforce-org-workbench/internal/history"
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore
	Jobs        *models.JobStore
	Previews    *PreviewStore
	Results     *ResultStore
	History     *history.Store
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Connections
		r.Post("/connections", s.CreateConnection)
		r.Get("/connections", s.ListConnections)
		r.Put("/connections/{id}", s.UpdateConnection)
		r.Delete("/connections/{id}", s.DeleteConnection)
		r.Post("/connections/{id}/test", s.TestConnection)

		// Distinct authenticated orgs across all connections
		r.Get("/orgs", s.ListOrgs)

		// Object browsing and metadata exports
		r.Get("/connections/{id}/objects", s.ListObjects)
		r.Get("/connections/{id}/objects/{object}/describe", s.DescribeObject)
		r.Get("/connections/{id}/objects/{object}/picklists", s.ExportPicklists)
		r.Get("/connections/{id}/objects/{object}/validation-rules", s.ExportValidationRules)
		r.Get("/connections/{id}/objects/{object}/field-permissions", s.ExportFieldPermissions)
		r.Get("/connections/{id}/objects/{object}/fields/{field}/values", s.ExportValueSet)
		r.Get("/connections/{id}/objects/{object}/fields/{field}/dependencies", s.ExportFieldDependencies)
		r.Post("/connections/{id}/objects/{object}/fields/{field}/values", s.DeployValueSet)

		// Migration
		r.Post("/migrate/preview", s.MigrationPreviewHandler)
		r.Get("/migrate/preview/{jobId}", s.GetMigrationPreview)
		r.Post("/migrate/run", s.MigrationRunHandler)
		r.Get("/migrate/result/{jobId}", s.GetMigrationResult)
		r.Get("/migrate/result/{jobId}/export", s.ExportMigrationResult)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Post("/jobs/{id}/cancel", s.CancelJob)

		// History and settings
		r.Get("/history", s.GetHistory)
		r.Get("/settings/{key}", s.GetSetting)
		r.Put("/settings/{key}", s.PutSetting)

		// Message-contract dispatch
		r.Post("/actions", s.DispatchAction)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
