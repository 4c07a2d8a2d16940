package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListJobs returns all jobs, most recent first.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Jobs.List())
}

// GetJob returns a single job by ID.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CancelJob cancels a running job's context. The job goroutine notices at its
// next phase boundary and marks itself cancelled.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found: "+id)
		return
	}
	if job.CurrentStatus() != "running" {
		writeError(w, http.StatusConflict, "job is not running")
		return
	}
	job.AppendLog("Cancellation requested")
	job.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}
