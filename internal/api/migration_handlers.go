package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rflorenc/salesforce-org-workbench/internal/export"
	"github.com/rflorenc/salesforce-org-workbench/internal/migration"
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// PreviewStore caches migration previews keyed by the preview job ID, so a
// subsequent run request can reuse the plan exactly as it was previewed.
type PreviewStore struct {
	mu       sync.RWMutex
	previews map[string]*previewEntry
}

type previewEntry struct {
	Plan    *models.MigrationPlan
	Preview *models.MigrationPreview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{previews: make(map[string]*previewEntry)}
}

func (p *PreviewStore) Put(jobID string, plan *models.MigrationPlan, preview *models.MigrationPreview) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.previews[jobID] = &previewEntry{Plan: plan, Preview: preview}
}

func (p *PreviewStore) Get(jobID string) (*models.MigrationPlan, *models.MigrationPreview, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.previews[jobID]
	if !ok {
		return nil, nil, false
	}
	return e.Plan, e.Preview, true
}

// ResultStore holds finished migration results keyed by run job ID.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*models.MigrationResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]*models.MigrationResult)}
}

func (s *ResultStore) Put(jobID string, result *models.MigrationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = result
}

func (s *ResultStore) Get(jobID string) (*models.MigrationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[jobID]
	return r, ok
}

func (s *Server) migrationConnections(w http.ResponseWriter, plan *models.MigrationPlan) (src, dst *models.Connection, ok bool) {
	src = s.Connections.Get(plan.SourceID)
	if src == nil {
		writeError(w, http.StatusNotFound, "source connection not found: "+plan.SourceID)
		return nil, nil, false
	}
	dst = s.Connections.Get(plan.DestinationID)
	if dst == nil {
		writeError(w, http.StatusNotFound, "destination connection not found: "+plan.DestinationID)
		return nil, nil, false
	}
	if src.OrgID != "" && src.OrgID == dst.OrgID {
		writeError(w, http.StatusBadRequest, "source and destination resolve to the same org")
		return nil, nil, false
	}
	return src, dst, true
}

// MigrationPreviewHandler starts an async preview job: describes both orgs,
// builds the field plan and counts the records in scope.
func (s *Server) MigrationPreviewHandler(w http.ResponseWriter, r *http.Request) {
	var plan models.MigrationPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if plan.Object == "" {
		writeError(w, http.StatusBadRequest, "object is required")
		return
	}
	src, dst, ok := s.migrationConnections(w, &plan)
	if !ok {
		return
	}

	job := s.Jobs.Create("migration-preview", plan.SourceID)
	job.AppendLog("Previewing migration of " + plan.Object + " from " + src.Name + " to " + dst.Name)

	go func() {
		preview, err := migration.Preview(job.Context(), src, dst, &plan, job.AppendLog)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				job.AppendLog("Preview cancelled")
				job.Cancelled()
				return
			}
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		s.Previews.Put(job.ID, &plan, preview)
		job.AppendLog("Preview complete")
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetMigrationPreview returns a cached preview once its job has finished.
func (s *Server) GetMigrationPreview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	_, preview, ok := s.Previews.Get(jobID)
	if !ok {
		job := s.Jobs.Get(jobID)
		if job != nil && job.CurrentStatus() == "running" {
			writeError(w, http.StatusConflict, "preview still running")
			return
		}
		writeError(w, http.StatusNotFound, "preview not found: "+jobID)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type migrationRunRequest struct {
	PreviewJobID string                `json:"preview_job_id,omitempty"`
	Plan         *models.MigrationPlan `json:"plan,omitempty"`
}

// MigrationRunHandler starts an async migration run. It accepts either a
// previously previewed job ID or an inline plan; records are re-exported
// fresh either way.
func (s *Server) MigrationRunHandler(w http.ResponseWriter, r *http.Request) {
	var req migrationRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	plan := req.Plan
	if req.PreviewJobID != "" {
		cached, _, ok := s.Previews.Get(req.PreviewJobID)
		if !ok {
			writeError(w, http.StatusNotFound, "preview not found: "+req.PreviewJobID)
			return
		}
		plan = cached
	}
	if plan == nil || plan.Object == "" {
		writeError(w, http.StatusBadRequest, "plan with object is required")
		return
	}
	src, dst, ok := s.migrationConnections(w, plan)
	if !ok {
		return
	}

	job := s.Jobs.Create("migration-run", plan.SourceID)
	job.AppendLog("Migrating " + plan.Object + " from " + src.Name + " to " + dst.Name)

	go func() {
		result, err := migration.Run(job.Context(), src, dst, plan, job.AppendLog, func(p migration.Phase) {
			job.SetPhase(string(p))
		})
		if result != nil {
			s.Results.Put(job.ID, result)
		}
		status, errMsg := "completed", ""
		if err != nil {
			errMsg = err.Error()
			if errors.Is(err, context.Canceled) {
				status = "cancelled"
				job.AppendLog("Migration cancelled")
				job.Cancelled()
			} else {
				status = "failed"
				job.AppendLog("ERROR: " + errMsg)
				job.Fail(errMsg)
			}
		} else {
			job.AppendLog("Migration complete")
			job.Complete()
		}
		if s.History != nil {
			if _, herr := s.History.Append(plan.Object, "migration-run", status, errMsg); herr != nil {
				job.AppendLog("WARNING: history write failed: " + herr.Error())
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetMigrationResult returns the per-record outcome of a finished run.
func (s *Server) GetMigrationResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	result, ok := s.Results.Get(jobID)
	if !ok {
		job := s.Jobs.Get(jobID)
		if job != nil && job.CurrentStatus() == "running" {
			writeError(w, http.StatusConflict, "migration still running")
			return
		}
		writeError(w, http.StatusNotFound, "result not found: "+jobID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportMigrationResult renders a run's outcome as a downloadable dataset.
func (s *Server) ExportMigrationResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	result, ok := s.Results.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "result not found: "+jobID)
		return
	}
	writeDataset(w, r, export.MigrationResultDataset(result))
}
