package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rflorenc/salesforce-org-workbench/internal/export"
)

// writeDataset renders a dataset in the requested format (?format=csv|json).
func writeDataset(w http.ResponseWriter, r *http.Request, ds *export.Dataset) {
	exporter, err := export.NewExporter(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", ds.Name+"."+exporter.Extension()))
	if err := exporter.Export(ds, w); err != nil {
		// Headers are gone; nothing useful left to send.
		return
	}
}

// ExportPicklists exports all active picklist values of an object.
func (s *Server) ExportPicklists(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	describe, err := client.Describe(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeDataset(w, r, export.PicklistMatrix(describe))
}

// ExportValueSet exports one picklist field's value set, order-preserving.
func (s *Server) ExportValueSet(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	field := chi.URLParam(r, "field")
	describe, err := client.Describe(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	f := describe.FieldByName(field)
	if f == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("field %s not found on %s", field, object))
		return
	}
	writeDataset(w, r, export.ValueSet(object, field, f.PicklistValues))
}

// ExportFieldDependencies exports a dependent picklist's controlling-value map.
func (s *Server) ExportFieldDependencies(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	field := chi.URLParam(r, "field")
	describe, err := client.Describe(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	deps, err := describe.FieldDependencies(field)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	// Preserve the controlling field's declared value order.
	var order []string
	dep := describe.FieldByName(field)
	if controller := describe.FieldByName(dep.ControllerName); controller != nil {
		for _, v := range controller.PicklistValues {
			order = append(order, v.Value)
		}
	}
	if len(order) == 0 {
		order = []string{"false", "true"} // checkbox controller
	}
	writeDataset(w, r, export.FieldDependencies(object, field, deps, order))
}

// ExportValidationRules exports an object's validation rules via the Tooling API.
func (s *Server) ExportValidationRules(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	rules, err := client.ListValidationRules(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeDataset(w, r, export.ValidationRules(rules))
}

// ExportFieldPermissions exports an object's field-level security entries.
func (s *Server) ExportFieldPermissions(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	perms, err := client.ListFieldPermissions(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeDataset(w, r, export.FieldPermissions(perms))
}

// DeployValueSet imports a value-set CSV and replaces the picklist's values
// on the org via the Metadata API, as an async job.
func (s *Server) DeployValueSet(w http.ResponseWriter, r *http.Request) {
	conn, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	object := chi.URLParam(r, "object")
	field := chi.URLParam(r, "field")

	entries, err := export.ParseValueSet(r.Body)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	describe, err := client.Describe(r.Context(), object)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	f := describe.FieldByName(field)
	if f == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("field %s not found on %s", field, object))
		return
	}
	label := f.Label

	job := s.Jobs.Create("picklist-deploy", conn.ID)

	go func() {
		fullName := object + "." + field
		job.AppendLog(fmt.Sprintf("Deploying %d value(s) to %s on %s", len(entries), fullName, conn.Name))
		if current, err := client.ReadPicklistValueSet(job.Context(), object, field); err == nil {
			job.AppendLog(fmt.Sprintf("Replacing %d existing value(s)", len(current)))
		}
		err := client.UpdatePicklistValueSet(job.Context(), object, field, label, entries)
		status, errMsg := "completed", ""
		if err != nil {
			errMsg = err.Error()
			if errors.Is(err, context.Canceled) {
				status = "cancelled"
				job.AppendLog("Deploy cancelled")
				job.Cancelled()
			} else {
				status = "failed"
				job.AppendLog("ERROR: " + errMsg)
				job.Fail(errMsg)
			}
		} else {
			job.AppendLog("Deploy complete")
			job.Complete()
		}
		if s.History != nil {
			if _, herr := s.History.Append(fullName, "picklist-deploy", status, errMsg); herr != nil {
				job.AppendLog("WARNING: history write failed: " + herr.Error())
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
