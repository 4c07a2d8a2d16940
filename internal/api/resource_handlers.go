package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// connClient resolves a connection and builds its client, writing the 404
// itself when the connection is missing.
func (s *Server) connClient(w http.ResponseWriter, r *http.Request) (*models.Connection, *salesforce.Client, bool) {
	id := chi.URLParam(r, "id")
	conn := s.Connections.Get(id)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return nil, nil, false
	}
	return conn, salesforce.NewClient(conn), true
}

// statusForError maps the error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var authErr *salesforce.AuthError
	var nfErr *salesforce.NotFoundError
	var permErr *salesforce.PermissionError
	var valErr *salesforce.ValidationError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &permErr):
		return http.StatusForbidden
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// ListObjects returns the global describe: all objects visible to the session.
func (s *Server) ListObjects(w http.ResponseWriter, r *http.Request) {
	_, client, ok := s.connClient(w, r)
	if !ok {
		return
	}
	objects, err := client.GlobalDescribe(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	// Ensure we return [] not null for empty results
	if objects == nil {
		objects = []salesforce.ObjectSummary{}
	}
	writeJSON(w, http.StatusOK, objects)
}

// DescribeObject returns the full object describe, fresh from the org.
func (s *Server) DescribeObject(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, describe)
}
