package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

func (s *Server) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if conn.InstanceURL == "" {
		writeError(w, http.StatusBadRequest, "instance_url is required")
		return
	}
	if conn.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "access_token is required")
		return
	}
	if conn.Role == "" {
		conn.Role = "source"
	}
	if conn.APIVersion == "" {
		conn.APIVersion = salesforce.DefaultAPIVersion
	}
	s.Connections.Create(&conn)
	writeJSON(w, http.StatusCreated, conn.Sanitized())
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	sanitized := make([]*models.Connection, 0, len(conns))
	for _, c := range conns {
		sanitized = append(sanitized, c.Sanitized())
	}
	writeJSON(w, http.StatusOK, sanitized)
}

func (s *Server) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing := s.Connections.Get(id)
	if existing == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	conn.ID = id
	// A masked or omitted token keeps the stored one.
	if conn.AccessToken == "" || conn.AccessToken == existing.MaskedToken() {
		conn.AccessToken = existing.AccessToken
	}
	if !s.Connections.Update(&conn) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, conn.Sanitized())
}

func (s *Server) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Connections.Delete(id) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestConnection pings the org and resolves the session, updating the
// connection's health and identity.
func (s *Server) TestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conn := s.Connections.Get(id)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}

	client := salesforce.NewClient(conn)
	pingStatus, pingError := "ok", ""
	if err := client.Ping(r.Context()); err != nil {
		pingStatus = "error"
		pingError = err.Error()
	}

	authStatus, authError := "unknown", ""
	if pingStatus == "ok" {
		sess, err := client.ResolveSession(r.Context())
		if err != nil {
			authStatus = "error"
			authError = err.Error()
		} else {
			authStatus = "ok"
			s.Connections.SetIdentity(id, sess.OrgID, sess.UserID, sess.Username)
		}
	}
	s.Connections.SetHealth(id, pingStatus, pingError, authStatus, authError)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          pingStatus == "ok" && authStatus == "ok",
		"ping_status": pingStatus,
		"ping_error":  pingError,
		"auth_status": authStatus,
		"auth_error":  authError,
	})
}

// ListOrgs returns the distinct authenticated orgs across all connections,
// deduplicated by org ID.
func (s *Server) ListOrgs(w http.ResponseWriter, r *http.Request) {
	orgs := salesforce.ListOrgs(r.Context(), s.Connections.List())
	if orgs == nil {
		orgs = []salesforce.Org{}
	}
	writeJSON(w, http.StatusOK, orgs)
}
