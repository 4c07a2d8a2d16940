package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rflorenc/salesforce-org-workbench/internal/history"
)

// GetHistory lists recent deploy and migration history entries.
// ?limit= caps the result (default 50).
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}
	entries, err := s.History.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read history: "+err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetSetting returns a persisted setting value. Unknown keys return an empty
// value rather than 404, matching a key-value store's read semantics.
func (s *Server) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if s.History == nil {
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": ""})
		return
	}
	value, err := s.History.GetSetting(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read setting: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// PutSetting stores a setting value.
func (s *Server) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if s.History == nil {
		writeError(w, http.StatusServiceUnavailable, "settings store not configured")
		return
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.History.PutSetting(key, body.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store setting: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": body.Value})
}
