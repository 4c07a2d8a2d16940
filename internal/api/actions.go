package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// actionRequest is the legacy message envelope: {action, payload}.
type actionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func actionOK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func actionErr(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": err.Error()})
}

// DispatchAction handles the envelope-style message contract. The envelope
// always answers 200; success or failure lives in the body.
func (s *Server) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch req.Action {
	case "getPicklistValues":
		s.actionGetPicklistValues(w, r, req.Payload)
	case "getFieldDependencies":
		s.actionGetFieldDependencies(w, r, req.Payload)
	case "getValidationRules":
		s.actionGetValidationRules(w, r, req.Payload)
	case "updatePicklistValues":
		s.actionUpdatePicklistValues(w, r, req.Payload)
	default:
		writeError(w, http.StatusBadRequest, "unknown action: "+req.Action)
	}
}

type objectFieldPayload struct {
	ConnectionID string `json:"connection_id"`
	Object       string `json:"object"`
	Field        string `json:"field,omitempty"`
}

func (s *Server) actionClient(w http.ResponseWriter, payload json.RawMessage) (*objectFieldPayload, *salesforce.Client, bool) {
	var p objectFieldPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return nil, nil, false
	}
	conn := s.Connections.Get(p.ConnectionID)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found: "+p.ConnectionID)
		return nil, nil, false
	}
	return &p, salesforce.NewClient(conn), true
}

func (s *Server) actionGetPicklistValues(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	p, client, ok := s.actionClient(w, payload)
	if !ok {
		return
	}
	describe, err := client.Describe(r.Context(), p.Object)
	if err != nil {
		actionErr(w, err)
		return
	}
	if p.Field != "" {
		field := describe.FieldByName(p.Field)
		if field == nil {
			actionErr(w, &salesforce.NotFoundError{Resource: "field", Message: p.Object + "." + p.Field})
			return
		}
		actionOK(w, field.PicklistValues)
		return
	}
	picklists := map[string][]salesforce.PicklistValue{}
	for _, f := range describe.PicklistFields() {
		picklists[f.Name] = f.PicklistValues
	}
	actionOK(w, picklists)
}

func (s *Server) actionGetFieldDependencies(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	p, client, ok := s.actionClient(w, payload)
	if !ok {
		return
	}
	if p.Field == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}
	describe, err := client.Describe(r.Context(), p.Object)
	if err != nil {
		actionErr(w, err)
		return
	}
	deps, err := describe.FieldDependencies(p.Field)
	if err != nil {
		actionErr(w, err)
		return
	}
	actionOK(w, deps)
}

func (s *Server) actionGetValidationRules(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	p, client, ok := s.actionClient(w, payload)
	if !ok {
		return
	}
	rules, err := client.ListValidationRules(r.Context(), p.Object)
	if err != nil {
		actionErr(w, err)
		return
	}
	actionOK(w, rules)
}

type updatePicklistPayload struct {
	objectFieldPayload
	Values []salesforce.PicklistEntry `json:"values"`
}

func (s *Server) actionUpdatePicklistValues(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var p updatePicklistPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if p.Object == "" || p.Field == "" {
		writeError(w, http.StatusBadRequest, "object and field are required")
		return
	}
	conn := s.Connections.Get(p.ConnectionID)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found: "+p.ConnectionID)
		return
	}
	client := salesforce.NewClient(conn)
	describe, err := client.Describe(r.Context(), p.Object)
	if err != nil {
		actionErr(w, err)
		return
	}
	field := describe.FieldByName(p.Field)
	if field == nil {
		actionErr(w, &salesforce.NotFoundError{Resource: "field", Message: p.Object + "." + p.Field})
		return
	}
	fullName := p.Object + "." + p.Field
	if err := client.UpdatePicklistValueSet(r.Context(), p.Object, p.Field, field.Label, p.Values); err != nil {
		actionErr(w, err)
		return
	}
	if s.History != nil {
		// The deploy already landed on the org; a history write failure must
		// not make the envelope claim otherwise.
		if _, err := s.History.Append(fullName, "picklist-deploy", "completed", ""); err != nil {
			log.Printf("history write failed: %v", err)
		}
	}
	actionOK(w, map[string]string{"fullName": fullName})
}
