package salesforce

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthError indicates a missing or expired session (HTTP 401).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "no active session"
	}
	return "no active session: " + e.Message
}

// NotFoundError indicates a missing object, field or rule (HTTP 404 / NOT_FOUND).
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.Message)
	}
	return "not found: " + e.Message
}

// PermissionError indicates the session lacks access (HTTP 403).
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Message
}

// APIError is any other non-2xx Salesforce response, message passed through.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("salesforce API error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("salesforce API error %d: %s", e.StatusCode, e.Message)
}

// ValidationError indicates user input failed a local precondition (e.g. empty CSV).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// errorPayload is one entry of the standard Salesforce error response body,
// which is a JSON array: [{"message": "...", "errorCode": "NOT_FOUND"}].
type errorPayload struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// mapError converts a non-2xx response into the error taxonomy.
func mapError(status int, body []byte, resource string) error {
	code, message := parseErrorBody(body)
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Message: message}
	case http.StatusForbidden:
		return &PermissionError{Message: message}
	case http.StatusNotFound:
		return &NotFoundError{Resource: resource, Message: message}
	}
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

// parseErrorBody extracts (errorCode, message) from a Salesforce error body,
// falling back to the raw body when it isn't the standard array shape.
func parseErrorBody(body []byte) (string, string) {
	var payload []errorPayload
	if err := json.Unmarshal(body, &payload); err == nil && len(payload) > 0 {
		return payload[0].ErrorCode, payload[0].Message
	}
	return "", truncate(string(body), 200)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
