package models

// Record represents a generic Salesforce record as returned by the REST API.
type Record map[string]interface{}

// ID returns the record's Salesforce ID, or "" when absent.
func (r Record) ID() string {
	if id, ok := r["Id"].(string); ok {
		return id
	}
	return ""
}
