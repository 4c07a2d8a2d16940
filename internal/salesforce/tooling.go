package salesforce

import (
	"context"
	"fmt"
)

// ValidationRule is a validation rule row from the Tooling API.
type ValidationRule struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Active            bool   `json:"active"`
	Description       string `json:"description,omitempty"`
	ErrorDisplayField string `json:"error_display_field,omitempty"`
	ErrorMessage      string `json:"error_message"`
	Object            string `json:"object"`
}

// ListValidationRules fetches all validation rules defined on an object via
// the Tooling API.
func (c *Client) ListValidationRules(ctx context.Context, object string) ([]ValidationRule, error) {
	soql := fmt.Sprintf(
		"SELECT Id, ValidationName, Active, Description, ErrorDisplayField, ErrorMessage "+
			"FROM ValidationRule WHERE EntityDefinition.DeveloperName = '%s' ORDER BY ValidationName",
		EscapeSOQL(object))
	result, err := c.ToolingQuery(ctx, soql)
	if err != nil {
		return nil, err
	}

	rules := make([]ValidationRule, 0, len(result.Records))
	for _, r := range result.Records {
		rules = append(rules, ValidationRule{
			ID:                stringValue(r["Id"]),
			Name:              stringValue(r["ValidationName"]),
			Active:            boolValue(r["Active"]),
			Description:       stringValue(r["Description"]),
			ErrorDisplayField: stringValue(r["ErrorDisplayField"]),
			ErrorMessage:      stringValue(r["ErrorMessage"]),
			Object:            object,
		})
	}
	return rules, nil
}

// FieldPermission is one field-level security row for a permission set or profile.
type FieldPermission struct {
	ParentName string `json:"parent_name"` // permission set / profile name
	Field      string `json:"field"`       // Object.Field
	Readable   bool   `json:"readable"`
	Editable   bool   `json:"editable"`
}

// ListFieldPermissions fetches field-level security entries for an object.
func (c *Client) ListFieldPermissions(ctx context.Context, object string) ([]FieldPermission, error) {
	soql := fmt.Sprintf(
		"SELECT Parent.Name, Field, PermissionsRead, PermissionsEdit "+
			"FROM FieldPermissions WHERE SobjectType = '%s' ORDER BY Field",
		EscapeSOQL(object))
	records, err := c.QueryAll(ctx, soql)
	if err != nil {
		return nil, err
	}

	perms := make([]FieldPermission, 0, len(records))
	for _, r := range records {
		parent := ""
		if p, ok := r["Parent"].(map[string]interface{}); ok {
			if n, ok := p["Name"].(string); ok {
				parent = n
			}
		}
		perms = append(perms, FieldPermission{
			ParentName: parent,
			Field:      stringValue(r["Field"]),
			Readable:   boolValue(r["PermissionsRead"]),
			Editable:   boolValue(r["PermissionsEdit"]),
		})
	}
	return perms, nil
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func boolValue(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
