package salesforce

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// PicklistValue is one entry of a picklist field's value set.
type PicklistValue struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Active   bool   `json:"active"`
	Default  bool   `json:"defaultValue"`
	ValidFor string `json:"validFor,omitempty"` // base64 bitmap against the controlling field
}

// Field is one field of an object describe.
type Field struct {
	Name             string          `json:"name"`
	Label            string          `json:"label"`
	Type             string          `json:"type"`
	Nillable         bool            `json:"nillable"`
	Createable       bool            `json:"createable"`
	Updateable       bool            `json:"updateable"`
	Calculated       bool            `json:"calculated"` // formula fields
	ExternalID       bool            `json:"externalId"`
	ReferenceTo      []string        `json:"referenceTo,omitempty"`
	RelationshipName string          `json:"relationshipName,omitempty"`
	ControllerName   string          `json:"controllerName,omitempty"`
	PicklistValues   []PicklistValue `json:"picklistValues,omitempty"`
}

// Required reports whether the field must be supplied on create.
func (f *Field) Required() bool {
	return f.Createable && !f.Nillable && !f.Calculated
}

// ChildRelationship describes a detected child relationship on an object.
type ChildRelationship struct {
	ChildSObject     string `json:"childSObject"`
	Field            string `json:"field"` // foreign key field on the child
	RelationshipName string `json:"relationshipName"`
	CascadeDelete    bool   `json:"cascadeDelete"`
}

// ObjectDescribe is a read-only snapshot of an object's metadata.
type ObjectDescribe struct {
	Name               string              `json:"name"`
	Label              string              `json:"label"`
	LabelPlural        string              `json:"labelPlural"`
	Custom             bool                `json:"custom"`
	Createable         bool                `json:"createable"`
	Queryable          bool                `json:"queryable"`
	Fields             []Field             `json:"fields"`
	ChildRelationships []ChildRelationship `json:"childRelationships"`
}

// FieldByName returns the field with the given API name, or nil.
func (d *ObjectDescribe) FieldByName(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// CreateableFields returns fields usable as migration targets: createable
// and not formula-calculated.
func (d *ObjectDescribe) CreateableFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Createable && !f.Calculated {
			out = append(out, f)
		}
	}
	return out
}

// LookupFields returns createable reference (lookup/master-detail) fields.
func (d *ObjectDescribe) LookupFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Type == "reference" && f.Createable && !f.Calculated {
			out = append(out, f)
		}
	}
	return out
}

// PicklistFields returns picklist and multipicklist fields.
func (d *ObjectDescribe) PicklistFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Type == "picklist" || f.Type == "multipicklist" {
			out = append(out, f)
		}
	}
	return out
}

// Relationship returns the child relationship with the given name, or nil.
// Relationships without a name or foreign key field cannot be followed.
func (d *ObjectDescribe) Relationship(name string) *ChildRelationship {
	for i := range d.ChildRelationships {
		r := &d.ChildRelationships[i]
		if r.RelationshipName == name && r.Field != "" {
			return r
		}
	}
	return nil
}

// Describe fetches the full object describe. Each call is a fresh network
// fetch; results are fresh-enough snapshots, never cached.
func (c *Client) Describe(ctx context.Context, object string) (*ObjectDescribe, error) {
	var d ObjectDescribe
	path := fmt.Sprintf("%s/sobjects/%s/describe", c.dataPath(), object)
	body, _, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, decorateNotFound(err, object)
	}
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("parsing describe for %s: %w", object, err)
	}
	return &d, nil
}

// ObjectSummary is one entry of the global describe.
type ObjectSummary struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	LabelPlural string `json:"labelPlural"`
	Custom      bool   `json:"custom"`
	Createable  bool   `json:"createable"`
	Queryable   bool   `json:"queryable"`
}

// GlobalDescribe lists all objects visible to the session.
func (c *Client) GlobalDescribe(ctx context.Context) ([]ObjectSummary, error) {
	var resp struct {
		SObjects []ObjectSummary `json:"sobjects"`
	}
	if err := c.GetJSON(ctx, c.dataPath()+"/sobjects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.SObjects, nil
}

// DecodeValidFor decodes a dependent value's validFor bitmap into the
// controlling values it is valid for. Bit i (most significant bit first
// within each byte) corresponds to controllingValues[i].
func DecodeValidFor(validFor string, controllingValues []PicklistValue) ([]string, error) {
	if validFor == "" {
		return nil, nil
	}
	bitmap, err := base64.StdEncoding.DecodeString(validFor)
	if err != nil {
		return nil, fmt.Errorf("decoding validFor bitmap: %w", err)
	}
	var valid []string
	for i, cv := range controllingValues {
		byteIdx := i / 8
		if byteIdx >= len(bitmap) {
			break
		}
		if bitmap[byteIdx]&(0x80>>(i%8)) != 0 {
			valid = append(valid, cv.Value)
		}
	}
	return valid, nil
}

// FieldDependencies resolves the controlling-value → dependent-values map
// for a dependent picklist field. Fails with *NotFoundError when the field
// is missing and *ValidationError when it has no controlling field.
func (d *ObjectDescribe) FieldDependencies(fieldName string) (map[string][]string, error) {
	dep := d.FieldByName(fieldName)
	if dep == nil {
		return nil, &NotFoundError{Resource: d.Name + "." + fieldName, Message: "field not in describe"}
	}
	if dep.ControllerName == "" {
		return nil, &ValidationError{Message: fmt.Sprintf("field %s has no controlling field", fieldName)}
	}
	controller := d.FieldByName(dep.ControllerName)
	if controller == nil {
		return nil, &NotFoundError{Resource: d.Name + "." + dep.ControllerName, Message: "controlling field not in describe"}
	}

	// Checkbox controllers expose exactly two implicit values.
	controlling := controller.PicklistValues
	if controller.Type == "boolean" {
		controlling = []PicklistValue{
			{Label: "False", Value: "false", Active: true},
			{Label: "True", Value: "true", Active: true},
		}
	}

	deps := make(map[string][]string)
	for _, dv := range dep.PicklistValues {
		validControlling, err := DecodeValidFor(dv.ValidFor, controlling)
		if err != nil {
			return nil, err
		}
		for _, cv := range validControlling {
			deps[cv] = append(deps[cv], dv.Value)
		}
	}
	for cv := range deps {
		sort.Strings(deps[cv])
	}
	return deps, nil
}

// decorateNotFound fills in the resource name on a wrapped *NotFoundError.
func decorateNotFound(err error, resource string) error {
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Resource == "" {
		nf.Resource = resource
	}
	return err
}
