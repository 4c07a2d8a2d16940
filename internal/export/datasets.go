package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// PicklistMatrix builds the per-object picklist export: one row per active
// value across all picklist fields of the object.
func PicklistMatrix(d *salesforce.ObjectDescribe) *Dataset {
	ds := &Dataset{
		Name:   d.Name + "_picklists",
		Header: []string{"object", "object_label", "field", "field_label", "value"},
	}
	for _, f := range d.PicklistFields() {
		for _, v := range f.PicklistValues {
			if !v.Active {
				continue
			}
			ds.Rows = append(ds.Rows, []string{d.Name, d.LabelPlural, f.Name, f.Label, v.Value})
		}
	}
	return ds
}

// ValueSet builds the per-field picklist value export, order-preserving.
func ValueSet(object, field string, values []salesforce.PicklistValue) *Dataset {
	ds := &Dataset{
		Name:   object + "_" + field + "_values",
		Header: []string{"label", "value", "active"},
	}
	for _, v := range values {
		ds.Rows = append(ds.Rows, []string{v.Label, v.Value, strconv.FormatBool(v.Active)})
	}
	return ds
}

// ParseValueSet reads a value-set CSV (as produced by ValueSet) back into
// picklist entries, order-preserving. A header row is recognized and
// skipped. Fails with *salesforce.ValidationError on empty input.
func ParseValueSet(r io.Reader) ([]salesforce.PicklistEntry, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && strings.EqualFold(rows[0][0], "label") {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &salesforce.ValidationError{Message: "CSV contains no picklist values"}
	}

	entries := make([]salesforce.PicklistEntry, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		e := salesforce.PicklistEntry{Label: row[0]}
		if len(row) > 1 && row[1] != "" {
			e.FullName = row[1]
		} else {
			e.FullName = row[0]
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, &salesforce.ValidationError{Message: "CSV contains no picklist values"}
	}
	return entries, nil
}

// ValidationRules builds the validation rule export for an object.
func ValidationRules(rules []salesforce.ValidationRule) *Dataset {
	ds := &Dataset{
		Name:   "validation_rules",
		Header: []string{"object", "name", "active", "error_display_field", "error_message", "description"},
	}
	for _, r := range rules {
		ds.Rows = append(ds.Rows, []string{
			r.Object, r.Name, strconv.FormatBool(r.Active), r.ErrorDisplayField, r.ErrorMessage, r.Description,
		})
	}
	return ds
}

// FieldDependencies builds the dependent-picklist export: one row per
// (controlling value, dependent value) pair.
func FieldDependencies(object, field string, deps map[string][]string, controllingOrder []string) *Dataset {
	ds := &Dataset{
		Name:   object + "_" + field + "_dependencies",
		Header: []string{"object", "field", "controlling_value", "dependent_value"},
	}
	for _, cv := range controllingOrder {
		for _, dv := range deps[cv] {
			ds.Rows = append(ds.Rows, []string{object, field, cv, dv})
		}
	}
	return ds
}

// FieldPermissions builds the field-level security export for an object.
func FieldPermissions(perms []salesforce.FieldPermission) *Dataset {
	ds := &Dataset{
		Name:   "field_permissions",
		Header: []string{"parent", "field", "readable", "editable"},
	}
	for _, p := range perms {
		ds.Rows = append(ds.Rows, []string{
			p.ParentName, p.Field, strconv.FormatBool(p.Readable), strconv.FormatBool(p.Editable),
		})
	}
	return ds
}

// MigrationResultDataset builds the per-record outcome export for a run.
func MigrationResultDataset(result *models.MigrationResult) *Dataset {
	ds := &Dataset{
		Name:   "migration_result",
		Header: []string{"record_id", "object", "status", "target_id", "error_code", "message"},
	}
	for _, cr := range result.Succeeded {
		ds.Rows = append(ds.Rows, []string{cr.SourceID, cr.Object, "created", cr.TargetID, "", ""})
	}
	for _, re := range result.Failed {
		ds.Rows = append(ds.Rows, []string{re.RecordID, re.Object, "failed", "", re.ErrorCode, re.Message})
	}
	return ds
}
