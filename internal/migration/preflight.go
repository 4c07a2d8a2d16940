package migration

import (
	"fmt"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// planFields classifies each source field against the destination describe
// and returns the field plans plus the API names that will be copied.
// The record ID is never copied; it travels through the external ID field.
func planFields(src, dst *salesforce.ObjectDescribe) ([]models.FieldPlan, []string) {
	var plans []models.FieldPlan
	var copied []string
	for _, f := range src.CreateableFields() {
		target := dst.FieldByName(f.Name)
		switch {
		case target == nil:
			plans = append(plans, models.FieldPlan{Name: f.Name, Action: "skip_missing"})
		case !target.Createable || target.Calculated:
			plans = append(plans, models.FieldPlan{Name: f.Name, Action: "skip_readonly"})
		default:
			plans = append(plans, models.FieldPlan{Name: f.Name, Action: "copy"})
			copied = append(copied, f.Name)
		}
	}
	return plans, copied
}

// preflightWarnings checks the external ID field and field plan for
// conditions the operator should see before running.
func preflightWarnings(plan *models.MigrationPlan, dst *salesforce.ObjectDescribe, fieldPlans []models.FieldPlan) []string {
	var warnings []string

	if plan.ExternalIDField != "" {
		f := dst.FieldByName(plan.ExternalIDField)
		switch {
		case f == nil:
			warnings = append(warnings, fmt.Sprintf(
				"external ID field %s does not exist on destination %s; source IDs will not be stamped",
				plan.ExternalIDField, dst.Name))
		case !f.Createable:
			warnings = append(warnings, fmt.Sprintf(
				"external ID field %s is not createable on destination %s", plan.ExternalIDField, dst.Name))
		case !f.ExternalID:
			warnings = append(warnings, fmt.Sprintf(
				"field %s is not flagged as an external ID on destination %s; upsert reconciliation by source ID will not work",
				plan.ExternalIDField, dst.Name))
		}
	} else {
		warnings = append(warnings,
			"no external ID field configured; migrated records cannot be reconciled back to their source IDs")
	}

	skipped := 0
	for _, fp := range fieldPlans {
		if fp.Action != "copy" {
			skipped++
		}
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d source field(s) will not be copied (missing or read-only on destination)", skipped))
	}
	return warnings
}
