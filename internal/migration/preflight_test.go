package migration

import (
	"strings"
	"testing"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

func TestPlanFields(t *testing.T) {
	src := &salesforce.ObjectDescribe{Fields: []salesforce.Field{
		{Name: "Name", Createable: true},
		{Name: "Industry", Createable: true},
		{Name: "Legacy__c", Createable: true},
		{Name: "Total__c", Createable: true, Calculated: true}, // excluded at source already
		{Name: "CreatedDate"},                                  // not createable at source
	}}
	dst := &salesforce.ObjectDescribe{Fields: []salesforce.Field{
		{Name: "Name", Createable: true},
		{Name: "Industry", Createable: false},
	}}

	plans, copied := planFields(src, dst)

	wantActions := map[string]string{
		"Name":      "copy",
		"Industry":  "skip_readonly",
		"Legacy__c": "skip_missing",
	}
	if len(plans) != len(wantActions) {
		t.Fatalf("got %d plans, want %d", len(plans), len(wantActions))
	}
	for _, p := range plans {
		if wantActions[p.Name] != p.Action {
			t.Errorf("field %s action = %s, want %s", p.Name, p.Action, wantActions[p.Name])
		}
	}
	if len(copied) != 1 || copied[0] != "Name" {
		t.Errorf("copied = %v, want [Name]", copied)
	}
}

func TestPreflightWarnings(t *testing.T) {
	dst := &salesforce.ObjectDescribe{
		Name: "Account",
		Fields: []salesforce.Field{
			{Name: "Source_Id__c", Createable: true, ExternalID: true},
			{Name: "Plain__c", Createable: true},
		},
	}

	tests := []struct {
		name string
		plan models.MigrationPlan
		want string // substring of one expected warning, "" for none
	}{
		{
			name: "valid external ID field",
			plan: models.MigrationPlan{ExternalIDField: "Source_Id__c"},
			want: "",
		},
		{
			name: "missing external ID field",
			plan: models.MigrationPlan{ExternalIDField: "Nope__c"},
			want: "does not exist",
		},
		{
			name: "field not flagged externalId",
			plan: models.MigrationPlan{ExternalIDField: "Plain__c"},
			want: "not flagged as an external ID",
		},
		{
			name: "no external ID configured",
			plan: models.MigrationPlan{},
			want: "no external ID field configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := preflightWarnings(&tt.plan, dst, nil)
			if tt.want == "" {
				if len(warnings) != 0 {
					t.Errorf("warnings = %v, want none", warnings)
				}
				return
			}
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings = %v, want one containing %q", warnings, tt.want)
			}
		})
	}
}

func TestPreflightWarnings_SkippedFields(t *testing.T) {
	dst := &salesforce.ObjectDescribe{Name: "Account"}
	plans := []models.FieldPlan{
		{Name: "Name", Action: "copy"},
		{Name: "A__c", Action: "skip_missing"},
		{Name: "B__c", Action: "skip_readonly"},
	}
	warnings := preflightWarnings(&models.MigrationPlan{ExternalIDField: ""}, dst, plans)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "2 source field(s) will not be copied") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want skipped-field count", warnings)
	}
}
