package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// idChunkSize bounds the number of IDs per IN clause so the SOQL string
// stays under the API's query length ceiling.
const idChunkSize = 200

// buildParentSOQL assembles the parent export query. The WHERE fragment is
// the user's raw SOQL, passed through unvalidated (admin trust boundary,
// same as direct SOQL access).
func buildParentSOQL(object string, fields []string, where string, recordIDs []string, limit int) string {
	var sb strings.Builder
	sb.WriteString("SELECT Id")
	for _, f := range fields {
		if f == "Id" {
			continue
		}
		sb.WriteString(", ")
		sb.WriteString(f)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(object)

	var clauses []string
	if where != "" {
		clauses = append(clauses, "("+where+")")
	}
	if len(recordIDs) > 0 {
		clauses = append(clauses, "Id IN ("+salesforce.QuotedIDList(recordIDs)+")")
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}
	return sb.String()
}

// exportParents queries the source org for the plan's parent records.
// Re-running the same query against an unchanged dataset yields the same
// record set.
func exportParents(ctx context.Context, src *salesforce.Client, plan *models.MigrationPlan, fields []string, logger func(string)) ([]models.Record, error) {
	soql := buildParentSOQL(plan.Object, fields, plan.Where, plan.RecordIDs, plan.Limit)
	records, err := src.QueryAll(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", plan.Object, err)
	}
	logger(fmt.Sprintf("  %d %s records exported", len(records), plan.Object))
	return records, nil
}

// exportChildren re-queries child records by parent ID set, following the
// relationship's foreign key field. Parent IDs are chunked to keep each
// query within length limits.
func exportChildren(ctx context.Context, src *salesforce.Client, rel *salesforce.ChildRelationship, fields []string, parentIDs []string, logger func(string)) ([]models.Record, error) {
	var all []models.Record
	for _, chunk := range chunkIDs(parentIDs, idChunkSize) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var sb strings.Builder
		sb.WriteString("SELECT Id")
		for _, f := range fields {
			if f == "Id" {
				continue
			}
			sb.WriteString(", ")
			sb.WriteString(f)
		}
		fmt.Fprintf(&sb, " FROM %s WHERE %s IN (%s)", rel.ChildSObject, rel.Field, salesforce.QuotedIDList(chunk))

		records, err := src.QueryAll(ctx, sb.String())
		if err != nil {
			return nil, fmt.Errorf("exporting %s via %s: %w", rel.ChildSObject, rel.RelationshipName, err)
		}
		all = append(all, records...)
	}
	logger(fmt.Sprintf("  %d %s records exported (%s)", len(all), rel.ChildSObject, rel.RelationshipName))
	return all, nil
}
