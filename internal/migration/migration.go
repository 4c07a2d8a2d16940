package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// Phase identifies one step of the migration state machine. Transitions are
// strictly sequential; each phase's output is required input for the next.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseDescribingSchema  Phase = "describing_schema"
	PhaseExportingParents  Phase = "exporting_parents"
	PhaseUpsertingParents  Phase = "upserting_parents"
	PhaseBuildingIDMap     Phase = "building_id_map"
	PhaseExportingChildren Phase = "exporting_children"
	PhaseUpsertingChildren Phase = "upserting_children"
	PhaseDone              Phase = "done"
	PhaseFailed            Phase = "failed"
)

// childSchema is the resolved schema for one selected child relationship.
type childSchema struct {
	rel          *salesforce.ChildRelationship
	copyFields   []string
	lookupFields []string
}

// Orchestrator sequences one migration run. A phase-level failure halts the
// run; record-level failures inside the upsert phases are recorded and the
// phase always attempts all batches before transitioning.
type Orchestrator struct {
	src  *salesforce.Client
	dst  *salesforce.Client
	plan *models.MigrationPlan

	phase   Phase
	phaseFn func(Phase) // optional observer, e.g. job phase reporting

	parentFields []string
	children     []childSchema
}

// NewOrchestrator creates an orchestrator for one run of the given plan.
func NewOrchestrator(src, dst *salesforce.Client, plan *models.MigrationPlan, phaseFn func(Phase)) *Orchestrator {
	return &Orchestrator{src: src, dst: dst, plan: plan, phase: PhaseIdle, phaseFn: phaseFn}
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

func (o *Orchestrator) transition(p Phase) {
	o.phase = p
	if o.phaseFn != nil {
		o.phaseFn(p)
	}
}

// Run executes the full phase sequence. All network calls are awaited
// sequentially; parents must exist on the destination before children
// reference them. Cancellation is honored between phases and batches.
func (o *Orchestrator) Run(ctx context.Context, logger func(string)) (*models.MigrationResult, error) {
	result := &models.MigrationResult{Succeeded: []models.CreatedRecord{}, Failed: []models.RecordError{}}

	fail := func(err error) (*models.MigrationResult, error) {
		o.transition(PhaseFailed)
		return result, err
	}

	// 1. Describe schema on both orgs.
	o.transition(PhaseDescribingSchema)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	logger("=== Describing schema ===")
	srcDesc, err := o.src.Describe(ctx, o.plan.Object)
	if err != nil {
		return fail(fmt.Errorf("describing source %s: %w", o.plan.Object, err))
	}
	dstDesc, err := o.dst.Describe(ctx, o.plan.Object)
	if err != nil {
		return fail(fmt.Errorf("describing destination %s: %w", o.plan.Object, err))
	}
	_, o.parentFields = planFields(srcDesc, dstDesc)
	logger(fmt.Sprintf("  %s: %d fields will be copied", o.plan.Object, len(o.parentFields)))

	for _, relName := range o.plan.Relationships {
		rel := srcDesc.Relationship(relName)
		if rel == nil {
			return fail(fmt.Errorf("relationship %q not found on %s", relName, o.plan.Object))
		}
		childSrc, err := o.src.Describe(ctx, rel.ChildSObject)
		if err != nil {
			return fail(fmt.Errorf("describing source %s: %w", rel.ChildSObject, err))
		}
		childDst, err := o.dst.Describe(ctx, rel.ChildSObject)
		if err != nil {
			return fail(fmt.Errorf("describing destination %s: %w", rel.ChildSObject, err))
		}
		_, copyFields := planFields(childSrc, childDst)

		var lookups []string
		copied := make(map[string]bool, len(copyFields))
		for _, f := range copyFields {
			copied[f] = true
		}
		for _, f := range childSrc.LookupFields() {
			if copied[f.Name] {
				lookups = append(lookups, f.Name)
			}
		}
		o.children = append(o.children, childSchema{rel: rel, copyFields: copyFields, lookupFields: lookups})
		logger(fmt.Sprintf("  %s (%s): %d fields, %d lookups to remap", rel.ChildSObject, relName, len(copyFields), len(lookups)))
	}

	// 2. Export parents.
	o.transition(PhaseExportingParents)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	logger("")
	logger("=== Exporting parent records ===")
	parents, err := exportParents(ctx, o.src, o.plan, o.parentFields, logger)
	if err != nil {
		return fail(err)
	}

	// 3. Upsert parents into the destination.
	o.transition(PhaseUpsertingParents)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	logger("")
	logger("=== Upserting parent records ===")
	parentOutcome, err := upsertBatches(ctx, o.dst, o.plan.Object, parents, o.plan.ExternalIDField, logger)
	result.Succeeded = append(result.Succeeded, parentOutcome.Created...)
	result.Failed = append(result.Failed, parentOutcome.Errors...)
	if err != nil {
		return fail(err)
	}

	// 4. Build the source → destination ID mapping from successful inserts.
	o.transition(PhaseBuildingIDMap)
	ids := make(IDMap, len(parentOutcome.Created))
	for _, cr := range parentOutcome.Created {
		ids[cr.SourceID] = cr.TargetID
	}
	logger("")
	logger(fmt.Sprintf("=== ID map built: %d parent records mapped ===", len(ids)))

	parentIDs := make([]string, 0, len(parents))
	for _, p := range parents {
		parentIDs = append(parentIDs, recordID(p))
	}

	// 5. Export and 6. upsert children per selected relationship. Lookup
	// fields are rewritten through the ID map; unmapped lookups keep their
	// source IDs.
	o.transition(PhaseExportingChildren)
	logger("")
	logger("=== Exporting child records ===")
	childRecords := make([][]models.Record, len(o.children))
	for i, cs := range o.children {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		records, err := exportChildren(ctx, o.src, cs.rel, cs.copyFields, parentIDs, logger)
		if err != nil {
			return fail(err)
		}
		childRecords[i] = records
	}

	o.transition(PhaseUpsertingChildren)
	logger("")
	logger("=== Upserting child records ===")
	for i, cs := range o.children {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		remapped, unmapped := Remap(childRecords[i], ids, cs.lookupFields)
		if unmapped > 0 {
			logger(fmt.Sprintf("  WARNING: %d lookup value(s) on %s have no mapped parent and keep their source IDs", unmapped, cs.rel.ChildSObject))
		}
		outcome, err := upsertBatches(ctx, o.dst, cs.rel.ChildSObject, remapped, o.plan.ExternalIDField, logger)
		result.Succeeded = append(result.Succeeded, outcome.Created...)
		result.Failed = append(result.Failed, outcome.Errors...)
		if err != nil {
			return fail(err)
		}
	}

	o.transition(PhaseDone)
	logger("")
	logger(fmt.Sprintf("=== Migration complete: %d succeeded, %d failed ===", len(result.Succeeded), len(result.Failed)))
	return result, nil
}

// whereClause combines the plan's WHERE fragment and record ID selection.
func whereClause(plan *models.MigrationPlan) string {
	var clauses []string
	if plan.Where != "" {
		clauses = append(clauses, "("+plan.Where+")")
	}
	if len(plan.RecordIDs) > 0 {
		clauses = append(clauses, "Id IN ("+salesforce.QuotedIDList(plan.RecordIDs)+")")
	}
	return strings.Join(clauses, " AND ")
}

// Preview describes both orgs, classifies the field mapping, and counts the
// records a run would touch. Nothing is written to the destination.
func Preview(ctx context.Context, src, dst *models.Connection, plan *models.MigrationPlan, logger func(string)) (*models.MigrationPreview, error) {
	srcClient := salesforce.NewClient(src)
	dstClient := salesforce.NewClient(dst)

	logger("Checking source connectivity...")
	if err := srcClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("source connection failed: %w", err)
	}
	logger("Source OK: " + src.Name)

	logger("Checking destination connectivity...")
	if err := dstClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("destination connection failed: %w", err)
	}
	logger("Destination OK: " + dst.Name)

	logger("")
	logger("=== Describing " + plan.Object + " ===")
	srcDesc, err := srcClient.Describe(ctx, plan.Object)
	if err != nil {
		return nil, fmt.Errorf("describing source %s: %w", plan.Object, err)
	}
	dstDesc, err := dstClient.Describe(ctx, plan.Object)
	if err != nil {
		return nil, fmt.Errorf("describing destination %s: %w", plan.Object, err)
	}

	fieldPlans, _ := planFields(srcDesc, dstDesc)

	preview := &models.MigrationPreview{
		SourceID:      src.ID,
		DestinationID: dst.ID,
		Object:        plan.Object,
		Fields:        fieldPlans,
		ChildCounts:   make(map[string]int),
	}

	// Parent count.
	countSOQL := "SELECT COUNT() FROM " + plan.Object
	if wc := whereClause(plan); wc != "" {
		countSOQL += " WHERE " + wc
	}
	count, err := srcClient.Count(ctx, countSOQL)
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", plan.Object, err)
	}
	if plan.Limit > 0 && count > plan.Limit {
		count = plan.Limit
	}
	preview.ParentCount = count
	logger(fmt.Sprintf("  %d parent record(s) match", count))

	// Child counts follow the parent ID set.
	if len(plan.Relationships) > 0 {
		idSOQL := buildParentSOQL(plan.Object, nil, plan.Where, plan.RecordIDs, plan.Limit)
		parents, err := srcClient.QueryAll(ctx, idSOQL)
		if err != nil {
			return nil, fmt.Errorf("listing parent IDs: %w", err)
		}
		parentIDs := make([]string, 0, len(parents))
		for _, p := range parents {
			parentIDs = append(parentIDs, recordID(p))
		}

		for _, relName := range plan.Relationships {
			rel := srcDesc.Relationship(relName)
			if rel == nil {
				preview.Warnings = append(preview.Warnings,
					fmt.Sprintf("relationship %q not found on %s; it will fail the run", relName, plan.Object))
				continue
			}
			total := 0
			for _, chunk := range chunkIDs(parentIDs, idChunkSize) {
				n, err := srcClient.Count(ctx, fmt.Sprintf(
					"SELECT COUNT() FROM %s WHERE %s IN (%s)", rel.ChildSObject, rel.Field, salesforce.QuotedIDList(chunk)))
				if err != nil {
					return nil, fmt.Errorf("counting %s: %w", rel.ChildSObject, err)
				}
				total += n
			}
			preview.ChildCounts[relName] = total
			logger(fmt.Sprintf("  %s (%s): %d child record(s)", rel.ChildSObject, relName, total))
		}
	}

	preview.Warnings = append(preview.Warnings, preflightWarnings(plan, dstDesc, fieldPlans)...)

	logger("")
	logger(fmt.Sprintf("Preview complete: %d parent(s), %d warning(s)", preview.ParentCount, len(preview.Warnings)))
	return preview, nil
}

// Run executes a migration for the given plan. The export is performed fresh
// at run time so the run sees the current dataset, not the preview's.
func Run(ctx context.Context, src, dst *models.Connection, plan *models.MigrationPlan, logger func(string), phaseFn func(Phase)) (*models.MigrationResult, error) {
	srcClient := salesforce.NewClient(src)
	dstClient := salesforce.NewClient(dst)

	logger("=== Starting migration to " + dst.Name + " ===")
	logger("")

	o := NewOrchestrator(srcClient, dstClient, plan, phaseFn)
	return o.Run(ctx, logger)
}
