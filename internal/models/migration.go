package models

// MigrationPlan describes one record migration run. Immutable once a run starts.
type MigrationPlan struct {
	SourceID        string   `json:"source_id"`
	DestinationID   string   `json:"destination_id"`
	Object          string   `json:"object"`
	Where           string   `json:"where,omitempty"` // raw SOQL fragment, passed through
	Limit           int      `json:"limit,omitempty"`
	RecordIDs       []string `json:"record_ids,omitempty"`     // explicit parent selection
	Relationships   []string `json:"relationships,omitempty"`  // child relationship names to follow
	ExternalIDField string   `json:"external_id_field,omitempty"`
}

// FieldPlan classifies how one source field will be handled on the destination.
type FieldPlan struct {
	Name   string `json:"name"`
	Action string `json:"action"` // "copy", "skip_missing", "skip_readonly"
}

// MigrationPreview holds the results of the describe + preflight step.
type MigrationPreview struct {
	SourceID      string         `json:"source_id"`
	DestinationID string         `json:"destination_id"`
	Object        string         `json:"object"`
	ParentCount   int            `json:"parent_count"`
	ChildCounts   map[string]int `json:"child_counts,omitempty"` // relationship name → record count
	Fields        []FieldPlan    `json:"fields"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// CreatedRecord maps a migrated source record to its destination counterpart.
type CreatedRecord struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Object   string `json:"object"`
}

// RecordError describes a single record that failed to migrate.
type RecordError struct {
	RecordID  string `json:"record_id"`
	Object    string `json:"object"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// MigrationResult accumulates per-record outcomes during a run.
// Once a record's batch has been processed it appears in exactly one of
// Succeeded or Failed.
type MigrationResult struct {
	Succeeded []CreatedRecord `json:"succeeded"`
	Failed    []RecordError   `json:"failed"`
}
