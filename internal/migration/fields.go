package migration

import (
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// recordID extracts the Salesforce ID from a record.
func recordID(r models.Record) string {
	return r.ID()
}

// stringField safely extracts a string field, returning "" if nil.
func stringField(r models.Record, field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// cloneRecord returns a shallow copy of a record.
func cloneRecord(r models.Record) models.Record {
	cp := make(models.Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// stripSystemKeys removes the query envelope's attributes key and the
// record ID, leaving only writable payload fields.
func stripSystemKeys(r models.Record) models.Record {
	cp := cloneRecord(r)
	delete(cp, "attributes")
	delete(cp, "Id")
	return cp
}

// chunkIDs splits IDs into slices of at most size.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// chunkRecords splits records into slices of at most size.
func chunkRecords(records []models.Record, size int) [][]models.Record {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	var chunks [][]models.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
