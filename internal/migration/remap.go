package migration

import (
	"github.com/rflorenc/salesforce-org-workbench/internal/models"
)

// IDMap maps source record IDs to their destination counterparts. Built
// incrementally as batches succeed; consulted, never mutated, during remap.
type IDMap map[string]string

// Remap rewrites the configured lookup fields on each record from source IDs
// to destination IDs. A lookup whose value has no entry in ids is left as-is;
// the record will surface INVALID_CROSS_REFERENCE_KEY on upsert and land in
// the failure list with that error. Records are copied, not mutated.
func Remap(records []models.Record, ids IDMap, lookupFields []string) ([]models.Record, int) {
	remapped := make([]models.Record, 0, len(records))
	unmapped := 0
	for _, r := range records {
		cp := cloneRecord(r)
		for _, field := range lookupFields {
			sourceID, ok := cp[field].(string)
			if !ok || sourceID == "" {
				continue
			}
			if targetID, ok := ids[sourceID]; ok {
				cp[field] = targetID
			} else {
				unmapped++
			}
		}
		remapped = append(remapped, cp)
	}
	return remapped, unmapped
}
