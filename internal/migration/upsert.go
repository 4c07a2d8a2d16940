package migration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rflorenc/salesforce-org-workbench/internal/models"
	"github.com/rflorenc/salesforce-org-workbench/internal/salesforce"
)

// batchSize matches the composite collections API ceiling.
const batchSize = 200

// collectionResult is one entry of the composite/sobjects response array.
type collectionResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Errors  []struct {
		StatusCode string   `json:"statusCode"`
		Message    string   `json:"message"`
		Fields     []string `json:"fields"`
	} `json:"errors"`
}

// upsertOutcome collects per-record results across all batches of one phase.
type upsertOutcome struct {
	Created []models.CreatedRecord
	Errors  []models.RecordError
}

// upsertBatches inserts records into the destination in fixed-size batches.
// Each batch is submitted with allOrNone=false so individual record failures
// don't void the rest of the batch, and a whole-batch transport failure is
// recorded against its records without blocking subsequent batches. When
// externalIDField is set, the 18-character source record ID is stamped into
// that field before insert. Once a record's batch has been processed the
// record appears in exactly one of Created or Errors.
func upsertBatches(ctx context.Context, dst *salesforce.Client, object string, records []models.Record, externalIDField string, logger func(string)) (*upsertOutcome, error) {
	outcome := &upsertOutcome{}
	path := fmt.Sprintf("/services/data/v%s/composite/sobjects", dst.APIVersion())

	for i, batch := range chunkRecords(records, batchSize) {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		sourceIDs := make([]string, len(batch))
		payload := make([]models.Record, len(batch))
		for j, r := range batch {
			sourceIDs[j] = recordID(r)
			p := stripSystemKeys(r)
			p["attributes"] = map[string]string{"type": object}
			if externalIDField != "" {
				p[externalIDField] = salesforce.To18(sourceIDs[j])
			}
			payload[j] = p
		}

		body, _, err := dst.Post(ctx, path, map[string]interface{}{
			"allOrNone": false,
			"records":   payload,
		})
		if err != nil {
			// The batch call itself failed; every record in it gets that error.
			for _, sourceID := range sourceIDs {
				outcome.Errors = append(outcome.Errors, models.RecordError{
					RecordID:  sourceID,
					Object:    object,
					ErrorCode: "BATCH_REQUEST_FAILED",
					Message:   err.Error(),
				})
			}
			logger(fmt.Sprintf("  FAIL batch %d (%d records): %v", i+1, len(batch), err))
			continue
		}

		var results []collectionResult
		if err := json.Unmarshal(body, &results); err != nil {
			for _, sourceID := range sourceIDs {
				outcome.Errors = append(outcome.Errors, models.RecordError{
					RecordID:  sourceID,
					Object:    object,
					ErrorCode: "BATCH_RESPONSE_INVALID",
					Message:   err.Error(),
				})
			}
			continue
		}

		created, failed := 0, 0
		for j := range sourceIDs {
			if j >= len(results) {
				// Short response; the record was submitted but its fate is
				// unknown, so it counts as failed rather than vanishing.
				outcome.Errors = append(outcome.Errors, models.RecordError{
					RecordID:  sourceIDs[j],
					Object:    object,
					ErrorCode: "BATCH_RESPONSE_INVALID",
					Message:   fmt.Sprintf("response had %d results for %d records", len(results), len(sourceIDs)),
				})
				failed++
				continue
			}
			res := results[j]
			if res.Success {
				outcome.Created = append(outcome.Created, models.CreatedRecord{
					SourceID: sourceIDs[j],
					TargetID: res.ID,
					Object:   object,
				})
				created++
				continue
			}
			code, message := "UNKNOWN_ERROR", "record rejected without error detail"
			if len(res.Errors) > 0 {
				code, message = res.Errors[0].StatusCode, res.Errors[0].Message
			}
			outcome.Errors = append(outcome.Errors, models.RecordError{
				RecordID:  sourceIDs[j],
				Object:    object,
				ErrorCode: code,
				Message:   message,
			})
			failed++
		}
		logger(fmt.Sprintf("  batch %d: %d created, %d failed", i+1, created, failed))
	}
	return outcome, nil
}
