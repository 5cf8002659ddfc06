package models

// BulkSummary aggregates the outcome of a best-effort bulk load.
type BulkSummary struct {
	RunID     string `json:"run_id"`
	Requested int    `json:"requested"`
	Loaded    int    `json:"loaded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	FailedIDs []int  `json:"failed_ids,omitempty"`
	// Complete reports that the run finished with no failures.
	Complete bool `json:"complete"`
}

// RecordFailure counts a failed id.
func (s *BulkSummary) RecordFailure(id int) {
	s.Failed++
	s.FailedIDs = append(s.FailedIDs, id)
}
