package domain

import "time"

// IngestEvent announces that a batch of crash records was stored.
type IngestEvent struct {
	BatchID  string    `json:"batch_id"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Stored   int       `json:"stored"`
	Skipped  int       `json:"skipped"`
	Finished time.Time `json:"finished"`
}
