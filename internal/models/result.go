package models

import "time"

// CachedResult is the stored outcome of one instrument's pipeline run.
// Empty Date or Price means the value was not found.
type CachedResult struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Price       string    `json:"price"`
	SourceTitle string    `json:"source_title"`
	QuoteDate   string    `json:"quote_date"`
	FetchedAt   time.Time `json:"fetched_at"`
	RunID       string    `json:"run_id" badgerhold:"index"`
}
