// Package redemption locates the forced-call (early redemption) announcement on a
// convertible bond detail page and resolves the price quoted on that date.
// Everything in this package is pure: no I/O, no browser awareness.
package redemption

import (
	"time"

	"github.com/guregu/null/v5"
)

// DateLayout is the format used by both the announcement panel and the quote table.
const DateLayout = "2006-01-02"

// Instrument identifies a single bond to process.
type Instrument struct {
	Code string
	Name string
}

// AnnouncementRecord is a single row of the announcements panel.
type AnnouncementRecord struct {
	Title           string // raw headline, kept for diagnostics
	NormalizedTitle string // whitespace and quotation marks removed, used for matching
	RawDate         string
	Date            time.Time
	DateValid       bool // false when RawDate failed to parse; such records never match
}

// MatchResult carries the earliest matching announcement date.
type MatchResult struct {
	Found        bool
	SelectedDate time.Time
	SourceTitle  string // one of the titles carrying SelectedDate
}

// PriceQuoteRow is a dated row of the historical quote table.
type PriceQuoteRow struct {
	QuoteDate time.Time
	Price     string
	HasPrice  bool
}

// Resolution is the outcome of resolving a price row for a target date.
type Resolution struct {
	RowFound  bool
	Exact     bool
	QuoteDate time.Time
	Price     null.String
}

// Result is the per-instrument pipeline output.
type Result struct {
	Code        string
	Name        string
	Date        null.String // YYYY-MM-DD of the earliest matching announcement
	Price       null.String // price text of the resolved quote row
	SourceTitle string
	QuoteDate   null.String
	Exact       bool
}

// HasDate reports whether a redemption announcement was found.
func (r *Result) HasDate() bool {
	return r != nil && r.Date.Valid
}

// HasPrice reports whether a price was resolved for the announcement date.
func (r *Result) HasPrice() bool {
	return r != nil && r.Price.Valid
}
