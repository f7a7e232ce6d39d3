package redemption

import (
	"context"
	"fmt"

	"github.com/guregu/null/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cbredeem/internal/interfaces"
)

// Service runs the per-instrument pipeline: fetch the detail page, find the
// earliest forced-call announcement, then resolve the quoted price on that date.
type Service struct {
	provider interfaces.PageProvider
	logger   arbor.ILogger
}

// NewService creates a redemption service backed by the given page provider
func NewService(provider interfaces.PageProvider, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Process fetches the instrument's detail page and analyzes it. Only a
// provider failure is returned as an error; a page with no matching
// announcement yields a Result with no date.
func (s *Service) Process(ctx context.Context, inst Instrument) (*Result, error) {
	html, err := s.provider.Fetch(ctx, inst.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail page for %s: %w", inst.Code, err)
	}

	result, err := s.Analyze(inst, html)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze detail page for %s: %w", inst.Code, err)
	}
	return result, nil
}

// Analyze runs extraction, selection and price resolution over already
// rendered page content. It performs no I/O.
func (s *Service) Analyze(inst Instrument, html string) (*Result, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}

	result := &Result{Code: inst.Code, Name: inst.Name}

	records := extractFromDocument(doc)
	skipped := 0
	for _, r := range records {
		if !r.DateValid {
			skipped++
			s.logger.Debug().
				Str("code", inst.Code).
				Str("title", r.Title).
				Str("raw_date", r.RawDate).
				Msg("Announcement date not parsable, excluded")
		}
	}

	match := SelectEarliest(records, inst.Name)
	if !match.Found {
		s.logger.Info().
			Str("code", inst.Code).
			Str("name", inst.Name).
			Int("announcements", len(records)).
			Msg("No forced-call announcement found")
		return result, nil
	}

	result.Date = null.StringFrom(match.SelectedDate.Format(DateLayout))
	result.SourceTitle = match.SourceTitle

	res := resolveFromDocument(doc, match.SelectedDate)
	if res.RowFound {
		result.QuoteDate = null.StringFrom(res.QuoteDate.Format(DateLayout))
		result.Exact = res.Exact
	}
	result.Price = res.Price

	if !result.Price.Valid {
		s.logger.Warn().
			Str("code", inst.Code).
			Str("date", result.Date.String).
			Bool("row_found", res.RowFound).
			Msg("Forced-call date found but no price resolved")
	} else {
		s.logger.Debug().
			Str("code", inst.Code).
			Str("date", result.Date.String).
			Str("quote_date", result.QuoteDate.String).
			Str("price", result.Price.String).
			Bool("exact", result.Exact).
			Int("skipped_dates", skipped).
			Msg("Forced-call price resolved")
	}

	return result, nil
}
