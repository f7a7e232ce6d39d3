// Package augment walks the instrument table and fills in the forced-call
// date and price of every bond delisted for the target reason.
package augment

import (
	"context"
	"errors"
	"time"

	"github.com/guregu/null/v5"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/cbredeem/internal/common"
	"github.com/ternarybob/cbredeem/internal/interfaces"
	"github.com/ternarybob/cbredeem/internal/models"
	"github.com/ternarybob/cbredeem/internal/services/instruments"
	"github.com/ternarybob/cbredeem/internal/services/redemption"
)

// Processor runs the redemption pipeline for one instrument
type Processor interface {
	Process(ctx context.Context, inst redemption.Instrument) (*redemption.Result, error)
}

// Summary reports what one run did
type Summary struct {
	RunID       string
	Total       int // rows in the table
	Targets     int // rows whose delisting reason matched
	Processed   int // targets fetched and analyzed in this run
	Cached      int // targets answered from the result store
	DatesFound  int
	PricesFound int
	Failures    int // provider failures; these rows keep blank outputs
	Interrupted bool
	Duration    time.Duration
}

// Runner processes target rows strictly one after another
type Runner struct {
	processor Processor
	results   interfaces.ResultStorage // nil disables caching
	config    common.AugmentConfig
	logger    arbor.ILogger
	limiter   *rate.Limiter
}

// NewRunner creates a runner. results may be nil.
func NewRunner(processor Processor, results interfaces.ResultStorage, config common.AugmentConfig, logger arbor.ILogger) *Runner {
	r := &Runner{
		processor: processor,
		results:   results,
		config:    config,
		logger:    logger,
	}
	if delay := config.InstrumentDelayDuration(); delay > 0 {
		r.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return r
}

func (r *Runner) columnNames() instruments.ColumnNames {
	return instruments.ColumnNames{
		Code:   r.config.CodeColumn,
		Name:   r.config.NameColumn,
		Reason: r.config.ReasonColumn,
		Date:   r.config.DateColumn,
		Price:  r.config.PriceColumn,
	}
}

// Run fills the output columns of table in place. Cancelling ctx stops the
// run before the next instrument; values already written stay in the table
// and the summary is returned with Interrupted set.
func (r *Runner) Run(ctx context.Context, table *instruments.Table) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{RunID: common.NewRunID()}

	if table.DropIndexColumn() {
		r.logger.Debug().Msg("Dropped unnamed index column")
	}

	cols, err := table.ResolveColumns(r.columnNames())
	if err != nil {
		return nil, err
	}

	rows := table.InstrumentRows(cols)
	summary.Total = len(rows)

	r.logger.Info().
		Str("run_id", summary.RunID).
		Int("rows", summary.Total).
		Str("target_reason", r.config.TargetReason).
		Bool("resume", r.config.Resume && r.results != nil).
		Msg("Starting augment run")

	for _, row := range rows {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		if row.DelistReason != r.config.TargetReason {
			continue
		}
		summary.Targets++

		if r.applyCached(ctx, table, cols, &row, summary) {
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				summary.Interrupted = true
				break
			}
		}

		inst := redemption.Instrument{Code: row.Code, Name: row.Name}
		result, err := r.processor.Process(ctx, inst)
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			summary.Failures++
			r.logger.Error().
				Err(err).
				Str("code", row.Code).
				Str("name", row.Name).
				Msg("Instrument failed, leaving outputs blank")
			continue
		}

		summary.Processed++
		r.apply(table, cols, &row, result.Date, result.Price, summary)
		r.store(ctx, summary.RunID, result)

		r.logger.Info().
			Str("code", row.Code).
			Str("name", row.Name).
			Str("date", result.Date.ValueOrZero()).
			Str("price", result.Price.ValueOrZero()).
			Msg("Instrument processed")
	}

	summary.Duration = time.Since(startTime)

	if summary.Interrupted {
		r.logger.Warn().
			Int("processed", summary.Processed).
			Int("targets_seen", summary.Targets).
			Msg("Augment run interrupted, keeping partial results")
	}

	r.logger.Info().
		Str("run_id", summary.RunID).
		Int("targets", summary.Targets).
		Int("processed", summary.Processed).
		Int("cached", summary.Cached).
		Int("dates_found", summary.DatesFound).
		Int("prices_found", summary.PricesFound).
		Int("failures", summary.Failures).
		Dur("duration", summary.Duration).
		Msg("Augment run finished")

	return summary, nil
}

func (r *Runner) applyCached(ctx context.Context, table *instruments.Table, cols instruments.Columns, row *instruments.InstrumentRow, summary *Summary) bool {
	if !r.config.Resume || r.results == nil {
		return false
	}

	cached, err := r.results.GetResult(ctx, row.Code)
	if err != nil {
		if !errors.Is(err, interfaces.ErrResultNotFound) {
			r.logger.Warn().Err(err).Str("code", row.Code).Msg("Failed to read cached result")
		}
		return false
	}

	// A page rendered without login can lack the announcements; look again
	if cached.Date == "" {
		r.logger.Debug().
			Str("code", row.Code).
			Str("run_id", cached.RunID).
			Msg("Cached result has no date, fetching again")
		return false
	}

	summary.Cached++
	r.apply(table, cols, row, optional(cached.Date), optional(cached.Price), summary)

	r.logger.Debug().
		Str("code", row.Code).
		Str("date", cached.Date).
		Str("price", cached.Price).
		Str("run_id", cached.RunID).
		Msg("Using cached result")
	return true
}

func (r *Runner) apply(table *instruments.Table, cols instruments.Columns, row *instruments.InstrumentRow, date, price null.String, summary *Summary) {
	if date.Valid {
		row.RedemptionDate = date
		summary.DatesFound++
	}
	if price.Valid {
		row.RedemptionPrice = price
		summary.PricesFound++
	}
	table.Apply(*row, cols)
}

func (r *Runner) store(ctx context.Context, runID string, result *redemption.Result) {
	if r.results == nil {
		return
	}

	cached := &models.CachedResult{
		Code:        result.Code,
		Name:        result.Name,
		Date:        result.Date.ValueOrZero(),
		Price:       result.Price.ValueOrZero(),
		SourceTitle: result.SourceTitle,
		QuoteDate:   result.QuoteDate.ValueOrZero(),
		FetchedAt:   time.Now(),
		RunID:       runID,
	}
	if err := r.results.SaveResult(context.WithoutCancel(ctx), cached); err != nil {
		r.logger.Warn().Err(err).Str("code", result.Code).Msg("Failed to cache result")
	}
}

// optional treats the empty string stored for a missing value as null
func optional(s string) null.String {
	return null.NewString(s, s != "")
}
