package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cbredeem/internal/interfaces"
	"github.com/ternarybob/cbredeem/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

func resultKey(code string) string {
	return "result:" + strings.TrimSpace(code)
}

func (s *ResultStorage) SaveResult(ctx context.Context, result *models.CachedResult) error {
	if strings.TrimSpace(result.Code) == "" {
		return fmt.Errorf("result code is required")
	}
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}

	if err := s.db.Store().Upsert(resultKey(result.Code), result); err != nil {
		return fmt.Errorf("failed to store result for %s: %w", result.Code, err)
	}
	return nil
}

func (s *ResultStorage) GetResult(ctx context.Context, code string) (*models.CachedResult, error) {
	var result models.CachedResult
	if err := s.db.Store().Get(resultKey(code), &result); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result for %s: %w", code, err)
	}
	return &result, nil
}

// ListResults returns every cached result ordered by code
func (s *ResultStorage) ListResults(ctx context.Context) ([]*models.CachedResult, error) {
	var stored []models.CachedResult
	if err := s.db.Store().Find(&stored, nil); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]*models.CachedResult, len(stored))
	for i := range stored {
		results[i] = &stored[i]
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Code < results[j].Code })
	return results, nil
}

func (s *ResultStorage) CountResults(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.CachedResult{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return int(count), nil
}

func (s *ResultStorage) DeleteAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.CachedResult{}, nil); err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	s.logger.Debug().Msg("Cleared cached results")
	return nil
}
