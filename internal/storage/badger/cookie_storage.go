package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cbredeem/internal/interfaces"
	"github.com/ternarybob/cbredeem/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CookieStorage implements the CookieStorage interface for Badger.
// Jars are keyed by site domain, lower-cased and without a leading dot.
type CookieStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCookieStorage creates a new CookieStorage instance
func NewCookieStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CookieStorage {
	return &CookieStorage{
		db:     db,
		logger: logger,
	}
}

func cookieKey(domain string) string {
	return "cookies:" + normalizeDomain(domain)
}

func normalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func (s *CookieStorage) SaveCookies(ctx context.Context, domain string, cookies []models.CookieRecord) error {
	if normalizeDomain(domain) == "" {
		return fmt.Errorf("cookie domain is required")
	}

	jar := &models.CookieJar{
		Domain:    normalizeDomain(domain),
		Cookies:   cookies,
		UpdatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(cookieKey(domain), jar); err != nil {
		return fmt.Errorf("failed to store cookies for %s: %w", domain, err)
	}

	s.logger.Debug().
		Str("domain", jar.Domain).
		Int("cookies", len(cookies)).
		Msg("Stored cookies")
	return nil
}

func (s *CookieStorage) GetCookies(ctx context.Context, domain string) (*models.CookieJar, error) {
	var jar models.CookieJar
	if err := s.db.Store().Get(cookieKey(domain), &jar); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrCookiesNotFound
		}
		return nil, fmt.Errorf("failed to get cookies for %s: %w", domain, err)
	}
	return &jar, nil
}

func (s *CookieStorage) DeleteCookies(ctx context.Context, domain string) error {
	if err := s.db.Store().Delete(cookieKey(domain), &models.CookieJar{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete cookies for %s: %w", domain, err)
	}
	return nil
}
