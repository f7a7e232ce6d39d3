// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 4:12:09 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/cbredeem/internal/models"
)

// ErrResultNotFound is returned when no cached result exists for an identifier
var ErrResultNotFound = errors.New("result not found")

// ErrCookiesNotFound is returned when no cookie jar has been stored for a domain
var ErrCookiesNotFound = errors.New("cookies not found")

// ResultStorage - interface for per-instrument redemption results
type ResultStorage interface {
	SaveResult(ctx context.Context, result *models.CachedResult) error
	GetResult(ctx context.Context, code string) (*models.CachedResult, error)
	ListResults(ctx context.Context) ([]*models.CachedResult, error)
	CountResults(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// CookieStorage - interface for browser cookies captured after a manual login
type CookieStorage interface {
	SaveCookies(ctx context.Context, domain string, cookies []models.CookieRecord) error
	GetCookies(ctx context.Context, domain string) (*models.CookieJar, error)
	DeleteCookies(ctx context.Context, domain string) error
}
