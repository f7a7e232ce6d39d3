// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 6:40:12 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cbredeem/internal/common"
	"github.com/ternarybob/cbredeem/internal/interfaces"
	"github.com/ternarybob/cbredeem/internal/models"
	"github.com/ternarybob/cbredeem/internal/services/augment"
	"github.com/ternarybob/cbredeem/internal/services/browser"
	"github.com/ternarybob/cbredeem/internal/services/delisted"
	"github.com/ternarybob/cbredeem/internal/services/redemption"
	"github.com/ternarybob/cbredeem/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB            *badger.BadgerDB
	ResultStorage interfaces.ResultStorage
	CookieStorage interfaces.CookieStorage

	// Browser session, nil until StartBrowser
	Browser *browser.Session
}

// New initializes storage. The browser is started separately because not
// every command needs one.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return app, nil
}

func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}

	a.DB = db
	a.ResultStorage = badger.NewResultStorage(db, a.Logger)
	a.CookieStorage = badger.NewCookieStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// CookieDomain is the key cookies for the configured site are stored under
func (a *App) CookieDomain() (string, error) {
	return browser.CookieDomain(a.Config.Browser.LoginURL)
}

// StartBrowser launches Chrome with any stored cookies for the site
func (a *App) StartBrowser(ctx context.Context) error {
	if a.Browser != nil {
		return nil
	}

	domain, err := a.CookieDomain()
	if err != nil {
		return err
	}

	jar, err := a.CookieStorage.GetCookies(ctx, domain)
	switch {
	case errors.Is(err, interfaces.ErrCookiesNotFound):
		a.Logger.Info().Str("domain", domain).Msg("No stored cookies, browsing anonymously (run `cbredeem cookies` to log in)")
	case err != nil:
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	var cookies []models.CookieRecord
	if jar != nil {
		cookies = jar.Cookies
	}

	session := browser.NewSession(a.Config.Browser, a.Logger)
	if err := session.Start(ctx, cookies); err != nil {
		return err
	}

	a.Browser = session
	return nil
}

// RedemptionService returns the per-instrument pipeline backed by the browser
func (a *App) RedemptionService() (*redemption.Service, error) {
	if a.Browser == nil {
		return nil, browser.ErrNotStarted
	}
	return redemption.NewService(a.Browser, a.Logger), nil
}

// AugmentRunner returns a runner over the redemption pipeline and result cache
func (a *App) AugmentRunner() (*augment.Runner, error) {
	svc, err := a.RedemptionService()
	if err != nil {
		return nil, err
	}
	return augment.NewRunner(svc, a.ResultStorage, a.Config.Augment, a.Logger), nil
}

// DelistedService returns the delisted list downloader backed by the browser
func (a *App) DelistedService() (*delisted.Service, error) {
	if a.Browser == nil {
		return nil, browser.ErrNotStarted
	}
	return delisted.NewService(a.Browser, a.Config.Browser.DelistedURL, a.Logger), nil
}

// Close shuts down the browser and the database
func (a *App) Close() error {
	if a.Browser != nil {
		if err := a.Browser.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close browser")
		}
		a.Browser = nil
		a.Logger.Debug().Msg("Browser closed")
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.DB = nil
		a.Logger.Debug().Msg("Database closed")
	}

	return nil
}
