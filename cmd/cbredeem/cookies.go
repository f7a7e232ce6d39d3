package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/cbredeem/internal/app"
	"github.com/ternarybob/cbredeem/internal/services/browser"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Log in through a browser window and store the session cookies",
	Long: `Opens a visible Chrome window at the login page. Log in by hand; after the
wait elapses (or on Ctrl+C) the cookies are stored and injected into every
later browser session. --import loads a cookies.json file instead and
--clear forgets the stored login.`,
	Args: cobra.NoArgs,
	RunE: runCookies,
}

var (
	cookiesExport string
	cookiesImport string
	cookiesWait   time.Duration
	cookiesClear  bool
)

func init() {
	cookiesCmd.Flags().StringVar(&cookiesExport, "export", "", "Also write the cookies to this JSON file")
	cookiesCmd.Flags().StringVar(&cookiesImport, "import", "", "Store cookies from this JSON file without opening a browser")
	cookiesCmd.Flags().BoolVar(&cookiesClear, "clear", false, "Delete the stored cookies and exit")
	cookiesCmd.Flags().DurationVar(&cookiesWait, "wait", 0, "Time allowed for the manual login (default from config)")
}

func runCookies(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	domain, err := application.CookieDomain()
	if err != nil {
		return err
	}

	if cookiesClear {
		if err := application.CookieStorage.DeleteCookies(cmd.Context(), domain); err != nil {
			return err
		}
		logger.Info().Str("domain", domain).Msg("Stored cookies deleted")
		return nil
	}

	if cookiesImport != "" {
		records, err := browser.ImportCookies(cookiesImport)
		if err != nil {
			return err
		}
		if err := application.CookieStorage.SaveCookies(cmd.Context(), domain, records); err != nil {
			return err
		}
		logger.Info().Str("file", cookiesImport).Str("domain", domain).Int("cookies", len(records)).Msg("Cookies imported")
		return nil
	}

	wait := cookiesWait
	if wait <= 0 {
		wait = config.Browser.LoginWaitDuration()
	}

	// A login needs a window
	config.Browser.Headless = false

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.StartBrowser(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	records, err := application.Browser.CaptureCookies(ctx, config.Browser.LoginURL, wait)
	if err != nil {
		return err
	}

	// ctx is cancelled when Ctrl+C ended the wait; the save must still happen
	saveCtx := context.WithoutCancel(ctx)
	if err := application.CookieStorage.SaveCookies(saveCtx, domain, records); err != nil {
		return err
	}

	if cookiesExport != "" {
		if err := browser.ExportCookies(cookiesExport, records); err != nil {
			return err
		}
		logger.Info().Str("file", cookiesExport).Msg("Cookies exported")
	}

	logger.Info().Str("domain", domain).Int("cookies", len(records)).Msg("Cookies stored")
	return nil
}
