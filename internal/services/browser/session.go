package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cbredeem/internal/common"
	"github.com/ternarybob/cbredeem/internal/models"
)

// ErrNotStarted is returned when a page is requested before Start
var ErrNotStarted = errors.New("browser session not started")

// hideWebdriverJS keeps the site from seeing navigator.webdriver
const hideWebdriverJS = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });`

// clickJS clicks the first element matching a selector and reports whether one existed
const clickJS = `(function(sel) {
	var el = document.querySelector(sel);
	if (!el) { return false; }
	el.click();
	return true;
})(%q)`

// Session owns a single Chrome instance. Pages are rendered one at a time
// in the same tab, so a Session must not be shared between goroutines
// that fetch concurrently.
type Session struct {
	config common.BrowserConfig
	logger arbor.ILogger

	mu              sync.Mutex
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
}

// NewSession creates a browser session. Chrome is not launched until Start.
func NewSession(config common.BrowserConfig, logger arbor.ILogger) *Session {
	return &Session{
		config: config,
		logger: logger,
	}
}

// Start launches Chrome, installs the webdriver override and injects cookies
func (s *Session) Start(ctx context.Context, cookies []models.CookieRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return fmt.Errorf("browser session already started")
	}

	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", s.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
	)
	if s.config.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(s.config.UserAgent))
	}
	if s.config.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(s.config.ChromePath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// The first Run launches Chrome and ties its lifetime to the context it
	// gets, so it must not run under a timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("failed to launch chrome: %w", err)
	}

	setupCtx, setupCancel := s.boundedContext(ctx, browserCtx, s.config.RequestTimeoutDuration())
	defer setupCancel()

	fallbackDomain, _ := CookieDomain(s.config.LoginURL)
	params := ToCookieParams(cookies, fallbackDomain, time.Now())

	err := chromedp.Run(setupCtx,
		chromedp.Navigate("about:blank"),
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return s.injectCookies(ctx, params)
		}),
	)
	if err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser failed startup: %w", err)
	}

	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.allocatorCancel = allocatorCancel

	s.logger.Info().
		Bool("headless", s.config.Headless).
		Int("cookies", len(params)).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session started")

	return nil
}

// injectCookies sets each cookie, continuing past individual failures
func (s *Session) injectCookies(ctx context.Context, params []*network.CookieParam) error {
	failed := 0
	for _, c := range params {
		err := network.SetCookie(c.Name, c.Value).
			WithDomain(c.Domain).
			WithPath(c.Path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly).
			WithSameSite(c.SameSite).
			WithExpires(c.Expires).
			Do(ctx)
		if err != nil {
			failed++
			s.logger.Warn().
				Err(err).
				Str("cookie_name", c.Name).
				Str("domain", c.Domain).
				Msg("Failed to inject cookie")
		}
	}
	if failed > 0 && failed == len(params) {
		return fmt.Errorf("failed to inject any of %d cookies", len(params))
	}
	return nil
}

// boundedContext derives a context from the browser context that is limited
// by timeout and also ends when ctx ends.
func (s *Session) boundedContext(ctx, browserCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) current() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx == nil {
		return nil, ErrNotStarted
	}
	return s.browserCtx, nil
}

// Fetch renders the detail page of one instrument. After the settle delay it
// tries to open the announcements tab; a failed click is logged and ignored.
func (s *Session) Fetch(ctx context.Context, identifier string) (string, error) {
	url := s.config.DetailURL(identifier)

	browserCtx, err := s.current()
	if err != nil {
		return "", err
	}

	runCtx, cancel := s.boundedContext(ctx, browserCtx, s.config.RequestTimeoutDuration())
	defer cancel()

	startTime := time.Now()

	if err := s.navigate(runCtx, url, s.config.PageSettleDuration()); err != nil {
		return "", err
	}

	if s.tryInteract(runCtx, s.config.AnnouncementsTab) {
		if err := chromedp.Run(runCtx, chromedp.Sleep(s.config.TabSettleDuration())); err != nil {
			return "", fmt.Errorf("interrupted waiting for %s: %w", url, err)
		}
	}

	html, err := s.outerHTML(runCtx, url)
	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("code", identifier).
		Int("html_length", len(html)).
		Dur("duration", time.Since(startTime)).
		Msg("Detail page rendered")

	return html, nil
}

// RenderURL renders an arbitrary page, waiting the configured render settle
// delay. As in Fetch, request_timeout bounds the whole render including the delay.
func (s *Session) RenderURL(ctx context.Context, url string) (string, error) {
	browserCtx, err := s.current()
	if err != nil {
		return "", err
	}

	settle := s.config.DelistedSettleDuration()
	runCtx, cancel := s.boundedContext(ctx, browserCtx, s.config.RequestTimeoutDuration())
	defer cancel()

	if err := s.navigate(runCtx, url, settle); err != nil {
		return "", err
	}
	return s.outerHTML(runCtx, url)
}

// navigate loads url, optionally waits for the readiness selector, then
// sleeps for settle. Client-side rendering has no completion signal, so the
// fixed delay remains.
func (s *Session) navigate(ctx context.Context, url string, settle time.Duration) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp navigation to %s failed: %w", url, err)
	}

	if sel := s.config.WaitReadySelector; sel != "" {
		waitCtx, cancel := context.WithTimeout(ctx, settle+5*time.Second)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancel()
		if err != nil && ctx.Err() == nil {
			s.logger.Debug().Err(err).Str("selector", sel).Str("url", url).Msg("Ready selector not found, continuing")
		}
	}

	if err := chromedp.Run(ctx, chromedp.Sleep(settle)); err != nil {
		return fmt.Errorf("interrupted waiting for %s: %w", url, err)
	}
	return nil
}

func (s *Session) outerHTML(ctx context.Context, url string) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content of %s: %w", url, err)
	}
	if html == "" {
		return "", fmt.Errorf("empty page content from %s", url)
	}
	return html, nil
}

// tryInteract clicks selector via JavaScript. It never fails: errors and a
// missing element are logged at debug and reported as false.
func (s *Session) tryInteract(ctx context.Context, selector string) bool {
	if selector == "" {
		return false
	}

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(clickJS, selector), &clicked)); err != nil {
		s.logger.Debug().Err(err).Str("selector", selector).Msg("Tab click failed, parsing current content")
		return false
	}
	if !clicked {
		s.logger.Debug().Str("selector", selector).Msg("Tab not present, parsing current content")
	}
	return clicked
}

// CaptureCookies opens loginURL and waits for the user to log in. The wait
// ends after wait elapses or when ctx is cancelled, whichever comes first;
// the cookies present at that point are returned either way.
func (s *Session) CaptureCookies(ctx context.Context, loginURL string, wait time.Duration) ([]models.CookieRecord, error) {
	browserCtx, err := s.current()
	if err != nil {
		return nil, err
	}

	navCtx, cancel := s.boundedContext(ctx, browserCtx, s.config.RequestTimeoutDuration())
	err = chromedp.Run(navCtx, chromedp.Navigate(loginURL))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("chromedp navigation to %s failed: %w", loginURL, err)
	}

	s.logger.Info().
		Str("url", loginURL).
		Dur("wait", wait).
		Msg("Log in using the browser window; press Ctrl+C to capture early")

	timer := time.NewTimer(wait)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		s.logger.Info().Msg("Capture requested before the wait elapsed")
	}

	// ctx may already be cancelled here, so read cookies on the browser context alone
	readCtx, readCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer readCancel()

	var location string
	var cookies []*network.Cookie
	err = chromedp.Run(readCtx,
		chromedp.Location(&location),
		chromedp.ActionFunc(func(ctx context.Context) error {
			urls := []string{loginURL}
			if location != "" && location != loginURL {
				urls = append(urls, location)
			}
			var err error
			cookies, err = network.GetCookies().WithURLs(urls).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	records := FromNetworkCookies(cookies)
	s.logger.Info().Int("cookies", len(records)).Str("location", location).Msg("Captured browser cookies")
	return records, nil
}

// Close shuts down the browser and its allocator
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
		s.allocatorCancel = nil
	}
	s.browserCtx = nil
	return nil
}
