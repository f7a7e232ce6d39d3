package browser

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/ternarybob/cbredeem/internal/models"
)

// CookieDomain returns the host cookies captured from rawURL are stored under
func CookieDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return strings.ToLower(u.Hostname()), nil
}

// ToCookieParams converts stored cookies to chromedp cookie params. Cookies
// that expired before now are dropped; a missing domain falls back to
// fallbackDomain.
func ToCookieParams(records []models.CookieRecord, fallbackDomain string, now time.Time) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(records))

	for _, c := range records {
		if c.Name == "" {
			continue
		}

		var expires *cdp.TimeSinceEpoch
		if c.Expiry > 0 {
			sec, frac := math.Modf(c.Expiry)
			expiresTime := time.Unix(int64(sec), int64(frac*1e9))
			if !expiresTime.After(now) {
				continue
			}
			timestamp := cdp.TimeSinceEpoch(expiresTime)
			expires = &timestamp
		}

		domain := c.Domain
		if domain == "" {
			domain = fallbackDomain
		}

		path := c.Path
		if path == "" {
			path = "/"
		}

		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			Expires:  expires,
		}

		switch strings.ToLower(c.SameSite) {
		case "strict":
			param.SameSite = network.CookieSameSiteStrict
		case "lax":
			param.SameSite = network.CookieSameSiteLax
		case "none":
			param.SameSite = network.CookieSameSiteNone
		}

		params = append(params, param)
	}

	return params
}

// FromNetworkCookies converts cookies read from the browser to stored records
func FromNetworkCookies(cookies []*network.Cookie) []models.CookieRecord {
	records := make([]models.CookieRecord, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		record := models.CookieRecord{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite.String(),
		}
		if !c.Session && c.Expires > 0 {
			record.Expiry = c.Expires
		}
		records = append(records, record)
	}
	return records
}

// ExportCookies writes cookies as a JSON array, the layout cookies.json uses
func ExportCookies(path string, records []models.CookieRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie file %s: %w", path, err)
	}
	return nil
}

// ImportCookies reads a JSON cookie array written by ExportCookies or by
// Selenium's get_cookies
func ImportCookies(path string) ([]models.CookieRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file %s: %w", path, err)
	}

	var records []models.CookieRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode cookie file %s: %w", path, err)
	}
	return records, nil
}
