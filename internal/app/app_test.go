package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cbredeem/internal/common"
	"github.com/ternarybob/cbredeem/internal/models"
	"github.com/ternarybob/cbredeem/internal/services/browser"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "data")

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_InitializesStorage(t *testing.T) {
	a := newTestApp(t)
	require.NotNil(t, a.DB)
	require.NotNil(t, a.ResultStorage)
	require.NotNil(t, a.CookieStorage)

	count, err := a.ResultStorage.CountResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCookieDomain(t *testing.T) {
	a := newTestApp(t)
	domain, err := a.CookieDomain()
	require.NoError(t, err)
	assert.Equal(t, "www.jisilu.cn", domain)

	// Cookies saved under the domain are found again
	ctx := context.Background()
	require.NoError(t, a.CookieStorage.SaveCookies(ctx, domain, []models.CookieRecord{{Name: "a", Value: "1"}}))
	jar, err := a.CookieStorage.GetCookies(ctx, domain)
	require.NoError(t, err)
	assert.Len(t, jar.Cookies, 1)
}

func TestServicesNeedBrowser(t *testing.T) {
	a := newTestApp(t)

	_, err := a.RedemptionService()
	assert.ErrorIs(t, err, browser.ErrNotStarted)
	_, err = a.AugmentRunner()
	assert.ErrorIs(t, err, browser.ErrNotStarted)
	_, err = a.DelistedService()
	assert.ErrorIs(t, err, browser.ErrNotStarted)
}

func TestClose_Idempotent(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
