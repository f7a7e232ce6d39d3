package redemption

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeProvider struct {
	pages map[string]string
	err   error
	calls []string
}

func (f *fakeProvider) Fetch(ctx context.Context, identifier string) (string, error) {
	f.calls = append(f.calls, identifier)
	if f.err != nil {
		return "", f.err
	}
	return f.pages[identifier], nil
}

const detailPage = `<html><body>
<table>
  <tr><td data-name="last_chg_dt">2021-01-20</td><td data-name="price">131.20</td></tr>
  <tr><td data-name="last_chg_dt">2021-01-15</td><td data-name="price">128.66</td></tr>
  <tr><td data-name="last_chg_dt">2021-01-14</td><td data-name="price">127.01</td></tr>
</table>
<div id="tbl_annos">
  <div class="grid-row"><div class="grid-col-9">关于提前赎回利尔转债的第三次提示性公告</div><div class="grid-col-3">2021-01-22</div></div>
  <div class="grid-row"><div class="grid-col-9">关于提前赎回“利尔转债”的公告</div><div class="grid-col-3">2021-01-16</div></div>
  <div class="grid-row"><div class="grid-col-9">关于不提前赎回利尔转债的公告</div><div class="grid-col-3">2020-11-02</div></div>
</div>
</body></html>`

func newTestService(p *fakeProvider) *Service {
	return NewService(p, arbor.NewLogger())
}

func TestService_Process(t *testing.T) {
	provider := &fakeProvider{pages: map[string]string{"128046": detailPage}}
	svc := newTestService(provider)

	result, err := svc.Process(context.Background(), Instrument{Code: "128046", Name: "利尔转债"})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []string{"128046"}, provider.calls)
	assert.True(t, result.HasDate())
	assert.Equal(t, "2021-01-16", result.Date.String)
	// 2021-01-16 is a Saturday, so the Friday quote applies.
	assert.True(t, result.HasPrice())
	assert.Equal(t, "128.66", result.Price.String)
	assert.Equal(t, "2021-01-15", result.QuoteDate.String)
	assert.False(t, result.Exact)
	assert.Equal(t, "关于提前赎回“利尔转债”的公告", result.SourceTitle)
}

func TestService_Process_NoMatch(t *testing.T) {
	provider := &fakeProvider{pages: map[string]string{"128046": detailPage}}
	svc := newTestService(provider)

	result, err := svc.Process(context.Background(), Instrument{Code: "128046", Name: "蓝帆转债"})
	require.NoError(t, err)
	assert.False(t, result.HasDate())
	assert.False(t, result.HasPrice())
}

func TestService_Process_DateWithoutPrice(t *testing.T) {
	page := `<div id="tbl_annos"><div class="grid-row"><div class="grid-col-9">关于提前赎回利尔转债的公告</div><div class="grid-col-3">2021-01-16</div></div></div>`
	provider := &fakeProvider{pages: map[string]string{"128046": page}}
	svc := newTestService(provider)

	result, err := svc.Process(context.Background(), Instrument{Code: "128046", Name: "利尔转债"})
	require.NoError(t, err)
	assert.True(t, result.HasDate())
	assert.False(t, result.HasPrice())
	assert.False(t, result.QuoteDate.Valid)
}

func TestService_Process_ProviderFailure(t *testing.T) {
	boom := errors.New("navigation timed out")
	svc := newTestService(&fakeProvider{err: boom})

	result, err := svc.Process(context.Background(), Instrument{Code: "128046", Name: "利尔转债"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "128046")
}

func TestService_Analyze_Idempotent(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	inst := Instrument{Code: "128046", Name: "利尔转债"}

	first, err := svc.Analyze(inst, detailPage)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := svc.Analyze(inst, detailPage)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
