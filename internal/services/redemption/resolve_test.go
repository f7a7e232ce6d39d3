package redemption

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quotesHTML builds a quotes table; an empty price omits the price cell.
func quotesHTML(rows ...[2]string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><table id=\"tbl_quotes\"><tbody>")
	for _, r := range rows {
		sb.WriteString("<tr>")
		sb.WriteString(fmt.Sprintf(`<td data-name="last_chg_dt">%s</td>`, r[0]))
		if r[1] != "" {
			sb.WriteString(fmt.Sprintf(`<td data-name="price">%s</td>`, r[1]))
		}
		sb.WriteString(`<td data-name="volume">1000</td></tr>`)
	}
	sb.WriteString("</tbody></table></body></html>")
	return sb.String()
}

func TestResolvePrice_NearestPrior(t *testing.T) {
	html := quotesHTML([2]string{"2021-01-20", "101.0"}, [2]string{"2021-01-10", "100.5"})

	res, err := ResolvePrice(html, day("2021-01-15"))
	require.NoError(t, err)
	assert.True(t, res.RowFound)
	assert.False(t, res.Exact)
	assert.Equal(t, day("2021-01-10"), res.QuoteDate)
	assert.Equal(t, "100.5", res.Price.String)
	assert.True(t, res.Price.Valid)
}

func TestResolvePrice_NearestPriorPicksLatestEarlierRow(t *testing.T) {
	html := quotesHTML(
		[2]string{"2021-01-05", "99.0"},
		[2]string{"2021-01-14", "100.9"},
		[2]string{"2021-01-10", "100.5"},
	)

	res, err := ResolvePrice(html, day("2021-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "100.9", res.Price.String)
}

func TestResolvePrice_ExactWins(t *testing.T) {
	html := quotesHTML(
		[2]string{"2021-01-10", "100.5"},
		[2]string{"2021-01-15", "102.3"},
		[2]string{"2021-01-14", "100.9"},
	)

	res, err := ResolvePrice(html, day("2021-01-15"))
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, "102.3", res.Price.String)
}

func TestResolvePrice_TargetBeforeAllRows(t *testing.T) {
	html := quotesHTML([2]string{"2021-01-10", "100.5"}, [2]string{"2021-01-20", "101.0"})

	res, err := ResolvePrice(html, day("2021-01-01"))
	require.NoError(t, err)
	assert.False(t, res.RowFound)
	assert.False(t, res.Price.Valid)
}

func TestResolvePrice_MissingPriceCell(t *testing.T) {
	html := quotesHTML([2]string{"2021-01-15", ""})

	res, err := ResolvePrice(html, day("2021-01-15"))
	require.NoError(t, err)
	assert.True(t, res.RowFound)
	assert.True(t, res.Exact)
	assert.False(t, res.Price.Valid)
}

func TestResolvePrice_SkipsBadDates(t *testing.T) {
	html := quotesHTML(
		[2]string{"2021/01/14", "999"},
		[2]string{"", "998"},
		[2]string{"2021-01-12", "100.7"},
	)

	res, err := ResolvePrice(html, day("2021-01-15"))
	require.NoError(t, err)
	assert.Equal(t, "100.7", res.Price.String)
}

func TestResolvePrice_NoTable(t *testing.T) {
	res, err := ResolvePrice("<html><body></body></html>", day("2021-01-15"))
	require.NoError(t, err)
	assert.False(t, res.RowFound)
}

func TestPickQuoteRow_ExactShortCircuits(t *testing.T) {
	rows := []PriceQuoteRow{
		{QuoteDate: day("2021-01-15"), Price: "first", HasPrice: true},
		{QuoteDate: day("2021-01-15"), Price: "second", HasPrice: true},
	}

	row, exact, ok := pickQuoteRow(rows, day("2021-01-15"))
	assert.True(t, ok)
	assert.True(t, exact)
	assert.Equal(t, "first", row.Price)
}
