package redemption

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/guregu/null/v5"
)

// Historical quotes table markup.
const (
	quoteDateSelector  = `td[data-name="last_chg_dt"]`
	quotePriceSelector = `td[data-name="price"]`
)

// ResolvePrice finds the quote row for target in the page's historical
// quotes table: the row dated exactly target, otherwise the latest row dated
// strictly before it.
func ResolvePrice(html string, target time.Time) (Resolution, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return Resolution{}, err
	}
	return resolveFromDocument(doc, target), nil
}

func resolveFromDocument(doc *goquery.Document, target time.Time) Resolution {
	row, exact, ok := pickQuoteRow(QuoteRows(doc), target)
	if !ok {
		return Resolution{}
	}

	res := Resolution{
		RowFound:  true,
		Exact:     exact,
		QuoteDate: row.QuoteDate,
	}
	if row.HasPrice {
		res.Price = null.StringFrom(row.Price)
	}
	return res
}

// QuoteRows parses every dated quote cell in document order. Cells whose
// date does not parse are skipped.
func QuoteRows(doc *goquery.Document) []PriceQuoteRow {
	var rows []PriceQuoteRow

	doc.Find(quoteDateSelector).Each(func(i int, cell *goquery.Selection) {
		date, err := time.Parse(DateLayout, strings.TrimSpace(cell.Text()))
		if err != nil {
			return
		}

		row := PriceQuoteRow{QuoteDate: date}
		if price := cell.Parent().Find(quotePriceSelector).First(); price.Length() > 0 {
			row.Price = strings.TrimSpace(price.Text())
			row.HasPrice = true
		}
		rows = append(rows, row)
	})

	return rows
}

// pickQuoteRow scans rows once. An exact date match stops the scan.
func pickQuoteRow(rows []PriceQuoteRow, target time.Time) (PriceQuoteRow, bool, bool) {
	target = dateOnly(target)

	var fallback PriceQuoteRow
	haveFallback := false

	for _, row := range rows {
		date := dateOnly(row.QuoteDate)
		if date.Equal(target) {
			return row, true, true
		}
		if date.Before(target) && (!haveFallback || date.After(dateOnly(fallback.QuoteDate))) {
			fallback = row
			haveFallback = true
		}
	}

	return fallback, false, haveFallback
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
