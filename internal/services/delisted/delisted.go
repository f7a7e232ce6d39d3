// Package delisted downloads the list of delisted convertible bonds and turns
// it into the instrument table the augment command reads.
package delisted

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cbredeem/internal/interfaces"
	"github.com/ternarybob/cbredeem/internal/services/instruments"
)

// shortColumnNames drops the unit suffixes from numeric column headers
var shortColumnNames = map[string]string{
	"发行规模(亿元)": "发行规模",
	"回售规模(亿元)": "回售规模",
	"剩余规模(亿元)": "剩余规模",
	"存续年限(年)":  "存续年限",
}

// TextColumns hold codes with significant leading zeros
var TextColumns = []string{"代码", "正股代码"}

// Service renders the delisted listing page and parses it
type Service struct {
	renderer interfaces.PageRenderer
	url      string
	logger   arbor.ILogger
}

// NewService creates a delisted list downloader for url
func NewService(renderer interfaces.PageRenderer, url string, logger arbor.ILogger) *Service {
	return &Service{
		renderer: renderer,
		url:      url,
		logger:   logger,
	}
}

// Download renders the listing page and returns it as an instrument table
func (s *Service) Download(ctx context.Context) (*instruments.Table, error) {
	html, err := s.renderer.RenderURL(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to render delisted list: %w", err)
	}

	table, err := ParseDelistedTables(html)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("url", s.url).
		Int("columns", len(table.Header)).
		Int("rows", len(table.Rows)).
		Msg("Delisted bond list downloaded")

	return table, nil
}

// ParseDelistedTables reads the listing page. The page renders its header in
// one table and its body rows in a second table, so the first table's header
// cells name the second table's columns by position.
func ParseDelistedTables(html string) (*instruments.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse delisted page: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() < 2 {
		return nil, fmt.Errorf("expected a header table and a body table, found %d table(s)", tables.Length())
	}

	header := headerCells(tables.Eq(0))
	if len(header) == 0 {
		return nil, fmt.Errorf("header table has no header cells")
	}
	bodyHeader := headerCells(tables.Eq(1))

	var rows [][]string
	tables.Eq(1).Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			row = append(row, cellText(td))
		})
		rows = append(rows, row)
	})

	// Body columns beyond the header table keep the body's own names
	for _, r := range rows {
		for len(header) < len(r) {
			n := len(header)
			name := fmt.Sprintf("列%d", n+1)
			if n < len(bodyHeader) && bodyHeader[n] != "" {
				name = bodyHeader[n]
			}
			header = append(header, name)
		}
	}
	table := instruments.NewTable(header, rows)
	table.RenameColumns(shortColumnNames)
	table.ReplaceValue("-", "0")
	for _, name := range TextColumns {
		table.MarkText(name)
	}
	return table, nil
}

func headerCells(table *goquery.Selection) []string {
	var cells []string
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		th := tr.ChildrenFiltered("th")
		if th.Length() == 0 {
			return true
		}
		th.Each(func(j int, s *goquery.Selection) {
			cells = append(cells, cellText(s))
		})
		return false
	})
	return cells
}

// cellText collapses runs of whitespace the way the page displays them
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// DefaultOutputName is the input file name for a download made at now
func DefaultOutputName(now time.Time) string {
	return now.Format("2006_01_02") + "_in.xlsx"
}
