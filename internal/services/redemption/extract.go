package redemption

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Announcements panel markup on the bond detail page.
const (
	announcementsPanelSelector = "div#tbl_annos"
	announcementRowSelector    = "div.grid-row"
	announcementTitleSelector  = "div.grid-col-9"
	announcementDateSelector   = "div.grid-col-3"
)

// ParseDocument creates a goquery document from rendered page HTML
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}
	return doc, nil
}

// ExtractAnnouncements returns the announcement rows of the detail page in
// document order. Rows missing a title or date cell are skipped; rows whose
// date does not parse are kept with DateValid=false.
func ExtractAnnouncements(html string) ([]AnnouncementRecord, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return extractFromDocument(doc), nil
}

func extractFromDocument(doc *goquery.Document) []AnnouncementRecord {
	var records []AnnouncementRecord

	doc.Find(announcementsPanelSelector).Find(announcementRowSelector).Each(func(i int, row *goquery.Selection) {
		titleCell := row.Find(announcementTitleSelector).First()
		dateCell := row.Find(announcementDateSelector).First()
		if titleCell.Length() == 0 || dateCell.Length() == 0 {
			return
		}

		title := strings.TrimSpace(titleCell.Text())
		rawDate := strings.TrimSpace(dateCell.Text())

		record := AnnouncementRecord{
			Title:           title,
			NormalizedTitle: NormalizeTitle(title),
			RawDate:         rawDate,
		}
		if date, err := time.Parse(DateLayout, rawDate); err == nil {
			record.Date = date
			record.DateValid = true
		}
		records = append(records, record)
	})

	return records
}
