package redemption

// SelectEarliest picks the earliest dated record whose title matches the
// forced-call rules for instrumentName. Records without a valid date never
// qualify. When several records share the earliest date the first one in
// slice order supplies SourceTitle.
func SelectEarliest(records []AnnouncementRecord, instrumentName string) MatchResult {
	var result MatchResult

	for _, record := range records {
		if !record.DateValid {
			continue
		}
		if !Matches(record.NormalizedTitle, instrumentName) {
			continue
		}
		if !result.Found || record.Date.Before(result.SelectedDate) {
			result = MatchResult{
				Found:        true,
				SelectedDate: record.Date,
				SourceTitle:  record.Title,
			}
		}
	}

	return result
}
