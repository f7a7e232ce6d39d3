package redemption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func record(title, date string) AnnouncementRecord {
	r := AnnouncementRecord{Title: title, NormalizedTitle: NormalizeTitle(title), RawDate: date}
	if d, err := time.Parse(DateLayout, date); err == nil {
		r.Date = d
		r.DateValid = true
	}
	return r
}

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSelectEarliest_PicksMinimumDate(t *testing.T) {
	records := []AnnouncementRecord{
		record("关于提前赎回利尔转债的公告", "2021-03-01"),
		record("关于提前赎回利尔转债的提示性公告", "2021-01-15"),
		record("关于提前赎回利尔转债的第二次公告", "2021-02-20"),
	}

	result := SelectEarliest(records, "利尔转债")
	assert.True(t, result.Found)
	assert.Equal(t, day("2021-01-15"), result.SelectedDate)
	assert.Equal(t, "关于提前赎回利尔转债的提示性公告", result.SourceTitle)
}

func TestSelectEarliest_OrderIndependentDate(t *testing.T) {
	a := record("关于提前赎回利尔转债的公告", "2021-03-01")
	b := record("关于提前赎回利尔转债的提示性公告", "2021-01-15")
	c := record("关于提前赎回利尔转债的第二次公告", "2021-02-20")

	for _, records := range [][]AnnouncementRecord{{a, b, c}, {c, b, a}, {b, c, a}} {
		result := SelectEarliest(records, "利尔转债")
		assert.Equal(t, day("2021-01-15"), result.SelectedDate)
	}
}

func TestSelectEarliest_IgnoresNonMatchingAndInvalid(t *testing.T) {
	records := []AnnouncementRecord{
		record("关于不提前赎回利尔转债的公告", "2020-06-01"),
		record("关于提前赎回利尔转债的公告", "not-a-date"),
		record("关于利尔转债开始转股的公告", "2020-01-01"),
		record("关于提前赎回利尔转债的公告", "2021-03-01"),
	}

	result := SelectEarliest(records, "利尔转债")
	assert.True(t, result.Found)
	assert.Equal(t, day("2021-03-01"), result.SelectedDate)
}

func TestSelectEarliest_TieKeepsDate(t *testing.T) {
	records := []AnnouncementRecord{
		record("关于提前赎回利尔转债的公告", "2021-01-15"),
		record("律师事务所关于提前赎回的法律意见书", "2021-01-15"),
	}

	result := SelectEarliest(records, "利尔转债")
	assert.True(t, result.Found)
	assert.Equal(t, day("2021-01-15"), result.SelectedDate)
	assert.Contains(t, []string{records[0].Title, records[1].Title}, result.SourceTitle)
}

func TestSelectEarliest_NoMatch(t *testing.T) {
	assert.False(t, SelectEarliest(nil, "利尔转债").Found)
	assert.False(t, SelectEarliest([]AnnouncementRecord{
		record("关于利尔转债开始转股的公告", "2020-01-01"),
		{},
	}, "利尔转债").Found)
}
