package redemption

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "关于提前赎回利尔转债的公告", "关于提前赎回利尔转债的公告"},
		{"ascii quotes", `关于提前赎回"利尔转债"的'公告'`, "关于提前赎回利尔转债的公告"},
		{"curly quotes", "关于提前赎回“利尔转债”的‘公告’", "关于提前赎回利尔转债的公告"},
		{"full-width quotes", "关于提前赎回＂利尔转债＂的＇公告＇", "关于提前赎回利尔转债的公告"},
		{"corner and angle quotes", "关于提前赎回〝利尔转债〞的«公告»", "关于提前赎回利尔转债的公告"},
		{"whitespace", " 关于 提前\t赎回\n利尔转债　的公告 ", "关于提前赎回利尔转债的公告"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}

func TestMatches(t *testing.T) {
	const name = "利尔转债"

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"company notice", "关于提前赎回利尔转债的公告", true},
		{"company notice with filler", "利尔化学股份有限公司关于提前赎回利尔转债暨即将停止交易的公告", true},
		{"company notice reminder", "关于利尔转债赎回实施的第五次提示性公告：提前赎回利尔转债公告", true},
		{"negation rejects", "关于不提前赎回利尔转债的公告", false},
		{"negation before tokens rejects", "不提前公告后再次提前赎回利尔转债的公告", false},
		{"negation after tokens rejects", "关于提前赎回利尔转债的公告(不提前)", false},
		{"name before redeem", "关于利尔转债提前赎回的公告", false},
		{"redeem before advance", "关于赎回提前利尔转债的公告", false},
		{"notice before name", "公告：提前赎回利尔转债", false},
		{"other instrument", "关于提前赎回蓝帆转债的公告", false},
		{"redemption result", "关于利尔转债赎回结果的公告", false},
		{"legal opinion", "北京市中伦律师事务所关于利尔化学提前赎回可转换公司债券的法律意见书", true},
		{"legal opinion ignores negation", "关于不提前赎回可转换公司债券的法律意见书", true},
		{"legal opinion out of order", "关于法律意见书中提前赎回事项的说明", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(NormalizeTitle(tt.title), name)
			assert.Equal(t, tt.want, got, "title: %s", tt.title)
		})
	}
}

func TestMatches_NameIsNormalized(t *testing.T) {
	assert.True(t, Matches(NormalizeTitle("关于提前赎回利尔转债的公告"), "利尔 转债"))
	assert.True(t, Matches(NormalizeTitle("关于提前赎回“利尔转债”的公告"), "“利尔转债”"))
}

func TestMatches_EmptyName(t *testing.T) {
	assert.True(t, Matches("提前赎回公告", ""))
	assert.False(t, Matches("不提前赎回公告", ""))
}

func TestContainsInOrder(t *testing.T) {
	assert.True(t, containsInOrder("abc", "a", "b", "c"))
	assert.True(t, containsInOrder("a-b-c", "a", "b", "c"))
	assert.False(t, containsInOrder("cba", "a", "b", "c"))
	assert.False(t, containsInOrder("ab", "a", "b", "c"))
	// Tokens may not overlap.
	assert.False(t, containsInOrder("提前赎", "提前", "前赎"))
	assert.True(t, containsInOrder("anything"))
}
