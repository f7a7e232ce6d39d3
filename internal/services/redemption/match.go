package redemption

import "strings"

// Title tokens. Announcement titles on the disclosure site are Chinese.
const (
	tokenEarly        = "提前"
	tokenRedeem       = "赎回"
	tokenNotice       = "公告"
	tokenLegalOpinion = "法律意见"
	tokenNotEarly     = "不提前"
)

// Matches reports whether a normalized announcement title is a forced-call
// notice for the named instrument. Two rules are accepted:
//
//   - company notice: 提前 … 赎回 … <name> … 公告 in order, and no 不提前 anywhere
//   - legal opinion:  提前 … 赎回 … 法律意见 in order
func Matches(normalizedTitle, instrumentName string) bool {
	return matchesCompanyNotice(normalizedTitle, instrumentName) || matchesLegalOpinion(normalizedTitle)
}

func matchesCompanyNotice(title, instrumentName string) bool {
	// The "will not redeem early" notice carries every positive token.
	if strings.Contains(title, tokenNotEarly) {
		return false
	}
	return containsInOrder(title, tokenEarly, tokenRedeem, NormalizeTitle(instrumentName), tokenNotice)
}

func matchesLegalOpinion(title string) bool {
	return containsInOrder(title, tokenEarly, tokenRedeem, tokenLegalOpinion)
}

// containsInOrder reports whether every token occurs in s, each one starting
// at or after the end of the previous token's leftmost match.
func containsInOrder(s string, tokens ...string) bool {
	cursor := 0
	for _, token := range tokens {
		idx := strings.Index(s[cursor:], token)
		if idx < 0 {
			return false
		}
		cursor += idx + len(token)
	}
	return true
}
