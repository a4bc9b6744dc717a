package unsubscribe

import (
	"regexp"
	"unicode/utf8"
)

// proximityWindow is the maximum distance, in characters, between a keyword
// and a URL for the fallback to pair them.
const proximityWindow = 200

var proximityKeywordRe = regexp.MustCompile(`(?i)unsubscribe|opt-out|remove\s+me|preference\s+center|manage\s+subscription`)

// nearestLink is the last resort: the first URL in the buffer that sits
// within proximityWindow characters of any unsubscribe keyword.
func nearestLink(buf string) (string, bool) {
	kwIdx := proximityKeywordRe.FindAllStringIndex(buf, -1)
	if len(kwIdx) == 0 {
		return "", false
	}
	urlIdx := bareURLRe.FindAllStringIndex(buf, -1)
	if len(urlIdx) == 0 {
		return "", false
	}

	keywords := runeOffsets(buf, kwIdx)
	urls := runeOffsets(buf, urlIdx)

	for i, u := range urls {
		if !withinWindow(u, keywords) {
			continue
		}
		loc := urlIdx[i]
		if link, ok := accept(buf[loc[0]:loc[1]]); ok {
			return link, true
		}
	}
	return "", false
}

func withinWindow(offset int, keywords []int) bool {
	for _, k := range keywords {
		d := offset - k
		if d < 0 {
			d = -d
		}
		if d <= proximityWindow {
			return true
		}
	}
	return false
}

// runeOffsets converts ascending byte start offsets into character offsets.
func runeOffsets(buf string, locs [][]int) []int {
	out := make([]int, len(locs))
	pos, runes := 0, 0
	for i, loc := range locs {
		runes += utf8.RuneCountInString(buf[pos:loc[0]])
		pos = loc[0]
		out[i] = runes
	}
	return out
}
