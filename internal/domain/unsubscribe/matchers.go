package unsubscribe

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// matcher yields raw link candidates in buffer order. Cleanup and scheme
// validation are applied by the caller.
type matcher struct {
	name string
	find func(buf string) []string
}

var bodyMatchers = []matcher{
	{"anchor-keyword", anchorKeywordLinks},
	{"unsubscribe-phrase", unsubscribePhraseLinks},
	{"opt-out-phrase", optOutPhraseLinks},
	{"url-keyword", urlKeywordLinks},
	{"mailto-keyword", mailtoKeywordLinks},
	{"anchor-text", anchorTextLinks},
}

const urlPattern = `(https?://[^\s"'<>]+)`

var (
	anchorRe        = regexp.MustCompile(`(?is)<a\b[^>]*?\shref\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
	anchorKeywordRe = regexp.MustCompile(`(?i)unsubscribe|opt-?out|remove|preferences?|manage|update|email\s+settings|subscription|cancel`)

	unsubscribePhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)click\s+(?:here|this)\s+to\s+unsubscribe.{0,150}?` + urlPattern),
		regexp.MustCompile(`(?is)unsubscribe\s+(?:here|at)\b.{0,150}?` + urlPattern),
		regexp.MustCompile(`(?is)to\s+unsubscribe.{0,100}?\b(?:visit|click)\b.{0,150}?` + urlPattern),
		regexp.MustCompile(`(?is)manage\s+(?:your\s+)?(?:email\s+)?preferences\s+(?:at|here)\b.{0,150}?` + urlPattern),
	}
	optOutPhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)opt[- ]?out.{0,150}?` + urlPattern),
	}

	bareURLRe       = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)
	urlKeywordRe    = regexp.MustCompile(`(?i)unsubscribe|opt[-_]?out|remove|preference|manage|update|email[-_]?settings|subscription|cancel`)
	bareMailtoRe    = regexp.MustCompile(`(?i)mailto:[^\s"'<>]+`)
	mailtoLocalRe   = regexp.MustCompile(`(?i)unsubscribe|opt-?out|remove`)
	anchorTextKeyRe = regexp.MustCompile(`(?i)unsubscribe|opt[- ]?out`)
)

// anchorKeywordLinks returns hrefs of anchors whose href or inner markup
// mentions an unsubscribe-related keyword.
func anchorKeywordLinks(buf string) []string {
	var out []string
	for _, m := range anchorRe.FindAllStringSubmatch(buf, -1) {
		href, inner := m[1], m[2]
		if anchorKeywordRe.MatchString(href) || anchorKeywordRe.MatchString(inner) {
			out = append(out, href)
		}
	}
	return out
}

func unsubscribePhraseLinks(buf string) []string {
	return phraseLinks(buf, unsubscribePhraseRes)
}

func optOutPhraseLinks(buf string) []string {
	return phraseLinks(buf, optOutPhraseRes)
}

// phraseLinks merges the matches of several phrase patterns in buffer order.
func phraseLinks(buf string, res []*regexp.Regexp) []string {
	type hit struct {
		at   int
		link string
	}
	var hits []hit
	for _, re := range res {
		for _, idx := range re.FindAllStringSubmatchIndex(buf, -1) {
			hits = append(hits, hit{at: idx[0], link: buf[idx[2]:idx[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.link)
	}
	return out
}

// urlKeywordLinks returns bare URLs whose path or query carries a keyword.
// The host is not considered.
func urlKeywordLinks(buf string) []string {
	var out []string
	for _, raw := range bareURLRe.FindAllString(buf, -1) {
		u, err := url.Parse(clean(raw))
		if err != nil {
			continue
		}
		if urlKeywordRe.MatchString(u.EscapedPath() + "?" + u.RawQuery) {
			out = append(out, raw)
		}
	}
	return out
}

func mailtoKeywordLinks(buf string) []string {
	var out []string
	for _, raw := range bareMailtoRe.FindAllString(buf, -1) {
		local := raw[len("mailto:"):]
		if at := strings.IndexByte(local, '@'); at >= 0 {
			local = local[:at]
		}
		if mailtoLocalRe.MatchString(local) {
			out = append(out, raw)
		}
	}
	return out
}

// anchorTextLinks parses the buffer as HTML and returns the hrefs of anchors
// whose visible text mentions unsubscribing, whatever the href looks like.
func anchorTextLinks(buf string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if !anchorTextKeyRe.MatchString(s.Text()) {
			return
		}
		if href, ok := s.Attr("href"); ok {
			out = append(out, href)
		}
	})
	return out
}
