// Package unsubscribe finds the link a mail recipient should follow to stop
// receiving a list's messages.
package unsubscribe

import (
	"regexp"
	"strings"

	"mailsort/internal/domain/email"
)

const (
	headerName     = "List-Unsubscribe"
	postHeaderName = "List-Unsubscribe-Post"

	// bodySeparator joins the HTML and plain renderings in the search buffer.
	bodySeparator = "\n\n"
)

var (
	headerHTTPRe   = regexp.MustCompile(`(?i)<\s*(https?://[^>]+)>`)
	headerMailtoRe = regexp.MustCompile(`(?i)<\s*(mailto:[^>]+)>`)
)

// Extract returns the best unsubscribe link for a message, or false when
// none was found. The List-Unsubscribe header wins over anything in the body;
// after that the body matchers run in order and the first accepted candidate
// is returned. html may be empty when the message has no HTML rendering.
func Extract(headers []email.Header, plainText, html string) (string, bool) {
	if link, ok := fromHeaders(headers); ok {
		return link, true
	}

	buf := searchBuffer(plainText, html)
	if strings.TrimSpace(buf) == "" {
		return "", false
	}

	for _, m := range bodyMatchers {
		if link, ok := firstAccepted(m.find(buf)); ok {
			return link, true
		}
	}

	return nearestLink(buf)
}

// ExtractMessage runs Extract over a fetched message.
func ExtractMessage(msg *email.Message) (string, bool) {
	return Extract(msg.Headers, msg.Body.Plain, msg.Body.HTML)
}

func fromHeaders(headers []email.Header) (string, bool) {
	value, ok := email.Headers(headers).Get(headerName)
	if !ok {
		return "", false
	}
	for _, re := range []*regexp.Regexp{headerHTTPRe, headerMailtoRe} {
		m := re.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if link, ok := accept(m[1]); ok {
			return link, true
		}
	}
	return "", false
}

func searchBuffer(plainText, html string) string {
	if html == "" {
		return plainText
	}
	return html + bodySeparator + plainText
}

func firstAccepted(candidates []string) (string, bool) {
	for _, c := range candidates {
		if link, ok := accept(c); ok {
			return link, true
		}
	}
	return "", false
}
