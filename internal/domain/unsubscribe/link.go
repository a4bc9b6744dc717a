package unsubscribe

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"mailsort/internal/domain/email"
)

const trailingPunct = ".,;:!?)]}>"

type Kind int

const (
	KindUnknown Kind = iota
	KindHTTP
	KindMailto
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindMailto:
		return "mailto"
	}
	return "unknown"
}

// KindOf tells how a link has to be followed.
func KindOf(link string) Kind {
	l := strings.ToLower(link)
	switch {
	case strings.HasPrefix(l, "http://"), strings.HasPrefix(l, "https://"):
		return KindHTTP
	case strings.HasPrefix(l, "mailto:"):
		return KindMailto
	}
	return KindUnknown
}

// accept cleans a raw candidate and reports whether it is a usable link.
func accept(raw string) (string, bool) {
	link := clean(html.UnescapeString(raw))
	if !hasLinkScheme(link) {
		return "", false
	}
	return link, true
}

// clean drops surrounding whitespace, quotes and brackets, and any trailing
// sentence punctuation.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, `<"'`)
	s = strings.TrimRight(s, `"'`+trailingPunct)
	return strings.TrimSpace(s)
}

func hasLinkScheme(link string) bool {
	l := strings.ToLower(link)
	for _, scheme := range []string{"http://", "https://", "mailto:"} {
		if strings.HasPrefix(l, scheme) && len(l) > len(scheme) {
			return true
		}
	}
	return false
}

type Mailto struct {
	Address string
	Subject string
	Body    string
}

// ParseMailto splits a mailto: link into the address and the optional
// subject and body fields.
func ParseMailto(link string) (*Mailto, error) {
	if KindOf(link) != KindMailto {
		return nil, fmt.Errorf("not a mailto link: %q", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse mailto: %w", err)
	}
	addr := u.Opaque
	if addr == "" {
		addr = u.Path
	}
	addr, err = url.PathUnescape(addr)
	if err != nil {
		return nil, fmt.Errorf("unescape mailto address: %w", err)
	}
	if !strings.Contains(addr, "@") {
		return nil, fmt.Errorf("mailto without address: %q", link)
	}
	q := u.Query()
	return &Mailto{
		Address: addr,
		Subject: q.Get("subject"),
		Body:    q.Get("body"),
	}, nil
}

// OneClick reports whether the sender advertises RFC 8058 one-click
// unsubscribe. It never influences Extract.
func OneClick(headers []email.Header) bool {
	value, ok := email.Headers(headers).Get(postHeaderName)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(value), "list-unsubscribe=one-click")
}

// OneClickLink reports whether link may receive an RFC 8058 one-click POST:
// the sender advertises one-click and link is the HTTPS URI from its
// List-Unsubscribe header. Body-derived links never qualify.
func OneClickLink(headers []email.Header, link string) bool {
	if !OneClick(headers) || !strings.HasPrefix(strings.ToLower(link), "https://") {
		return false
	}
	fromHeader, ok := fromHeaders(headers)
	return ok && fromHeader == link
}
