package email

import (
	"net/mail"
	"strings"
	"time"
)

const noSubject = "(No Subject)"

type Header struct {
	Name  string
	Value string
}

// Headers keeps raw header lines in message order.
type Headers []Header

// Get returns the value of the first header whose name matches exactly.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if hdr.Name == name {
			return hdr.Value, true
		}
	}
	return "", false
}

// GetFold is Get with a case-insensitive name match.
func (h Headers) GetFold(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Part is one node of a decoded MIME tree. Data holds the decoded content of
// leaf parts.
type Part struct {
	MimeType string
	Data     string
	Parts    []Part
}

// Body holds the two renderings of a message. An empty HTML means the message
// has no HTML rendering.
type Body struct {
	Plain string
	HTML  string
}

// FoldBody walks the tree depth first and keeps the first non-empty
// text/plain and text/html contents it meets.
func FoldBody(root Part) Body {
	var b Body
	if len(root.Parts) == 0 {
		if isMime(root.MimeType, "text/html") {
			b.HTML = root.Data
		} else {
			b.Plain = root.Data
		}
		return b
	}
	foldParts(root.Parts, &b)
	return b
}

func foldParts(parts []Part, b *Body) {
	for _, p := range parts {
		switch {
		case len(p.Parts) > 0:
			foldParts(p.Parts, b)
		case isMime(p.MimeType, "text/plain"):
			if b.Plain == "" {
				b.Plain = p.Data
			}
		case isMime(p.MimeType, "text/html"):
			if b.HTML == "" {
				b.HTML = p.Data
			}
		}
	}
}

func isMime(mimeType, want string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == want || strings.HasPrefix(mimeType, want+";")
}

// Message is a mailbox message as fetched, before it is categorised and
// stored.
type Message struct {
	GmailID  string
	ThreadID string
	Headers  Headers
	Body     Body
	Snippet  string
}

func (m *Message) Subject() string {
	if s := m.Headers.GetFold("Subject"); s != "" {
		return s
	}
	return noSubject
}

func (m *Message) From() string { return m.Headers.GetFold("From") }
func (m *Message) To() string   { return m.Headers.GetFold("To") }

// Date returns the parsed Date header, or the zero time when it is missing
// or malformed.
func (m *Message) Date() time.Time {
	raw := m.Headers.GetFold("Date")
	if raw == "" {
		return time.Time{}
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m *Message) PlainOrSnippet() string {
	if m.Body.Plain != "" {
		return m.Body.Plain
	}
	return m.Snippet
}
