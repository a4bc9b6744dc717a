// Package mailfile turns raw RFC 822 messages (.eml files, mbox archives)
// into the message model used by the extractor.
package mailfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"

	"mailsort/internal/domain/email"
)

// Parse reads one raw message. fallbackID names the message when it has
// no Message-ID header. Unknown charsets and transfer encodings are
// tolerated; the affected part is kept undecoded.
func Parse(r io.Reader, fallbackID string) (*email.Message, error) {
	entity, err := message.Read(r)
	if err != nil && !isUnknown(err) {
		return nil, fmt.Errorf("read message: %w", err)
	}

	msg := &email.Message{
		GmailID: fallbackID,
		Headers: headers(entity.Header),
	}
	if id := strings.Trim(entity.Header.Get("Message-Id"), "<> "); id != "" {
		msg.GmailID = id
	}

	root, err := toPart(entity)
	if err != nil {
		return nil, err
	}
	msg.Body = email.FoldBody(root)

	return msg, nil
}

func ParseFile(path string) (*email.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// ReadMbox calls fn for every message of the mbox stream r, in order. A
// message that cannot be parsed is passed to fn as a nil message with the
// parse error; returning an error from fn stops the walk.
func ReadMbox(r io.Reader, fn func(idx int, msg *email.Message, err error) error) error {
	reader := mbox.NewReader(r)

	for idx := 0; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("message %d: %w", idx, err)
		}

		msg, parseErr := Parse(msgReader, fmt.Sprintf("#%d", idx+1))
		if parseErr != nil {
			parseErr = fmt.Errorf("message %d parse: %w", idx, parseErr)
		}
		if err := fn(idx, msg, parseErr); err != nil {
			return err
		}
	}
}

func ReadMboxFile(path string, fn func(idx int, msg *email.Message, err error) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mbox: %w", err)
	}
	defer f.Close()

	return ReadMbox(f, fn)
}

func headers(h message.Header) email.Headers {
	out := make(email.Headers, 0, h.Len())
	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out = append(out, email.Header{Name: fieldName(fields), Value: value})
	}
	return out
}

// fieldName returns the header name as written in the message. Key() is
// canonicalized, which would hide the original casing from the extractor.
func fieldName(fields message.HeaderFields) string {
	raw, err := fields.Raw()
	if err == nil {
		if i := bytes.IndexByte(raw, ':'); i > 0 {
			return strings.TrimSpace(string(raw[:i]))
		}
	}
	return fields.Key()
}

func toPart(e *message.Entity) (email.Part, error) {
	mediaType, _, err := e.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}
	part := email.Part{MimeType: mediaType}

	if mr := e.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !isUnknown(err) {
				return part, fmt.Errorf("read %s part: %w", mediaType, err)
			}
			p, err := toPart(child)
			if err != nil {
				return part, err
			}
			part.Parts = append(part.Parts, p)
		}
		return part, nil
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return part, nil
	}
	data, err := io.ReadAll(e.Body)
	if err != nil {
		return part, fmt.Errorf("read %s body: %w", mediaType, err)
	}
	part.Data = string(data)

	return part, nil
}

func isUnknown(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
