package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"google.golang.org/api/gmail/v1"

	"mailsort/internal/domain/email"
)

const (
	me         = "me"
	inboxLabel = "INBOX"
)

// Client is one user's Gmail mailbox.
type Client struct {
	Srv *gmail.Service
}

func NewClient(srv *gmail.Service) *Client {
	return &Client{Srv: srv}
}

// ListMessageIDs lists the newest message IDs of the inbox, optionally
// widened to spam and trash.
func (c *Client) ListMessageIDs(ctx context.Context, q email.MailboxQuery) ([]string, error) {
	call := c.Srv.Users.Messages.List(me).
		Q(searchQuery(q)).
		MaxResults(q.MaxResults).
		Context(ctx)
	if q.IncludeSpam || q.IncludeTrash {
		call = call.IncludeSpamTrash(true)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}

	return ids, nil
}

func searchQuery(q email.MailboxQuery) string {
	query := "in:inbox"
	if q.IncludeSpam {
		query += " OR in:spam"
	}
	if q.IncludeTrash {
		query += " OR in:trash"
	}
	return query
}

func (c *Client) FetchMessage(ctx context.Context, messageID string) (*email.Message, error) {
	msg, err := c.Srv.Users.Messages.Get(me, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get message: %w", err)
	}
	return toMessage(msg), nil
}

// Archive removes the message from the inbox.
func (c *Client) Archive(ctx context.Context, messageID string) error {
	_, err := c.Srv.Users.Messages.Modify(me, messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{inboxLabel},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail archive: %w", err)
	}
	return nil
}

func (c *Client) Trash(ctx context.Context, messageID string) error {
	if _, err := c.Srv.Users.Messages.Trash(me, messageID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail trash: %w", err)
	}
	return nil
}

func (c *Client) SendMail(ctx context.Context, to, subject, body string) error {
	raw, err := buildRaw(to, subject, body, time.Now())
	if err != nil {
		return err
	}

	_, err = c.Srv.Users.Messages.Send(me, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}

	log.Printf("Unsubscribe email sent to %s", to)
	return nil
}

// EnableWatch enables Gmail push notifications for the inbox
func (c *Client) EnableWatch(ctx context.Context, topicName string) error {
	resp, err := c.Srv.Users.Watch(me, &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{inboxLabel},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail watch: %w", err)
	}

	log.Printf("Watch enabled, expires %s", time.UnixMilli(resp.Expiration).Format(time.RFC3339))
	return nil
}

func buildRaw(to, subject, body string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func toMessage(msg *gmail.Message) *email.Message {
	m := &email.Message{
		GmailID:  msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload == nil {
		return m
	}

	m.Headers = make(email.Headers, 0, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		m.Headers = append(m.Headers, email.Header{Name: h.Name, Value: h.Value})
	}
	m.Body = email.FoldBody(toPart(msg.Payload))

	return m
}

func toPart(p *gmail.MessagePart) email.Part {
	part := email.Part{MimeType: p.MimeType}
	if p.Body != nil && p.Body.Data != "" {
		data, err := decodeData(p.Body.Data)
		if err != nil {
			log.Printf("Skipping undecodable %s part: %v", p.MimeType, err)
		} else {
			part.Data = data
		}
	}
	for _, child := range p.Parts {
		if child == nil {
			continue
		}
		part.Parts = append(part.Parts, toPart(child))
	}
	return part
}

// decodeData decodes Gmail's base64url part data, padded or not.
func decodeData(data string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
