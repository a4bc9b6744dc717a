package email

import (
	"context"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
)

type Classifier interface {
	Categorize(ctx context.Context, subject, from, body string, categories []*email.Category) (string, error)
	Summarize(ctx context.Context, subject, body string) (string, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*email.User, error)
	GetByEmail(ctx context.Context, address string) (*email.User, error)
	Upsert(ctx context.Context, u *email.User) error
}

type CategoryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*email.Category, error)
	GetByID(ctx context.Context, id string) (*email.Category, error)
	FindByName(ctx context.Context, userID, name string) (*email.Category, error)
	Create(ctx context.Context, c *email.Category) error
	Update(ctx context.Context, c *email.Category) error
	Delete(ctx context.Context, id string) error
}

type EmailRepository interface {
	GetByID(ctx context.Context, id string) (*email.Email, error)
	Save(ctx context.Context, e *email.Email) error
	EmailAlreadyProcessed(ctx context.Context, userID, gmailID string) (bool, error)
	UpdateCategory(ctx context.Context, id, categoryID string) error
	MarkArchived(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f email.Filter) ([]*email.Email, int, error)
	ListByIDs(ctx context.Context, userID string, ids []string) ([]*email.Email, error)
}

// Mailbox is one user's Gmail mailbox.
type Mailbox interface {
	ListMessageIDs(ctx context.Context, q email.MailboxQuery) ([]string, error)
	FetchMessage(ctx context.Context, messageID string) (*email.Message, error)
	Archive(ctx context.Context, messageID string) error
	Trash(ctx context.Context, messageID string) error
	SendMail(ctx context.Context, to, subject, body string) error
	EnableWatch(ctx context.Context, topicName string) error
}

type Mailboxes interface {
	ForUser(ctx context.Context, u *email.User) (Mailbox, error)
}

type TokenSealer interface {
	Seal(plain string) (string, error)
}

// PageUnsubscriber follows an http(s) unsubscribe link in a browser.
type PageUnsubscriber interface {
	Unsubscribe(ctx context.Context, link, userEmail string) unsubscribe.Result
}

// OneClickPoster sends an RFC 8058 one-click unsubscribe request.
type OneClickPoster interface {
	Post(ctx context.Context, link string) error
}
