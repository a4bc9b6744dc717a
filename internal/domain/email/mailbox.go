package email

import "time"

// MailboxQuery selects the messages a sync looks at.
type MailboxQuery struct {
	MaxResults   int64
	IncludeSpam  bool
	IncludeTrash bool
}

// Tokens are the OAuth credentials returned by the Google consent flow.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Filter narrows an email listing. UserID is always set by the caller.
type Filter struct {
	UserID       string
	CategoryID   string
	AccountEmail string
	Archived     *bool
	Limit        int
	Offset       int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize clamps paging to sane bounds.
func (f *Filter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
