package email

import "time"

type Email struct {
	ID              string
	UserID          string
	CategoryID      string
	GmailID         string
	AccountEmail    string
	Subject         string
	From            string
	To              string
	Date            time.Time
	Body            string
	BodyHTML        string
	Summary         string
	UnsubscribeLink string
	OneClick        bool
	Archived        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewEmail(userID, accountEmail string, msg *Message) *Email {
	now := time.Now()
	date := msg.Date()
	if date.IsZero() {
		date = now
	}
	return &Email{
		UserID:       userID,
		GmailID:      msg.GmailID,
		AccountEmail: accountEmail,
		Subject:      msg.Subject(),
		From:         msg.From(),
		To:           msg.To(),
		Date:         date,
		Body:         msg.PlainOrSnippet(),
		BodyHTML:     msg.Body.HTML,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (e *Email) Classify(category *Category, summary string) {
	e.CategoryID = ""
	if category != nil {
		e.CategoryID = category.ID
	}
	e.Summary = summary
}

func (e *Email) HasUnsubscribeLink() bool {
	return e.UnsubscribeLink != ""
}

func (e *Email) OwnedBy(userID string) bool {
	return e.UserID == userID
}
