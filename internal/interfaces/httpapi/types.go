package httpapi

import (
	"time"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
)

type userJSON struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	GoogleID string `json:"googleId"`
}

type categoryJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type emailJSON struct {
	ID              string    `json:"id"`
	GmailMessageID  string    `json:"gmailMessageId"`
	CategoryID      *string   `json:"categoryId"`
	AccountEmail    string    `json:"accountEmail"`
	Subject         string    `json:"subject"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Date            time.Time `json:"date"`
	Body            string    `json:"body"`
	BodyHTML        string    `json:"bodyHtml,omitempty"`
	Summary         string    `json:"summary"`
	UnsubscribeLink *string   `json:"unsubscribeLink"`
	OneClick        bool      `json:"oneClick"`
	IsArchived      bool      `json:"isArchived"`
	CreatedAt       time.Time `json:"createdAt"`
}

type emailPageJSON struct {
	Emails   []emailJSON   `json:"emails"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
	Category *categoryJSON `json:"category,omitempty"`
}

type syncRequest struct {
	MaxResults   int64 `json:"maxResults"`
	IncludeSpam  bool  `json:"includeSpam"`
	IncludeTrash bool  `json:"includeTrash"`
}

type syncResponse struct {
	Message   string              `json:"message"`
	Processed emailapp.SyncReport `json:"processed"`
	Total     int                 `json:"total"`
}

type emailIDRequest struct {
	EmailID string `json:"emailId"`
}

type emailIDsRequest struct {
	EmailIDs []string `json:"emailIds"`
}

type messageJSON struct {
	Message string `json:"message"`
}

func toUserJSON(u *email.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, GoogleID: u.GoogleID}
}

func toCategoryJSON(c *email.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCategoriesJSON(cs []*email.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCategoryJSON(c))
	}
	return out
}

func toEmailJSON(e *email.Email) emailJSON {
	return emailJSON{
		ID:              e.ID,
		GmailMessageID:  e.GmailID,
		CategoryID:      optional(e.CategoryID),
		AccountEmail:    e.AccountEmail,
		Subject:         e.Subject,
		From:            e.From,
		To:              e.To,
		Date:            e.Date,
		Body:            e.Body,
		BodyHTML:        e.BodyHTML,
		Summary:         e.Summary,
		UnsubscribeLink: optional(e.UnsubscribeLink),
		OneClick:        e.OneClick,
		IsArchived:      e.Archived,
		CreatedAt:       e.CreatedAt,
	}
}

func toEmailPageJSON(p *emailapp.EmailPage) emailPageJSON {
	out := emailPageJSON{
		Emails: make([]emailJSON, 0, len(p.Emails)),
		Total:  p.Total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	for _, e := range p.Emails {
		out.Emails = append(out.Emails, toEmailJSON(e))
	}
	if p.Category != nil {
		c := toCategoryJSON(p.Category)
		out.Category = &c
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
