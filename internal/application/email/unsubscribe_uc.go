package email

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
)

const (
	defaultUnsubscribeSubject = "Unsubscribe"
	defaultUnsubscribeBody    = "Please unsubscribe me from this mailing list."
)

type BulkUnsubscribeItem struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BulkUnsubscribeReport struct {
	Success int                   `json:"success"`
	Failed  int                   `json:"failed"`
	Results []BulkUnsubscribeItem `json:"results"`
}

type UnsubscribeUseCase struct {
	repo      EmailRepository
	users     UserRepository
	mailboxes Mailboxes
	browser   PageUnsubscriber
	oneClick  OneClickPoster
	pace      *rate.Limiter
}

// NewUnsubscribeUseCase builds the use case. pace spaces out consecutive
// unsubscribe attempts of a bulk request; oneClick may be nil.
func NewUnsubscribeUseCase(
	repo EmailRepository,
	users UserRepository,
	mailboxes Mailboxes,
	browser PageUnsubscriber,
	oneClick OneClickPoster,
	pace *rate.Limiter,
) *UnsubscribeUseCase {
	if pace == nil {
		pace = rate.NewLimiter(rate.Inf, 1)
	}
	return &UnsubscribeUseCase{
		repo:      repo,
		users:     users,
		mailboxes: mailboxes,
		browser:   browser,
		oneClick:  oneClick,
		pace:      pace,
	}
}

func (uc *UnsubscribeUseCase) Execute(ctx context.Context, userID, emailID string) (unsubscribe.Result, error) {
	e, err := ownedEmail(ctx, uc.repo, userID, emailID)
	if err != nil {
		return unsubscribe.Result{}, err
	}
	if !e.HasUnsubscribeLink() {
		return unsubscribe.Result{}, email.ErrNoUnsubscribeLink
	}
	return uc.follow(ctx, e), nil
}

// ExecuteBulk unsubscribes from every owned email in ids that carries a link,
// one after the other.
func (uc *UnsubscribeUseCase) ExecuteBulk(ctx context.Context, userID string, ids []string) (*BulkUnsubscribeReport, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: emailIds array is required", email.ErrInvalidInput)
	}

	emails, err := uc.repo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}

	report := &BulkUnsubscribeReport{Results: []BulkUnsubscribeItem{}}
	for _, e := range emails {
		if !e.HasUnsubscribeLink() {
			continue
		}
		if err := uc.pace.Wait(ctx); err != nil {
			return report, err
		}

		res := uc.follow(ctx, e)
		report.Results = append(report.Results, BulkUnsubscribeItem{ID: e.ID, Success: res.Success, Error: res.Error})
		if res.Success {
			report.Success++
		} else {
			report.Failed++
		}
	}

	log.Printf("Bulk unsubscribe completed: %d success, %d failed", report.Success, report.Failed)
	return report, nil
}

func (uc *UnsubscribeUseCase) follow(ctx context.Context, e *email.Email) unsubscribe.Result {
	link := e.UnsubscribeLink

	switch unsubscribe.KindOf(link) {
	case unsubscribe.KindMailto:
		if err := uc.sendUnsubscribeMail(ctx, e); err != nil {
			log.Printf("Failed to send unsubscribe mail for %s: %v", e.ID, err)
			return unsubscribe.Failed(err)
		}
		return unsubscribe.Succeeded("Unsubscribe email sent")

	case unsubscribe.KindHTTP:
		if e.OneClick && uc.oneClick != nil {
			err := uc.oneClick.Post(ctx, link)
			if err == nil {
				return unsubscribe.Succeeded("One-click unsubscribe request accepted")
			}
			log.Printf("One-click unsubscribe failed for %s, falling back to browser: %v", e.ID, err)
		}
		log.Printf("Navigating to unsubscribe URL: %s", link)
		return uc.browser.Unsubscribe(ctx, link, e.AccountEmail)
	}

	return unsubscribe.Failed(errors.New("unsupported unsubscribe link"))
}

func (uc *UnsubscribeUseCase) sendUnsubscribeMail(ctx context.Context, e *email.Email) error {
	m, err := unsubscribe.ParseMailto(e.UnsubscribeLink)
	if err != nil {
		return err
	}

	user, err := uc.users.GetByID(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	mailbox, err := uc.mailboxes.ForUser(ctx, user)
	if err != nil {
		return fmt.Errorf("open mailbox: %w", err)
	}

	subject := m.Subject
	if subject == "" {
		subject = defaultUnsubscribeSubject
	}
	body := m.Body
	if body == "" {
		body = defaultUnsubscribeBody
	}

	return mailbox.SendMail(ctx, m.Address, subject, body)
}
