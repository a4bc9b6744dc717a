package email

import (
	"context"
	"fmt"
	"log"

	"mailsort/internal/domain/email"
)

type EmailPage struct {
	Emails   []*email.Email
	Total    int
	Limit    int
	Offset   int
	Category *email.Category
}

type BulkDeleteError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BulkDeleteReport struct {
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []BulkDeleteError `json:"errors"`
}

// ManageEmailsUseCase serves the read and delete side of stored emails.
type ManageEmailsUseCase struct {
	repo       EmailRepository
	categories CategoryRepository
	users      UserRepository
	mailboxes  Mailboxes
}

func NewManageEmailsUseCase(
	repo EmailRepository,
	categories CategoryRepository,
	users UserRepository,
	mailboxes Mailboxes,
) *ManageEmailsUseCase {
	return &ManageEmailsUseCase{
		repo:       repo,
		categories: categories,
		users:      users,
		mailboxes:  mailboxes,
	}
}

func (uc *ManageEmailsUseCase) List(ctx context.Context, f email.Filter) (*EmailPage, error) {
	f.Normalize()
	emails, total, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	return &EmailPage{Emails: emails, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (uc *ManageEmailsUseCase) Get(ctx context.Context, userID, emailID string) (*email.Email, error) {
	return ownedEmail(ctx, uc.repo, userID, emailID)
}

func (uc *ManageEmailsUseCase) ListByCategory(ctx context.Context, userID, categoryID string, limit, offset int) (*EmailPage, error) {
	category, err := ownedCategory(ctx, uc.categories, userID, categoryID)
	if err != nil {
		return nil, err
	}

	page, err := uc.List(ctx, email.Filter{
		UserID:     userID,
		CategoryID: categoryID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	page.Category = category
	return page, nil
}

// Delete moves the message to the Gmail trash and removes the stored copy.
// A Gmail failure does not stop the local delete.
func (uc *ManageEmailsUseCase) Delete(ctx context.Context, userID, emailID string) error {
	e, err := ownedEmail(ctx, uc.repo, userID, emailID)
	if err != nil {
		return err
	}

	mailbox, err := uc.mailboxFor(ctx, userID)
	if err != nil {
		return err
	}

	if err := mailbox.Trash(ctx, e.GmailID); err != nil {
		log.Printf("Failed to delete email %s from Gmail: %v", e.GmailID, err)
	}

	if err := uc.repo.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("delete email: %w", err)
	}

	log.Printf("Email deleted: %s", e.ID)
	return nil
}

// BulkDelete removes every owned email in ids. Unlike Delete, a Gmail failure
// marks the email as failed and keeps the stored copy.
func (uc *ManageEmailsUseCase) BulkDelete(ctx context.Context, userID string, ids []string) (*BulkDeleteReport, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: emailIds array is required", email.ErrInvalidInput)
	}

	mailbox, err := uc.mailboxFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	emails, err := uc.repo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}

	report := &BulkDeleteReport{Errors: []BulkDeleteError{}}
	for _, e := range emails {
		err := mailbox.Trash(ctx, e.GmailID)
		if err == nil {
			err = uc.repo.Delete(ctx, e.ID)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, BulkDeleteError{ID: e.ID, Error: err.Error()})
			continue
		}
		report.Success++
	}

	log.Printf("Bulk delete completed: %d success, %d failed", report.Success, report.Failed)
	return report, nil
}

func (uc *ManageEmailsUseCase) mailboxFor(ctx context.Context, userID string) (Mailbox, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	mailbox, err := uc.mailboxes.ForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("open mailbox: %w", err)
	}
	return mailbox, nil
}
