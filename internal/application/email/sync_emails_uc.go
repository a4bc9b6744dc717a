package email

import (
	"context"
	"fmt"
	"log"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
)

const summaryFallback = "Unable to generate summary."

type SyncOptions struct {
	MaxResults   int64
	IncludeSpam  bool
	IncludeTrash bool
}

type SyncReport struct {
	New     int `json:"new"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

type SyncEmailsUseCase struct {
	users      UserRepository
	categories CategoryRepository
	repo       EmailRepository
	mailboxes  Mailboxes
	classifier Classifier
	maxResults int64
}

func NewSyncEmailsUseCase(
	users UserRepository,
	categories CategoryRepository,
	repo EmailRepository,
	mailboxes Mailboxes,
	classifier Classifier,
	defaultMaxResults int64,
) *SyncEmailsUseCase {
	return &SyncEmailsUseCase{
		users:      users,
		categories: categories,
		repo:       repo,
		mailboxes:  mailboxes,
		classifier: classifier,
		maxResults: defaultMaxResults,
	}
}

// Execute pulls new inbox messages, categorises, summarises and stores them,
// then archives them in Gmail. A failing message is counted and skipped.
func (uc *SyncEmailsUseCase) Execute(ctx context.Context, userID string, opts SyncOptions) (*SyncReport, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	categories, err := uc.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, email.ErrNoCategories
	}

	mailbox, err := uc.mailboxes.ForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("open mailbox: %w", err)
	}

	if opts.MaxResults <= 0 {
		opts.MaxResults = uc.maxResults
	}

	log.Printf("Syncing emails for %s (maxResults=%d includeSpam=%t includeTrash=%t)",
		user.Email, opts.MaxResults, opts.IncludeSpam, opts.IncludeTrash)

	ids, err := mailbox.ListMessageIDs(ctx, email.MailboxQuery{
		MaxResults:   opts.MaxResults,
		IncludeSpam:  opts.IncludeSpam,
		IncludeTrash: opts.IncludeTrash,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	report := &SyncReport{Total: len(ids)}
	for _, gmailID := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		stored, err := uc.processMessage(ctx, user, mailbox, categories, gmailID)
		switch {
		case err != nil:
			log.Printf("Error processing email %s: %v", gmailID, err)
			report.Errors++
		case stored:
			report.New++
		default:
			report.Skipped++
		}
	}

	log.Printf("Email sync completed for %s: %d new, %d skipped, %d errors",
		user.Email, report.New, report.Skipped, report.Errors)

	return report, nil
}

func (uc *SyncEmailsUseCase) processMessage(
	ctx context.Context,
	user *email.User,
	mailbox Mailbox,
	categories []*email.Category,
	gmailID string,
) (bool, error) {
	processed, err := uc.repo.EmailAlreadyProcessed(ctx, user.ID, gmailID)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	if processed {
		return false, nil
	}

	msg, err := mailbox.FetchMessage(ctx, gmailID)
	if err != nil {
		return false, fmt.Errorf("fetch email: %w", err)
	}

	emailEntity := email.NewEmail(user.ID, user.Email, msg)

	categoryName, err := uc.classifier.Categorize(ctx, emailEntity.Subject, emailEntity.From, emailEntity.Body, categories)
	if err != nil {
		log.Printf("Failed to categorize %s: %v", gmailID, err)
		categoryName = email.Uncategorized
	}

	summary, err := uc.classifier.Summarize(ctx, emailEntity.Subject, emailEntity.Body)
	if err != nil {
		log.Printf("Failed to summarize %s: %v", gmailID, err)
		summary = summaryFallback
	}

	classification := email.NewClassification(categoryName, summary)
	emailEntity.Classify(classification.Match(categories), classification.Summary)

	if link, ok := unsubscribe.ExtractMessage(msg); ok {
		emailEntity.UnsubscribeLink = link
		emailEntity.OneClick = unsubscribe.OneClickLink(msg.Headers, link)
	}

	if err := uc.repo.Save(ctx, emailEntity); err != nil {
		return false, fmt.Errorf("save email: %w", err)
	}

	if err := mailbox.Archive(ctx, gmailID); err != nil {
		log.Printf("Failed to archive email %s: %v", gmailID, err)
	} else if err := uc.repo.MarkArchived(ctx, emailEntity.ID); err != nil {
		log.Printf("Failed to mark email %s archived: %v", gmailID, err)
	}

	log.Printf("OK: %s – category=%q unsubscribe=%t", gmailID, categoryName, emailEntity.HasUnsubscribeLink())

	return true, nil
}
