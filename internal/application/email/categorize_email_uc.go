package email

import (
	"context"
	"fmt"
	"log"

	"mailsort/internal/domain/email"
)

type CategorizeEmailUseCase struct {
	repo       EmailRepository
	categories CategoryRepository
	classifier Classifier
}

func NewCategorizeEmailUseCase(repo EmailRepository, categories CategoryRepository, classifier Classifier) *CategorizeEmailUseCase {
	return &CategorizeEmailUseCase{
		repo:       repo,
		categories: categories,
		classifier: classifier,
	}
}

// Execute re-runs the classifier on a stored email and updates its category.
func (uc *CategorizeEmailUseCase) Execute(ctx context.Context, userID, emailID string) (*email.Email, error) {
	e, err := ownedEmail(ctx, uc.repo, userID, emailID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	name, err := uc.classifier.Categorize(ctx, e.Subject, e.From, e.Body, categories)
	if err != nil {
		log.Printf("Failed to categorize %s: %v", emailID, err)
		name = email.Uncategorized
	}

	e.Classify(email.NewClassification(name, e.Summary).Match(categories), e.Summary)

	if err := uc.repo.UpdateCategory(ctx, e.ID, e.CategoryID); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return e, nil
}

func ownedEmail(ctx context.Context, repo EmailRepository, userID, emailID string) (*email.Email, error) {
	e, err := repo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if !e.OwnedBy(userID) {
		return nil, email.ErrForbidden
	}
	return e, nil
}
