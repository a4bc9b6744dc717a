package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mailsort/internal/domain/email"
)

type CategoryInput struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color,omitempty" yaml:"color"`
}

type CategoriesUseCase struct {
	repo CategoryRepository
}

func NewCategoriesUseCase(repo CategoryRepository) *CategoriesUseCase {
	return &CategoriesUseCase{repo: repo}
}

func (uc *CategoriesUseCase) List(ctx context.Context, userID string) ([]*email.Category, error) {
	return uc.repo.ListByUser(ctx, userID)
}

func (uc *CategoriesUseCase) Create(ctx context.Context, userID string, in CategoryInput) (*email.Category, error) {
	c := email.NewCategory(userID, in.Name, in.Description, in.Color)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := uc.ensureUniqueName(ctx, userID, c.Name, ""); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update applies the non-empty fields of in.
func (uc *CategoriesUseCase) Update(ctx context.Context, userID, id string, in CategoryInput) (*email.Category, error) {
	c, err := ownedCategory(ctx, uc.repo, userID, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		if !c.NameEquals(name) {
			if err := uc.ensureUniqueName(ctx, userID, name, c.ID); err != nil {
				return nil, err
			}
		}
		c.Name = name
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		c.Description = desc
	}
	if color := strings.TrimSpace(in.Color); color != "" {
		c.Color = color
	}
	c.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes the category; its emails stay, uncategorised.
func (uc *CategoriesUseCase) Delete(ctx context.Context, userID, id string) error {
	if _, err := ownedCategory(ctx, uc.repo, userID, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// SeedDefaults creates the default categories for a user that has none yet.
func (uc *CategoriesUseCase) SeedDefaults(ctx context.Context, userID string, defaults []CategoryInput) error {
	existing, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, in := range defaults {
		if _, err := uc.Create(ctx, userID, in); err != nil && !errors.Is(err, email.ErrConflict) {
			return fmt.Errorf("seed category %q: %w", in.Name, err)
		}
	}
	return nil
}

func (uc *CategoriesUseCase) ensureUniqueName(ctx context.Context, userID, name, selfID string) error {
	existing, err := uc.repo.FindByName(ctx, userID, name)
	if errors.Is(err, email.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: category with this name already exists", email.ErrConflict)
}

func ownedCategory(ctx context.Context, repo CategoryRepository, userID, id string) (*email.Category, error) {
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(userID) {
		return nil, email.ErrForbidden
	}
	return c, nil
}
