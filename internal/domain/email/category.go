package email

import (
	"fmt"
	"strings"
	"time"
)

type Category struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCategory(userID, name, description, color string) *Category {
	now := time.Now()
	return &Category{
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Color:       strings.TrimSpace(color),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Category) Validate() error {
	if c.Name == "" || c.Description == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalidInput)
	}
	return nil
}

func (c *Category) NameEquals(name string) bool {
	return strings.EqualFold(c.Name, strings.TrimSpace(name))
}

func (c *Category) OwnedBy(userID string) bool {
	return c.UserID == userID
}
