package email

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoCategories      = errors.New("no categories found, create categories first")
	ErrNoUnsubscribeLink = errors.New("no unsubscribe link found for this email")
)
