package httpapi

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
)

// GoogleAuth is the OAuth consent flow.
type GoogleAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, tok *oauth2.Token) (email.GoogleProfile, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID string, expiresAt time.Time) (string, error)
	UserID(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*email.User, error)
}

type Deps struct {
	Auth     GoogleAuth
	Sessions SessionStore
	Users    UserReader

	Login       *emailapp.LoginUseCase
	Categories  *emailapp.CategoriesUseCase
	Emails      *emailapp.ManageEmailsUseCase
	Sync        *emailapp.SyncEmailsUseCase
	Categorize  *emailapp.CategorizeEmailUseCase
	Unsubscribe *emailapp.UnsubscribeUseCase

	// AfterLogin, when set, runs once a user has a session.
	AfterLogin func(userID string)

	FrontendURL string
	SessionTTL  time.Duration
}
