package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"mailsort/internal/domain/email"
)

type LoginUseCase struct {
	users      UserRepository
	categories *CategoriesUseCase
	mailboxes  Mailboxes
	sealer     TokenSealer
	defaults   []CategoryInput
	topicName  string
}

// NewLoginUseCase builds the login flow. When topicName is set, Gmail push
// notifications are enabled for the user's mailbox on every login.
func NewLoginUseCase(
	users UserRepository,
	categories *CategoriesUseCase,
	mailboxes Mailboxes,
	sealer TokenSealer,
	defaults []CategoryInput,
	topicName string,
) *LoginUseCase {
	return &LoginUseCase{
		users:      users,
		categories: categories,
		mailboxes:  mailboxes,
		sealer:     sealer,
		defaults:   defaults,
		topicName:  topicName,
	}
}

// Execute stores the Google account and its sealed tokens. An empty refresh
// token (Google only returns one on first consent) keeps the stored one.
func (uc *LoginUseCase) Execute(ctx context.Context, profile email.GoogleProfile, tok email.Tokens) (*email.User, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: google profile without id or email", email.ErrInvalidInput)
	}

	access, err := uc.sealer.Seal(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}
	var refresh string
	if tok.RefreshToken != "" {
		if refresh, err = uc.sealer.Seal(tok.RefreshToken); err != nil {
			return nil, fmt.Errorf("seal refresh token: %w", err)
		}
	}

	now := time.Now()
	user := &email.User{
		Email:        profile.Email,
		GoogleID:     profile.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  tok.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	if err := uc.categories.SeedDefaults(ctx, user.ID, uc.defaults); err != nil {
		log.Printf("Failed to seed categories for %s: %v", user.Email, err)
	}

	if uc.topicName != "" {
		uc.enableWatch(ctx, user)
	}

	log.Printf("User logged in: %s", user.Email)
	return user, nil
}

func (uc *LoginUseCase) enableWatch(ctx context.Context, user *email.User) {
	mailbox, err := uc.mailboxes.ForUser(ctx, user)
	if err != nil {
		log.Printf("Warning: Failed to open mailbox for watch: %v", err)
		return
	}
	if err := mailbox.EnableWatch(ctx, uc.topicName); err != nil {
		log.Printf("Warning: Failed to enable watch for %s: %v", user.Email, err)
	}
}
