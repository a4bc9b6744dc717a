package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
)

// OAuth runs the Google web consent flow.
type OAuth struct {
	config *oauth2.Config
}

func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			oauth2api.OpenIDScope,
			oauth2api.UserinfoEmailScope,
			oauth2api.UserinfoProfileScope,
			gmail.GmailModifyScope,
		},
	}}
}

// AuthCodeURL always asks for consent so Google hands out a refresh token.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("cannot exchange code for token: %w", err)
	}
	return tok, nil
}

func (o *OAuth) Profile(ctx context.Context, tok *oauth2.Token) (email.GoogleProfile, error) {
	srv, err := oauth2api.NewService(ctx, option.WithTokenSource(o.config.TokenSource(ctx, tok)))
	if err != nil {
		return email.GoogleProfile{}, fmt.Errorf("cannot create userinfo service: %w", err)
	}
	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return email.GoogleProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	return email.GoogleProfile{ID: info.Id, Email: info.Email}, nil
}

type TokenOpener interface {
	Open(sealed string) (string, error)
}

// Mailboxes opens Gmail clients from a user's stored tokens.
type Mailboxes struct {
	oauth  *OAuth
	opener TokenOpener
}

func NewMailboxes(oauth *OAuth, opener TokenOpener) *Mailboxes {
	return &Mailboxes{oauth: oauth, opener: opener}
}

func (m *Mailboxes) ForUser(ctx context.Context, u *email.User) (emailapp.Mailbox, error) {
	access, err := m.opener.Open(u.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	refresh, err := m.opener.Open(u.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       u.TokenExpiry,
		TokenType:    "Bearer",
	}

	// Background keeps the token source usable after the request that opened it.
	srv, err := gmail.NewService(ctx, option.WithTokenSource(m.oauth.config.TokenSource(context.Background(), tok)))
	if err != nil {
		return nil, fmt.Errorf("cannot create gmail service: %w", err)
	}

	return NewClient(srv), nil
}
