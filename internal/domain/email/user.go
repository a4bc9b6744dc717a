package email

import "time"

// User owns a Gmail mailbox. AccessToken and RefreshToken are stored sealed
// and only opened by the mailbox factory.
type User struct {
	ID           string
	Email        string
	GoogleID     string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type GoogleProfile struct {
	ID    string
	Email string
}
