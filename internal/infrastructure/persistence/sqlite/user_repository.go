package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailsort/internal/domain/email"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, google_id, access_token, refresh_token, token_expiry, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*email.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, address string) (*email.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE ORDER BY updated_at DESC LIMIT 1`,
		address,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", address)
	}
	return u, nil
}

// Upsert inserts the user or updates the row with the same Google ID. An
// empty RefreshToken keeps the stored one. u is updated with the stored ID,
// refresh token and creation time.
func (r *UserRepository) Upsert(ctx context.Context, u *email.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(google_id) DO UPDATE SET
		     email = excluded.email,
		     access_token = excluded.access_token,
		     refresh_token = CASE WHEN excluded.refresh_token = '' THEN users.refresh_token ELSE excluded.refresh_token END,
		     token_expiry = excluded.token_expiry,
		     updated_at = excluded.updated_at
		 RETURNING id, refresh_token, created_at`,
		uuid.NewString(), u.Email, u.GoogleID, u.AccessToken, u.RefreshToken,
		unix(u.TokenExpiry), unix(u.CreatedAt), unix(u.UpdatedAt),
	).Scan(&u.ID, &u.RefreshToken, &createdAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	u.CreatedAt = fromUnix(createdAt)

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*email.User, error) {
	var (
		u                        email.User
		expiry, created, updated int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.GoogleID, &u.AccessToken, &u.RefreshToken, &expiry, &created, &updated); err != nil {
		return nil, err
	}
	u.TokenExpiry = fromUnix(expiry)
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return &u, nil
}
