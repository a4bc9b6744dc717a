package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailsort/internal/domain/email"
)

type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

const emailColumns = `id, user_id, category_id, gmail_id, account_email, subject, from_addr, to_addr, date,
	body, body_html, summary, unsubscribe_link, one_click, archived, created_at, updated_at`

func (r *EmailRepository) GetByID(ctx context.Context, id string) (*email.Email, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = ?`, id)
	e, err := scanEmail(row)
	if err != nil {
		return nil, notFound(err, "email", id)
	}
	return e, nil
}

// Save inserts e, or replaces the stored copy of the same Gmail message.
func (r *EmailRepository) Save(ctx context.Context, e *email.Email) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO emails (`+emailColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, gmail_id) DO UPDATE SET
		     category_id = excluded.category_id,
		     subject = excluded.subject,
		     from_addr = excluded.from_addr,
		     to_addr = excluded.to_addr,
		     date = excluded.date,
		     body = excluded.body,
		     body_html = excluded.body_html,
		     summary = excluded.summary,
		     unsubscribe_link = excluded.unsubscribe_link,
		     one_click = excluded.one_click,
		     archived = excluded.archived,
		     updated_at = excluded.updated_at
		 RETURNING id`,
		e.ID, e.UserID, nullable(e.CategoryID), e.GmailID, e.AccountEmail,
		e.Subject, e.From, e.To, unix(e.Date),
		e.Body, e.BodyHTML, e.Summary, e.UnsubscribeLink, e.OneClick, e.Archived,
		unix(e.CreatedAt), unix(e.UpdatedAt),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	return nil
}

func (r *EmailRepository) EmailAlreadyProcessed(ctx context.Context, userID, gmailID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM emails WHERE user_id = ? AND gmail_id = ? LIMIT 1`,
		userID, gmailID,
	).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}

	return true, nil
}

func (r *EmailRepository) UpdateCategory(ctx context.Context, id, categoryID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emails SET category_id = ?, updated_at = ? WHERE id = ?`,
		nullable(categoryID), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("update email category: %w", err)
	}
	return expectAffected(res, "email", id)
}

func (r *EmailRepository) MarkArchived(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emails SET archived = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	return expectAffected(res, "email", id)
}

func (r *EmailRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM emails WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete email: %w", err)
	}
	return expectAffected(res, "email", id)
}

// List returns one page of the user's emails, newest first, and the total
// number of emails matching f.
func (r *EmailRepository) List(ctx context.Context, f email.Filter) ([]*email.Email, int, error) {
	f.Normalize()

	where := []string{"user_id = ?"}
	args := []any{f.UserID}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.AccountEmail != "" {
		where = append(where, "account_email = ?")
		args = append(args, f.AccountEmail)
	}
	if f.Archived != nil {
		where = append(where, "archived = ?")
		args = append(args, *f.Archived)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emails WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count emails: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE `+cond+` ORDER BY date DESC, id LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	emails, err := scanEmails(rows)
	if err != nil {
		return nil, 0, err
	}
	return emails, total, nil
}

// ListByIDs returns the user's emails among ids, in the order of ids.
// Unknown IDs and other users' emails are left out.
func (r *EmailRepository) ListByIDs(ctx context.Context, userID string, ids []string) ([]*email.Email, error) {
	if len(ids) == 0 {
		return []*email.Email{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list emails by id: %w", err)
	}
	defer rows.Close()

	found, err := scanEmails(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*email.Email, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	out := make([]*email.Email, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	return out, nil
}

func scanEmails(rows *sql.Rows) ([]*email.Email, error) {
	emails := []*email.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return emails, nil
}

func scanEmail(row rowScanner) (*email.Email, error) {
	var (
		e                       email.Email
		categoryID              sql.NullString
		subject, from, to       sql.NullString
		body, bodyHTML, summary sql.NullString
		date, created, updated  int64
	)
	err := row.Scan(
		&e.ID, &e.UserID, &categoryID, &e.GmailID, &e.AccountEmail,
		&subject, &from, &to, &date,
		&body, &bodyHTML, &summary, &e.UnsubscribeLink, &e.OneClick, &e.Archived,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}

	e.CategoryID = categoryID.String
	e.Subject = subject.String
	e.From = from.String
	e.To = to.String
	e.Body = body.String
	e.BodyHTML = bodyHTML.String
	e.Summary = summary.String
	e.Date = fromUnix(date)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)

	return &e, nil
}
