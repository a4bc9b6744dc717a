package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailsort/internal/domain/email"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, googleID, address string) *email.User {
	t.Helper()
	u := &email.User{GoogleID: googleID, Email: address, AccessToken: "at", RefreshToken: "rt"}
	require.NoError(t, NewUserRepository(db).Upsert(context.Background(), u))
	return u
}

func TestUserRepository_Upsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "g-1", "me@example.com")
	require.NotEmpty(t, u.ID)

	again := &email.User{GoogleID: "g-1", Email: "me@example.com", AccessToken: "at2"}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "rt", again.RefreshToken)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "at2", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)

	byEmail, err := repo.GetByEmail(ctx, "ME@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, email.ErrNotFound)
}

func TestCategoryRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "g-1", "me@example.com")

	work := email.NewCategory(u.ID, "Work", "Job", "#f00")
	require.NoError(t, repo.Create(ctx, work))
	require.NoError(t, repo.Create(ctx, email.NewCategory(u.ID, "bills", "Money", "")))

	err := repo.Create(ctx, email.NewCategory(u.ID, "WORK", "dup", ""))
	assert.ErrorIs(t, err, email.ErrConflict)

	list, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bills", list[0].Name)

	found, err := repo.FindByName(ctx, u.ID, " work ")
	require.NoError(t, err)
	assert.Equal(t, work.ID, found.ID)

	work.Description = "Colleagues"
	require.NoError(t, repo.Update(ctx, work))
	got, err := repo.GetByID(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Colleagues", got.Description)

	require.NoError(t, repo.Delete(ctx, work.ID))
	assert.ErrorIs(t, repo.Delete(ctx, work.ID), email.ErrNotFound)
	_, err = repo.FindByName(ctx, u.ID, "work")
	assert.ErrorIs(t, err, email.ErrNotFound)
}

func TestEmailRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewEmailRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "g-1", "me@example.com")
	other := createUser(t, db, "g-2", "you@example.com")
	promo := email.NewCategory(u.ID, "Promo", "Deals", "")
	require.NoError(t, categories.Create(ctx, promo))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var saved []*email.Email
	for i, gmailID := range []string{"g-a", "g-b", "g-c"} {
		e := &email.Email{
			UserID:          u.ID,
			GmailID:         gmailID,
			AccountEmail:    u.Email,
			Subject:         "Subject " + gmailID,
			Date:            base.Add(time.Duration(i) * time.Hour),
			Body:            "body",
			UnsubscribeLink: "https://example.com/u",
			OneClick:        i == 0,
			CreatedAt:       base,
		}
		if i < 2 {
			e.CategoryID = promo.ID
		}
		require.NoError(t, repo.Save(ctx, e))
		saved = append(saved, e)
	}
	foreign := &email.Email{UserID: other.ID, GmailID: "g-a", AccountEmail: other.Email, CreatedAt: base}
	require.NoError(t, repo.Save(ctx, foreign))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(ctx, saved[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Subject g-a", got.Subject)
		assert.Equal(t, promo.ID, got.CategoryID)
		assert.True(t, got.OneClick)
		assert.True(t, got.Date.Equal(base))

		_, err = repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, email.ErrNotFound)
	})

	t.Run("already processed is per user", func(t *testing.T) {
		ok, err := repo.EmailAlreadyProcessed(ctx, u.ID, "g-b")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.EmailAlreadyProcessed(ctx, other.ID, "g-b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save same message keeps id", func(t *testing.T) {
		dup := &email.Email{UserID: u.ID, GmailID: "g-c", AccountEmail: u.Email, Subject: "changed", Date: saved[2].Date, CreatedAt: base}
		require.NoError(t, repo.Save(ctx, dup))
		assert.Equal(t, saved[2].ID, dup.ID)
	})

	t.Run("list newest first with filters", func(t *testing.T) {
		emails, total, err := repo.List(ctx, email.Filter{UserID: u.ID, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, emails, 2)
		assert.Equal(t, "g-c", emails[0].GmailID)

		emails, total, err = repo.List(ctx, email.Filter{UserID: u.ID, CategoryID: promo.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, emails, 2)
	})

	t.Run("archive flag", func(t *testing.T) {
		require.NoError(t, repo.MarkArchived(ctx, saved[0].ID))
		archived := true
		emails, total, err := repo.List(ctx, email.Filter{UserID: u.ID, Archived: &archived})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, saved[0].ID, emails[0].ID)
	})

	t.Run("list by ids keeps order and ownership", func(t *testing.T) {
		got, err := repo.ListByIDs(ctx, u.ID, []string{saved[2].ID, foreign.ID, "nope", saved[0].ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, saved[2].ID, got[0].ID)
		assert.Equal(t, saved[0].ID, got[1].ID)
	})

	t.Run("deleting a category uncategorises its emails", func(t *testing.T) {
		require.NoError(t, categories.Delete(ctx, promo.ID))
		got, err := repo.GetByID(ctx, saved[1].ID)
		require.NoError(t, err)
		assert.Empty(t, got.CategoryID)
	})

	t.Run("update category and delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateCategory(ctx, "nope", ""), email.ErrNotFound)
		require.NoError(t, repo.Delete(ctx, saved[1].ID))
		assert.ErrorIs(t, repo.Delete(ctx, saved[1].ID), email.ErrNotFound)
	})
}

func TestSessionRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "g-1", "me@example.com")

	live, err := repo.Create(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	stale, err := repo.Create(ctx, u.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	userID, err := repo.UserID(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	_, err = repo.UserID(ctx, stale)
	assert.ErrorIs(t, err, email.ErrNotFound)

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, live))
	_, err = repo.UserID(ctx, live)
	assert.ErrorIs(t, err, email.ErrNotFound)
}
