package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
	"mailsort/internal/infrastructure/crypto"
	"mailsort/internal/infrastructure/persistence/sqlite"
)

const frontend = "http://localhost:5173"

type stubAuth struct {
	profile email.GoogleProfile
}

func (a *stubAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (a *stubAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "at-" + code, RefreshToken: "rt-" + code, Expiry: time.Now().Add(time.Hour)}, nil
}

func (a *stubAuth) Profile(context.Context, *oauth2.Token) (email.GoogleProfile, error) {
	return a.profile, nil
}

type sentMail struct{ to, subject, body string }

type stubMailbox struct {
	mu       sync.Mutex
	messages []*email.Message
	sent     []sentMail
	trashed  []string
	archived []string
}

func (m *stubMailbox) ListMessageIDs(context.Context, email.MailboxQuery) ([]string, error) {
	ids := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		ids = append(ids, msg.GmailID)
	}
	return ids, nil
}

func (m *stubMailbox) FetchMessage(_ context.Context, id string) (*email.Message, error) {
	for _, msg := range m.messages {
		if msg.GmailID == id {
			return msg, nil
		}
	}
	return nil, email.ErrNotFound
}

func (m *stubMailbox) Archive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived = append(m.archived, id)
	return nil
}

func (m *stubMailbox) Trash(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trashed = append(m.trashed, id)
	return nil
}

func (m *stubMailbox) SendMail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *stubMailbox) EnableWatch(context.Context, string) error { return nil }

type stubMailboxes struct{ box *stubMailbox }

func (s stubMailboxes) ForUser(context.Context, *email.User) (emailapp.Mailbox, error) {
	return s.box, nil
}

type stubClassifier struct{}

func (stubClassifier) Categorize(context.Context, string, string, string, []*email.Category) (string, error) {
	return "Newsletters", nil
}

func (stubClassifier) Summarize(_ context.Context, subject, _ string) (string, error) {
	return "About " + subject, nil
}

type stubBrowser struct{ links []string }

func (b *stubBrowser) Unsubscribe(_ context.Context, link, _ string) unsubscribe.Result {
	b.links = append(b.links, link)
	return unsubscribe.Succeeded("done")
}

type testEnv struct {
	handler http.Handler
	box     *stubMailbox
	browser *stubBrowser
	auth    *stubAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sealer, err := crypto.NewSealer(strings.Repeat("k", 32))
	require.NoError(t, err)

	users := sqlite.NewUserRepository(db)
	categories := sqlite.NewCategoryRepository(db)
	emails := sqlite.NewEmailRepository(db)
	sessions := sqlite.NewSessionRepository(db)

	env := &testEnv{
		box:     &stubMailbox{},
		browser: &stubBrowser{},
		auth:    &stubAuth{profile: email.GoogleProfile{ID: "g-1", Email: "me@example.com"}},
	}
	mailboxes := stubMailboxes{env.box}
	categoriesUC := emailapp.NewCategoriesUseCase(categories)

	env.handler = NewHandler(Deps{
		Auth:     env.auth,
		Sessions: sessions,
		Users:    users,
		Login: emailapp.NewLoginUseCase(users, categoriesUC, mailboxes, sealer, []emailapp.CategoryInput{
			{Name: "Newsletters", Description: "Periodic digests"},
			{Name: "Receipts", Description: "Orders and invoices"},
		}, ""),
		Categories:  categoriesUC,
		Emails:      emailapp.NewManageEmailsUseCase(emails, categories, users, mailboxes),
		Sync:        emailapp.NewSyncEmailsUseCase(users, categories, emails, mailboxes, stubClassifier{}, 50),
		Categorize:  emailapp.NewCategorizeEmailUseCase(emails, categories, stubClassifier{}),
		Unsubscribe: emailapp.NewUnsubscribeUseCase(emails, users, mailboxes, env.browser, nil, nil),
		FrontendURL: frontend,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// login runs the OAuth round trip and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	start := e.do(t, http.MethodGet, "/api/auth/google", nil)
	require.Equal(t, http.StatusFound, start.Code)
	state := findCookie(start, stateCookie)
	require.NotNil(t, state)
	assert.Contains(t, start.Header().Get("Location"), "state="+state.Value)

	cb := e.do(t, http.MethodGet, "/api/auth/google/callback?code=abc&state="+state.Value, nil, state)
	require.Equal(t, http.StatusFound, cb.Code)
	assert.Equal(t, frontend+"/dashboard", cb.Header().Get("Location"))

	session := findCookie(cb, sessionCookie)
	require.NotNil(t, session)
	return session
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)
	bogus := &http.Cookie{Name: sessionCookie, Value: "nope"}

	for _, path := range []string{"/api/auth/user", "/api/categories", "/api/emails"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = env.do(t, http.MethodGet, path, nil, bogus)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "unauthorized", decode[APIError](t, rec).Error.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/auth/user", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[userJSON](t, rec)
	assert.Equal(t, "me@example.com", user.Email)
	assert.Equal(t, "g-1", user.GoogleID)

	rec = env.do(t, http.MethodGet, "/api/categories", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]categoryJSON](t, rec)
	require.Len(t, cats, 2, "default categories are seeded on first login")
}

func TestLogin_BadState(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/google/callback?code=abc&state=forged", nil,
		&http.Cookie{Name: stateCookie, Value: "real"})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, frontend+"/login?error=auth_failed", rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, sessionCookie))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/user", nil, session)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/categories", map[string]string{
		"name": "Work", "description": "Job stuff", "color": "#ff0000",
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code)
	work := decode[categoryJSON](t, rec)
	assert.Equal(t, "Work", work.Name)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "work", "description": "again"}, session)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "No description"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/categories/"+work.ID, map[string]string{"description": "Day job"}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[categoryJSON](t, rec)
	assert.Equal(t, "Work", updated.Name)
	assert.Equal(t, "Day job", updated.Description)

	rec = env.do(t, http.MethodPut, "/api/categories/missing", map[string]string{"description": "x"}, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/categories/"+work.ID, nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories", nil, session)
	assert.Len(t, decode[[]categoryJSON](t, rec), 2)
}

func newsletterMessages() []*email.Message {
	return []*email.Message{
		{
			GmailID: "m1",
			Headers: email.Headers{
				{Name: "Subject", Value: "Weekly digest"},
				{Name: "From", Value: "news@example.com"},
				{Name: "Date", Value: "Mon, 01 Jan 2024 10:00:00 +0000"},
				{Name: "List-Unsubscribe", Value: "<mailto:leave@example.com?subject=bye>"},
			},
			Body: email.Body{Plain: "This week in news."},
		},
		{
			GmailID: "m2",
			Headers: email.Headers{
				{Name: "Subject", Value: "Sale"},
				{Name: "From", Value: "shop@example.com"},
				{Name: "Date", Value: "Tue, 02 Jan 2024 10:00:00 +0000"},
			},
			Body: email.Body{Plain: "Big sale! To unsubscribe visit https://shop.example.com/unsubscribe?u=1"},
		},
	}
}

func TestSyncListAndUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	env.box.messages = newsletterMessages()

	rec := env.do(t, http.MethodPost, "/api/process/sync", map[string]any{"maxResults": 10}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	synced := decode[syncResponse](t, rec)
	assert.Equal(t, 2, synced.Processed.New)
	assert.Equal(t, 2, synced.Total)
	assert.ElementsMatch(t, []string{"m1", "m2"}, env.box.archived)

	// A second sync skips what is already stored.
	rec = env.do(t, http.MethodPost, "/api/process/sync", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[syncResponse](t, rec).Processed.Skipped)

	rec = env.do(t, http.MethodGet, "/api/emails?isArchived=true", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[emailPageJSON](t, rec)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Emails, 2)
	sale, digest := page.Emails[0], page.Emails[1]
	assert.Equal(t, "m2", sale.GmailMessageID, "newest first")
	assert.Equal(t, "About Sale", sale.Summary)
	require.NotNil(t, digest.UnsubscribeLink)
	assert.Equal(t, "mailto:leave@example.com?subject=bye", *digest.UnsubscribeLink)
	require.NotNil(t, sale.UnsubscribeLink)
	require.NotNil(t, digest.CategoryID)

	rec = env.do(t, http.MethodGet, "/api/emails/category/"+*digest.CategoryID+"?limit=1", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	byCat := decode[emailPageJSON](t, rec)
	assert.Equal(t, 2, byCat.Total)
	assert.Len(t, byCat.Emails, 1)
	require.NotNil(t, byCat.Category)
	assert.Equal(t, "Newsletters", byCat.Category.Name)

	rec = env.do(t, http.MethodPost, "/api/process/unsubscribe", map[string]string{"emailId": digest.ID}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[unsubscribe.Result](t, rec).Success)
	require.Len(t, env.box.sent, 1)
	assert.Equal(t, sentMail{"leave@example.com", "bye", "Please unsubscribe me from this mailing list."}, env.box.sent[0])

	var logs bytes.Buffer
	log.SetOutput(&logs)
	rec = env.do(t, http.MethodPost, "/api/process/bulk-unsubscribe", map[string]any{"emailIds": []string{sale.ID, digest.ID}}, session)
	log.SetOutput(os.Stderr)
	require.Equal(t, http.StatusOK, rec.Code)
	bulk := decode[emailapp.BulkUnsubscribeReport](t, rec)
	assert.Equal(t, 2, bulk.Success)
	assert.Equal(t, 1, strings.Count(logs.String(), "Bulk unsubscribe completed"))
	assert.Equal(t, []string{*sale.UnsubscribeLink}, env.browser.links)

	rec = env.do(t, http.MethodPost, "/api/process/categorize", map[string]string{"emailId": sale.ID}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/emails/"+sale.ID, nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"m2"}, env.box.trashed)

	rec = env.do(t, http.MethodGet, "/api/emails/"+sale.ID, nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/emails/bulk-delete", map[string]any{"emailIds": []string{digest.ID}}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[emailapp.BulkDeleteReport](t, rec).Success)
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/emails?isArchived=maybe", nil},
		{http.MethodGet, "/api/emails?limit=ten", nil},
		{http.MethodGet, "/api/emails?offset=-1", nil},
		{http.MethodPost, "/api/process/categorize", map[string]string{}},
		{http.MethodPost, "/api/process/unsubscribe", map[string]string{}},
		{http.MethodPost, "/api/process/bulk-unsubscribe", map[string]any{"emailIds": []string{}}},
		{http.MethodPost, "/api/emails/bulk-delete", nil},
	}
	for _, tc := range cases {
		rec := env.do(t, tc.method, tc.path, tc.body, session)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.method+" "+tc.path)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader("{not json"))
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSync_NoCategories(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/categories", nil, session)
	for _, c := range decode[[]categoryJSON](t, rec) {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/categories/"+c.ID, nil, session).Code)
	}

	rec = env.do(t, http.MethodPost, "/api/process/sync", nil, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[APIError](t, rec).Error.Message, "no categories")
}

func TestUnsubscribe_NoLink(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	env.box.messages = []*email.Message{{
		GmailID: "plain",
		Headers: email.Headers{{Name: "Subject", Value: "Hi"}},
		Body:    email.Body{Plain: "Lunch tomorrow?"},
	}}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/process/sync", nil, session).Code)

	page := decode[emailPageJSON](t, env.do(t, http.MethodGet, "/api/emails", nil, session))
	require.Len(t, page.Emails, 1)
	assert.Nil(t, page.Emails[0].UnsubscribeLink)

	rec := env.do(t, http.MethodPost, "/api/process/unsubscribe", map[string]string{"emailId": page.Emails[0].ID}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCors(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/emails", nil)
	req.Header.Set("Origin", frontend)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, frontend, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID, Recover)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "internal_error", apiErr.Error.Code)
	assert.Equal(t, "req-1", apiErr.Error.RequestID)
}
