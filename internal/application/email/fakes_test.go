package email

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"mailsort/internal/domain/email"
	"mailsort/internal/domain/unsubscribe"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*email.User
	seq   int
	saved []*email.User
}

func newFakeUsers(users ...*email.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*email.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*email.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, email.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, address string) (*email.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == address {
			return u, nil
		}
	}
	return nil, email.ErrNotFound
}

func (f *fakeUsers) Upsert(_ context.Context, u *email.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.GoogleID == u.GoogleID {
			u.ID = existing.ID
			if u.RefreshToken == "" {
				u.RefreshToken = existing.RefreshToken
			}
		}
	}
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("user-%d", f.seq)
	}
	f.byID[u.ID] = u
	f.saved = append(f.saved, u)
	return nil
}

type fakeCategories struct {
	mu   sync.Mutex
	byID map[string]*email.Category
	seq  int
}

func newFakeCategories(cs ...*email.Category) *fakeCategories {
	f := &fakeCategories{byID: map[string]*email.Category{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCategories) ListByUser(_ context.Context, userID string) ([]*email.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*email.Category
	for _, c := range f.byID {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*email.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, email.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) FindByName(_ context.Context, userID, name string) (*email.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, email.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, c *email.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c.ID = fmt.Sprintf("cat-%d", f.seq)
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *email.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeEmails struct {
	mu   sync.Mutex
	byID map[string]*email.Email
	seq  int

	deleteErr error
}

func newFakeEmails(es ...*email.Email) *fakeEmails {
	f := &fakeEmails{byID: map[string]*email.Email{}}
	for _, e := range es {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEmails) GetByID(_ context.Context, id string) (*email.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, email.ErrNotFound
	}
	return e, nil
}

func (f *fakeEmails) Save(_ context.Context, e *email.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		f.seq++
		e.ID = fmt.Sprintf("email-%d", f.seq)
	}
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEmails) EmailAlreadyProcessed(_ context.Context, userID, gmailID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.UserID == userID && e.GmailID == gmailID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEmails) UpdateCategory(_ context.Context, id, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return email.ErrNotFound
	}
	e.CategoryID = categoryID
	return nil
}

func (f *fakeEmails) MarkArchived(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return email.ErrNotFound
	}
	e.Archived = true
	return nil
}

func (f *fakeEmails) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEmails) List(_ context.Context, flt email.Filter) ([]*email.Email, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*email.Email
	for _, e := range f.byID {
		if e.UserID != flt.UserID {
			continue
		}
		if flt.CategoryID != "" && e.CategoryID != flt.CategoryID {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if flt.Offset >= total {
		return []*email.Email{}, total, nil
	}
	end := flt.Offset + flt.Limit
	if end > total {
		end = total
	}
	return all[flt.Offset:end], total, nil
}

func (f *fakeEmails) ListByIDs(_ context.Context, userID string, ids []string) ([]*email.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*email.Email
	for _, id := range ids {
		if e, ok := f.byID[id]; ok && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailbox struct {
	mu       sync.Mutex
	ids      []string
	messages map[string]*email.Message

	lastQuery  email.MailboxQuery
	fetchErr   map[string]error
	archiveErr error
	trashErr   error

	archived []string
	trashed  []string
	sent     []sentMail
	watched  []string
}

func (f *fakeMailbox) ListMessageIDs(_ context.Context, q email.MailboxQuery) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return f.ids, nil
}

func (f *fakeMailbox) FetchMessage(_ context.Context, id string) (*email.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	m, ok := f.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	return m, nil
}

func (f *fakeMailbox) Archive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeMailbox) Trash(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trashErr != nil {
		return f.trashErr
	}
	f.trashed = append(f.trashed, id)
	return nil
}

func (f *fakeMailbox) SendMail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailbox) EnableWatch(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, topic)
	return nil
}

type fakeMailboxes struct {
	box *fakeMailbox
}

func (f fakeMailboxes) ForUser(context.Context, *email.User) (Mailbox, error) {
	return f.box, nil
}

type fakeClassifier struct {
	category      string
	summary       string
	categorizeErr error
	summarizeErr  error
}

func (f *fakeClassifier) Categorize(context.Context, string, string, string, []*email.Category) (string, error) {
	return f.category, f.categorizeErr
}

func (f *fakeClassifier) Summarize(context.Context, string, string) (string, error) {
	return f.summary, f.summarizeErr
}

type prefixSealer struct{}

func (prefixSealer) Seal(plain string) (string, error) {
	return "sealed:" + plain, nil
}

type fakeBrowser struct {
	mu    sync.Mutex
	links []string
	res   unsubscribe.Result
}

func (f *fakeBrowser) Unsubscribe(_ context.Context, link, _ string) unsubscribe.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, link)
	return f.res
}

type fakeOneClick struct {
	posted []string
	err    error
}

func (f *fakeOneClick) Post(_ context.Context, link string) error {
	f.posted = append(f.posted, link)
	return f.err
}
