package httpapi

import "net/http"

// NewHandler returns the API with its middleware chain applied.
func NewHandler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover, AccessLog, Cors(d.FrontendURL))
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	authed := requireUser(d.Sessions)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	hh := HealthHandler{}
	mux.HandleFunc("GET /api/health", hh.Health)

	// Auth
	ah := AuthHandler{Deps: d, cookie: newCookiePolicy(d.FrontendURL)}
	mux.HandleFunc("GET /api/auth/google", ah.Start)
	mux.HandleFunc("GET /api/auth/google/callback", ah.Callback)
	mux.Handle("GET /api/auth/user", protect(ah.CurrentUser))
	mux.Handle("POST /api/auth/logout", protect(ah.Logout))

	// Categories
	ch := CategoriesHandler{Categories: d.Categories}
	mux.Handle("GET /api/categories", protect(ch.List))
	mux.Handle("POST /api/categories", protect(ch.Create))
	mux.Handle("PUT /api/categories/{id}", protect(ch.Update))
	mux.Handle("DELETE /api/categories/{id}", protect(ch.Delete))

	// Emails
	eh := EmailsHandler{Emails: d.Emails}
	mux.Handle("GET /api/emails", protect(eh.List))
	mux.Handle("GET /api/emails/{id}", protect(eh.Get))
	mux.Handle("GET /api/emails/category/{categoryId}", protect(eh.ListByCategory))
	mux.Handle("DELETE /api/emails/{id}", protect(eh.Delete))
	mux.Handle("POST /api/emails/bulk-delete", protect(eh.BulkDelete))

	// Processing
	ph := ProcessHandler{Sync: d.Sync, Categorize: d.Categorize, Unsubscribe: d.Unsubscribe}
	mux.Handle("POST /api/process/sync", protect(ph.SyncEmails))
	mux.Handle("POST /api/process/categorize", protect(ph.CategorizeEmail))
	mux.Handle("POST /api/process/unsubscribe", protect(ph.UnsubscribeEmail))
	mux.Handle("POST /api/process/bulk-unsubscribe", protect(ph.BulkUnsubscribe))

	return mux
}
