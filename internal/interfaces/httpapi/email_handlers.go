package httpapi

import (
	"fmt"
	"net/http"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
)

type EmailsHandler struct {
	Emails *emailapp.ManageEmailsUseCase
}

func (h EmailsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeErr(w, r, err, "Failed to fetch emails")
		return
	}

	page, err := h.Emails.List(r.Context(), f)
	if err != nil {
		writeErr(w, r, err, "Failed to fetch emails")
		return
	}
	WriteJSON(w, http.StatusOK, toEmailPageJSON(page))
}

func (h EmailsHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Emails.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err, "Failed to fetch email")
		return
	}
	WriteJSON(w, http.StatusOK, toEmailJSON(e))
}

func (h EmailsHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", email.DefaultPageSize)
	if err != nil {
		writeErr(w, r, err, "Failed to fetch emails")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeErr(w, r, err, "Failed to fetch emails")
		return
	}

	page, err := h.Emails.ListByCategory(r.Context(), userIDFrom(r.Context()), r.PathValue("categoryId"), limit, offset)
	if err != nil {
		writeErr(w, r, err, "Failed to fetch emails")
		return
	}
	WriteJSON(w, http.StatusOK, toEmailPageJSON(page))
}

func (h EmailsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Emails.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeErr(w, r, err, "Failed to delete email")
		return
	}
	WriteJSON(w, http.StatusOK, messageJSON{Message: "Email deleted successfully"})
}

func (h EmailsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req emailIDsRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, r, err, "Failed to bulk delete emails")
		return
	}
	if len(req.EmailIDs) == 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "emailIds array is required")
		return
	}

	report, err := h.Emails.BulkDelete(r.Context(), userIDFrom(r.Context()), req.EmailIDs)
	if err != nil {
		writeErr(w, r, err, "Failed to bulk delete emails")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func listFilter(r *http.Request) (email.Filter, error) {
	q := r.URL.Query()
	f := email.Filter{
		UserID:       userIDFrom(r.Context()),
		CategoryID:   q.Get("categoryId"),
		AccountEmail: q.Get("accountEmail"),
	}

	var err error
	if f.Archived, err = queryBool(r, "isArchived"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", email.DefaultPageSize); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, fmt.Errorf("%w: limit and offset must not be negative", email.ErrInvalidInput)
	}
	return f, nil
}
