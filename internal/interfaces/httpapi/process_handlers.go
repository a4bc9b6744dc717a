package httpapi

import (
	"net/http"

	emailapp "mailsort/internal/application/email"
)

type ProcessHandler struct {
	Sync        *emailapp.SyncEmailsUseCase
	Categorize  *emailapp.CategorizeEmailUseCase
	Unsubscribe *emailapp.UnsubscribeUseCase
}

func (h ProcessHandler) SyncEmails(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, r, err, "Failed to sync emails")
		return
	}

	report, err := h.Sync.Execute(r.Context(), userIDFrom(r.Context()), emailapp.SyncOptions{
		MaxResults:   req.MaxResults,
		IncludeSpam:  req.IncludeSpam,
		IncludeTrash: req.IncludeTrash,
	})
	if err != nil {
		writeErr(w, r, err, "Failed to sync emails")
		return
	}

	WriteJSON(w, http.StatusOK, syncResponse{
		Message:   "Email sync completed",
		Processed: *report,
		Total:     report.Total,
	})
}

func (h ProcessHandler) CategorizeEmail(w http.ResponseWriter, r *http.Request) {
	var req emailIDRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, r, err, "Failed to categorize email")
		return
	}
	if req.EmailID == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "emailId is required")
		return
	}

	e, err := h.Categorize.Execute(r.Context(), userIDFrom(r.Context()), req.EmailID)
	if err != nil {
		writeErr(w, r, err, "Failed to categorize email")
		return
	}
	WriteJSON(w, http.StatusOK, toEmailJSON(e))
}

func (h ProcessHandler) UnsubscribeEmail(w http.ResponseWriter, r *http.Request) {
	var req emailIDRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, r, err, "Failed to unsubscribe")
		return
	}
	if req.EmailID == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "emailId is required")
		return
	}

	res, err := h.Unsubscribe.Execute(r.Context(), userIDFrom(r.Context()), req.EmailID)
	if err != nil {
		writeErr(w, r, err, "Failed to unsubscribe")
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h ProcessHandler) BulkUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req emailIDsRequest
	if err := readJSON(w, r, &req); err != nil {
		writeErr(w, r, err, "Failed to bulk unsubscribe")
		return
	}
	if len(req.EmailIDs) == 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "emailIds array is required")
		return
	}

	report, err := h.Unsubscribe.ExecuteBulk(r.Context(), userIDFrom(r.Context()), req.EmailIDs)
	if err != nil {
		writeErr(w, r, err, "Failed to bulk unsubscribe")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
