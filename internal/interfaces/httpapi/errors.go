package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mailsort/internal/domain/email"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeErr maps a use case error onto the error envelope. Unexpected
// errors are logged and hidden behind a generic message.
func writeErr(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, email.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, email.ErrForbidden):
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, email.ErrConflict):
		WriteError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, email.ErrInvalidInput),
		errors.Is(err, email.ErrNoCategories),
		errors.Is(err, email.ErrNoUnsubscribeLink):
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	default:
		log.Printf("level=error msg=%q request_id=%s err=%v", fallback, RequestIDFrom(r.Context()), err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", fallback)
	}
}
