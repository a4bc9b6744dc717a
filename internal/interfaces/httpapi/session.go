package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mailsort/internal/domain/email"
)

const (
	sessionCookie = "mailsort_session"
	stateCookie   = "mailsort_oauth_state"

	defaultSessionTTL = 24 * time.Hour
)

func userIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// cookiePolicy follows the frontend scheme: a https frontend on another
// site needs Secure and SameSite=None to receive the cookie.
type cookiePolicy struct {
	secure   bool
	sameSite http.SameSite
}

func newCookiePolicy(frontendURL string) cookiePolicy {
	if strings.HasPrefix(frontendURL, "https://") {
		return cookiePolicy{secure: true, sameSite: http.SameSiteNoneMode}
	}
	return cookiePolicy{sameSite: http.SameSiteLaxMode}
}

func (p cookiePolicy) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: p.sameSite,
	})
}

func (p cookiePolicy) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: p.sameSite,
	})
}

// requireUser rejects requests without a live session and stores the
// session's user id in the request context.
func requireUser(sessions SessionStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized. Please log in.")
				return
			}

			userID, err := sessions.UserID(r.Context(), c.Value)
			if errors.Is(err, email.ErrNotFound) {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized. Please log in.")
				return
			}
			if err != nil {
				writeErr(w, r, err, "Failed to load session")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
