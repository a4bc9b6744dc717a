package httpapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"mailsort/internal/domain/email"
)

const stateTTL = 10 * time.Minute

type AuthHandler struct {
	Deps   Deps
	cookie cookiePolicy
}

// Start redirects to the Google consent screen. The state is kept in a
// short-lived cookie and checked on the callback.
func (h AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		writeErr(w, r, err, "Failed to start login")
		return
	}
	state := hex.EncodeToString(b[:])

	h.cookie.set(w, stateCookie, state, stateTTL)
	http.Redirect(w, r, h.Deps.Auth.AuthCodeURL(state), http.StatusFound)
}

func (h AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.cookie.clear(w, stateCookie)

	c, err := r.Cookie(stateCookie)
	if err != nil || q.Get("state") == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(q.Get("state"))) != 1 {
		log.Printf("OAuth callback with invalid state")
		h.failLogin(w, r)
		return
	}
	if q.Get("code") == "" {
		log.Printf("OAuth callback without code: %s", q.Get("error"))
		h.failLogin(w, r)
		return
	}

	ctx := r.Context()
	tok, err := h.Deps.Auth.Exchange(ctx, q.Get("code"))
	if err != nil {
		log.Printf("Failed to exchange OAuth code: %v", err)
		h.failLogin(w, r)
		return
	}

	profile, err := h.Deps.Auth.Profile(ctx, tok)
	if err != nil {
		log.Printf("Failed to load Google profile: %v", err)
		h.failLogin(w, r)
		return
	}

	user, err := h.Deps.Login.Execute(ctx, profile, email.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
	if err != nil {
		log.Printf("Failed to log in %s: %v", profile.Email, err)
		h.failLogin(w, r)
		return
	}

	ttl := h.sessionTTL()
	sessionID, err := h.Deps.Sessions.Create(ctx, user.ID, time.Now().Add(ttl))
	if err != nil {
		log.Printf("Failed to create session for %s: %v", user.Email, err)
		h.failLogin(w, r)
		return
	}

	h.cookie.set(w, sessionCookie, sessionID, ttl)
	if h.Deps.AfterLogin != nil {
		h.Deps.AfterLogin(user.ID)
	}
	http.Redirect(w, r, h.Deps.FrontendURL+"/dashboard", http.StatusFound)
}

func (h AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Deps.Users.GetByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeErr(w, r, err, "Failed to fetch user")
		return
	}
	WriteJSON(w, http.StatusOK, toUserJSON(user))
}

func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := h.Deps.Sessions.Delete(r.Context(), c.Value); err != nil {
			writeErr(w, r, err, "Error logging out")
			return
		}
	}
	h.cookie.clear(w, sessionCookie)
	WriteJSON(w, http.StatusOK, messageJSON{Message: "Logged out successfully"})
}

func (h AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.Deps.FrontendURL+"/login?error=auth_failed", http.StatusFound)
}

func (h AuthHandler) sessionTTL() time.Duration {
	if h.Deps.SessionTTL > 0 {
		return h.Deps.SessionTTL
	}
	return defaultSessionTTL
}
