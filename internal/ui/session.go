package ui

import (
	"errors"
	"net/http"

	"github.com/me/ccfeedback/internal/store"
)

// SessionCookieName is the name of the browser session cookie.
const SessionCookieName = "ccf_session"

// SessionManager maps browser cookies to rows in the session store.
type SessionManager struct {
	store  *store.SQLiteStore
	secure bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager(st *store.SQLiteStore, secure bool) *SessionManager {
	return &SessionManager{store: st, secure: secure}
}

// FromRequest returns the key-value store of the request's browser
// session, or nil when the request carries no known session cookie.
func (sm *SessionManager) FromRequest(r *http.Request) (*store.SessionValues, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	if err := sm.store.Touch(r.Context(), cookie.Value); err != nil {
		if errors.Is(err, store.ErrUnknownSession) {
			return nil, nil
		}
		return nil, err
	}
	return sm.store.ForSession(cookie.Value), nil
}

// Ensure returns the request's browser session, issuing a new one (and
// its cookie) when the request has none.
func (sm *SessionManager) Ensure(w http.ResponseWriter, r *http.Request) (*store.SessionValues, error) {
	kv, err := sm.FromRequest(r)
	if err != nil || kv != nil {
		return kv, err
	}

	id, err := sm.store.CreateSession(r.Context(), r.UserAgent())
	if err != nil {
		return nil, err
	}
	sm.setCookie(w, id)
	return sm.store.ForSession(id), nil
}

// Destroy deletes the browser session and expires its cookie.
func (sm *SessionManager) Destroy(w http.ResponseWriter, r *http.Request, kv *store.SessionValues) error {
	clearSessionCookie(w)
	if kv == nil {
		return nil
	}
	return sm.store.DeleteSession(r.Context(), kv.ID())
}

func (sm *SessionManager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
