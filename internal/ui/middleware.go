package ui

import (
	"context"
	"net/http"

	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/store"
	"github.com/me/ccfeedback/pkg/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// requestSession is what RequireRole hands to dashboard handlers.
type requestSession struct {
	model.Session
	Store *store.SessionValues
}

// sessionFromContext returns the session admitted by RequireRole.
func sessionFromContext(ctx context.Context) *requestSession {
	rs, _ := ctx.Value(sessionContextKey).(*requestSession)
	return rs
}

// RequireRole admits a request only when its browser session is logged in
// with role. The session is reloaded and the gate re-evaluated on every
// request; everything else is redirected to /login.
func (ui *UI) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess model.Session
			kv, err := ui.sessions.FromRequest(r)
			if err != nil {
				ui.logger.Error("session lookup failed", "error", err)
			}
			if kv != nil {
				sess, err = session.Load(r.Context(), kv, ui.logger)
				if err != nil {
					ui.logger.Error("session load failed", "error", err)
					sess = model.Session{}
				}
			}

			decision := session.Gate(sess, role)
			ui.metrics.GateDecision(role.Route(), decision.String())
			if decision != session.Render {
				ui.logger.Debug("gate redirect", "path", r.URL.Path, "required", role, "have", sess.Role)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, &requestSession{Session: sess, Store: kv})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
