package session

import (
	"strings"

	"github.com/me/ccfeedback/pkg/model"
)

// Decision is the outcome of a gate check.
type Decision int

const (
	// RedirectLogin sends the user back to the login view.
	RedirectLogin Decision = iota
	// Render lets the requested view render.
	Render
)

func (d Decision) String() string {
	if d == Render {
		return "render"
	}
	return "redirect-to-login"
}

// Gate decides whether a view requiring role may render for sess.
// Roles are compared case-insensitively. Gate has no side effects.
func Gate(sess model.Session, required model.Role) Decision {
	if !sess.Authenticated {
		return RedirectLogin
	}
	if strings.ToUpper(string(sess.Role)) != strings.ToUpper(string(required)) {
		return RedirectLogin
	}
	return Render
}
