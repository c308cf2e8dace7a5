package model

import "strings"

// Keys under which a session is persisted in a client-side key-value store.
const (
	KeyToken           = "token"
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserRole        = "userRole"
)

// SessionKeys lists every key a session occupies.
var SessionKeys = []string{KeyToken, KeyIsAuthenticated, KeyUserRole}

// Session is the client-held record of whether a user is logged in, as
// whom, and with which credential token.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Role          Role   `json:"role"`
	Token         string `json:"-"`
}

// Valid reports whether the session satisfies its invariant: an
// authenticated session carries a known role and a non-empty token.
// An unauthenticated session is always valid. The stored role is only
// case-folded: a prefixed or padded role breaks the invariant.
func (s Session) Valid() bool {
	if !s.Authenticated {
		return true
	}
	return Role(strings.ToUpper(string(s.Role))).Valid() && strings.TrimSpace(s.Token) != ""
}

// HasRole reports whether the session is authenticated with role r,
// comparing case-insensitively.
func (s Session) HasRole(r Role) bool {
	return s.Authenticated && strings.ToUpper(string(s.Role)) == strings.ToUpper(string(r))
}

// LoginAttempt is the transient state of one login submission.
type LoginAttempt struct {
	Username   string
	Password   string
	RetryCount int
}
