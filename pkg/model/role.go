package model

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the role of an authenticated user. It selects the dashboard the
// user may open.
type Role string

const (
	RoleStudent           Role = "STUDENT"
	RoleStaff             Role = "STAFF"
	RoleAcademicDirector  Role = "ACADEMIC_DIRECTOR"
	RoleExecutiveDirector Role = "EXECUTIVE_DIRECTOR"
)

// rolePrefix is the Spring-style authority prefix some backends put on role names.
const rolePrefix = "ROLE_"

// ErrInvalidRole is returned by ParseRole for values outside the role enumeration.
var ErrInvalidRole = errors.New("invalid user role")

// routes is the only role to dashboard mapping; everything else derives from it.
var routes = map[Role]string{
	RoleStudent:           "/student-dashboard",
	RoleStaff:             "/staff-dashboard",
	RoleAcademicDirector:  "/academic-director-dashboard",
	RoleExecutiveDirector: "/executive-director-dashboard",
}

// Roles returns all known roles in a stable order.
func Roles() []Role {
	return []Role{RoleStudent, RoleStaff, RoleAcademicDirector, RoleExecutiveDirector}
}

// NormalizeRole uppercases s and strips any leading "ROLE_" prefixes.
// The result is not validated; use ParseRole for that.
func NormalizeRole(s string) Role {
	r := strings.ToUpper(strings.TrimSpace(s))
	for strings.HasPrefix(r, rolePrefix) {
		r = strings.TrimPrefix(r, rolePrefix)
	}
	return Role(r)
}

// ParseRole normalizes s and checks it against the role enumeration.
func ParseRole(s string) (Role, error) {
	r := NormalizeRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := routes[r]
	return ok
}

// Route returns the dashboard path for r, or "" when r has none.
func (r Role) Route() string {
	return routes[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Label returns a human-readable role name, e.g. "Academic Director".
func (r Role) Label() string {
	words := strings.Split(strings.ToLower(string(r)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// TargetRole is the recipient group of a feedback question, as the backend
// expects it in question payloads.
type TargetRole string

const (
	TargetStudent TargetRole = "student"
	TargetStaff   TargetRole = "staff"
)

// ParseTargetRole accepts "student" or "staff" in any case.
func ParseTargetRole(s string) (TargetRole, error) {
	switch TargetRole(strings.ToLower(strings.TrimSpace(s))) {
	case TargetStudent:
		return TargetStudent, nil
	case TargetStaff:
		return TargetStaff, nil
	}
	return "", fmt.Errorf("unknown recipient group %q (want student or staff)", s)
}
