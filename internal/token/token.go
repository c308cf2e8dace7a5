// Package token reads access token claims for display. It never verifies
// signatures; the backend owns verification.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/me/ccfeedback/pkg/model"
)

// ErrNotJWT is returned for tokens that are not JWTs.
var ErrNotJWT = errors.New("token is not a JWT")

// Claims are the claims the backend puts into its access tokens. Only
// roles and the registered claims are always present; the profile claims
// are filled in for students.
type Claims struct {
	Roles        []string `json:"roles,omitempty"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	StudentID    string   `json:"studentId,omitempty"`
	DepartmentID int      `json:"departmentId,omitempty"`
	Year         int      `json:"year,omitempty"`
	jwt.RegisteredClaims
}

// Info is what a front end may show about a token.
type Info struct {
	Subject   string
	Roles     []string
	Profile   model.Profile
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ProfileOf returns the profile carried by raw, or an empty profile for
// tokens that cannot be inspected.
func ProfileOf(raw string) model.Profile {
	info, err := Inspect(raw)
	if err != nil {
		return model.Profile{}
	}
	return info.Profile
}

// Expired reports whether the token carries an expiry before now.
func (i *Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes raw without verifying it.
func Inspect(raw string) (*Info, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return nil, ErrNotJWT
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}

	info := &Info{
		Subject: claims.Subject,
		Roles:   claims.Roles,
		Profile: model.Profile{
			FullName:     strings.TrimSpace(claims.Name),
			StudentID:    strings.TrimSpace(claims.StudentID),
			Email:        strings.TrimSpace(claims.Email),
			DepartmentID: claims.DepartmentID,
			Year:         claims.Year,
		},
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
