package model

import (
	"errors"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"STUDENT", RoleStudent},
		{"student", RoleStudent},
		{"role_student", RoleStudent},
		{"ROLE_STAFF", RoleStaff},
		{" Role_Academic_Director ", RoleAcademicDirector},
		{"ROLE_ROLE_STAFF", RoleStaff},
		{"alien", Role("ALIEN")},
		{"", Role("")},
	}
	for _, tt := range tests {
		if got := NormalizeRole(tt.input); got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeRole_Idempotent(t *testing.T) {
	inputs := []string{
		"student", "ROLE_STAFF", "role_role_executive_director", "ROLE_", "role_ROLE_x",
		"Academic_Director", "  staff", "ROLE_ROLE_ROLE_",
	}
	for _, in := range inputs {
		once := NormalizeRole(in)
		twice := NormalizeRole(string(once))
		if once != twice {
			t.Errorf("NormalizeRole not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole("ROLE_" + string(r))
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", r, err)
		}
		if got != r {
			t.Errorf("ParseRole(ROLE_%s) = %q", r, got)
		}
	}

	_, err := ParseRole("ALIEN")
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseRole(ALIEN) error = %v, want ErrInvalidRole", err)
	}
}

func TestRole_Route(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleStudent, "/student-dashboard"},
		{RoleStaff, "/staff-dashboard"},
		{RoleAcademicDirector, "/academic-director-dashboard"},
		{RoleExecutiveDirector, "/executive-director-dashboard"},
		{Role("ALIEN"), ""},
		{Role("staff"), ""},
	}
	for _, tt := range tests {
		if got := tt.role.Route(); got != tt.want {
			t.Errorf("%q.Route() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestRole_Label(t *testing.T) {
	if got := RoleAcademicDirector.Label(); got != "Academic Director" {
		t.Errorf("Label() = %q", got)
	}
	if got := RoleStaff.Label(); got != "Staff" {
		t.Errorf("Label() = %q", got)
	}
}

func TestParseTargetRole(t *testing.T) {
	if got, err := ParseTargetRole("Student"); err != nil || got != TargetStudent {
		t.Errorf("ParseTargetRole(Student) = %q, %v", got, err)
	}
	if got, err := ParseTargetRole("STAFF"); err != nil || got != TargetStaff {
		t.Errorf("ParseTargetRole(STAFF) = %q, %v", got, err)
	}
	if _, err := ParseTargetRole("director"); err == nil {
		t.Error("expected error for director")
	}
}

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"anonymous", Session{}, true},
		{"complete", Session{Authenticated: true, Role: RoleStaff, Token: "tok"}, true},
		{"lowercase role", Session{Authenticated: true, Role: "staff", Token: "tok"}, true},
		{"missing token", Session{Authenticated: true, Role: RoleStaff}, false},
		{"blank token", Session{Authenticated: true, Role: RoleStaff, Token: "  "}, false},
		{"unknown role", Session{Authenticated: true, Role: "ALIEN", Token: "tok"}, false},
		{"empty role", Session{Authenticated: true, Token: "tok"}, false},
		{"prefixed role", Session{Authenticated: true, Role: "ROLE_STUDENT", Token: "tok"}, false},
		{"padded role", Session{Authenticated: true, Role: " STUDENT ", Token: "tok"}, false},
		{"lowercase prefixed role", Session{Authenticated: true, Role: "role_staff", Token: "tok"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_HasRole(t *testing.T) {
	sess := Session{Authenticated: true, Role: "staff", Token: "tok"}
	if !sess.HasRole(RoleStaff) {
		t.Error("expected case-insensitive role match")
	}
	if sess.HasRole(RoleStudent) {
		t.Error("unexpected match for STUDENT")
	}
	sess.Authenticated = false
	if sess.HasRole(RoleStaff) {
		t.Error("unauthenticated session must not match")
	}
}
