package domain

import "errors"

// Role represents an account role in the system
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStaff   Role = "STAFF"
	RoleStudent Role = "STUDENT"
)

// ErrUnknownRole is returned by ParseRole for any value outside the closed set
var ErrUnknownRole = errors.New("unknown role")

// allRoles is the closed set of valid roles. Role-dependent behavior below is
// written as an exhaustive switch over this set so a new role fails at the
// ParseRole boundary instead of falling through a missed case.
var allRoles = []Role{RoleAdmin, RoleStaff, RoleStudent}

// ParseRole normalizes and validates a role string
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStaff:
		return RoleStaff, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// DefaultApproved returns the approval state a new account starts in.
// Admin accounts are usable immediately; staff and students wait for approval.
func (r Role) DefaultApproved() bool {
	return r == RoleAdmin
}

// DisplayLabel returns the human-readable role name
func (r Role) DisplayLabel() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleStaff:
		return "Staff Member"
	case RoleStudent:
		return "Student"
	}
	return "Unknown"
}

// AccessLevelLabel returns the access level shown on card screens
func (r Role) AccessLevelLabel() string {
	switch r {
	case RoleAdmin:
		return "Full Access"
	case RoleStaff:
		return "Staff Access"
	case RoleStudent:
		return "Student Access"
	}
	return "No Access"
}

// Roles returns a copy of the closed set of valid roles
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}
