package services

import (
	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/core/domain"
)

// Authorization policy: pure decision functions over directory records.
// Every lifecycle mutation requested by a non-system actor runs through one
// of these before anything is written.

// CanAuthenticate reports whether a record may log in or be used for
// NFC-based access resolution. Requires both activity and approval.
func CanAuthenticate(record *models.UserRecord) bool {
	return record != nil && record.IsActive && record.IsApproved
}

// CanGrantAccess is the lighter check used by simple access-control
// scenarios: only activity is required.
func CanGrantAccess(record *models.UserRecord) bool {
	return record != nil && record.IsActive
}

// CanApprove reports whether the actor holds approval authority at all.
// Admins always do; staff only when delegated via CanApproveStudents.
func CanApprove(actor *models.UserRecord) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return actor.CanApproveStudents
	}
	return false
}

// CanManageTarget reports whether the actor may mutate the target record.
// Admins manage anyone; staff with delegated authority manage students in
// their own department; students manage nobody.
func CanManageTarget(actor, target *models.UserRecord) bool {
	if actor == nil || target == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return actor.CanApproveStudents &&
			target.Role == domain.RoleStudent &&
			target.Department == actor.Department
	}
	return false
}
