package entity

import "github.com/google/uuid"

// Role is the authorization role carried by an identity
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePatient Role = "patient"
)

// Identity is the caller identity supplied by the authentication layer.
// The engine trusts it verbatim and receives it as an explicit argument.
type Identity struct {
	UserID      uuid.UUID
	Role        Role
	DisplayName string
	// Contact is the key linking a patient login to its patient record (patients.email)
	Contact string
}

// IsAdmin reports whether the identity may use admin-only operations
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
