package actor

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func NewRole(value string) (Role, error) {
	switch Role(value) {
	case RoleCustomer, RoleAdmin:
		return Role(value), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Actor is the authenticated caller of a booking or payment operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// CanActOn reports whether the actor may operate on a booking owned by
// customerID: the owner themselves, or any admin.
func (a Actor) CanActOn(customerID uuid.UUID) bool {
	return a.Role.IsAdmin() || a.ID == customerID
}
