package domain

import "github.com/google/uuid"

type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated caller supplied by the identity layer.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsOwner() bool {
	return p.Role == RoleOwner || p.Role == RoleAdmin
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManage reports whether the caller may act as the owner of the hotel.
func (p Principal) CanManage(h *Hotel) bool {
	return p.IsAdmin() || (p.Role == RoleOwner && h.IsOwnedBy(p.UserID))
}
