package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a CRM user. Business records reference users as their owner.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // 'admin', 'sales'
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role constants for users.
const (
	RoleAdmin = "admin"
	RoleSales = "sales"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleSales}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
