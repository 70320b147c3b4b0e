package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a person, optionally attached to an enterprise.
// Stored in contacts table.
type Contact struct {
	ID           uuid.UUID  `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Title        string     `json:"title,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	IsPrimary    bool       `json:"is_primary"`
	EnterpriseID *uuid.UUID `json:"enterprise_id,omitempty"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// EnterpriseName is populated by list queries that join enterprises.
	EnterpriseName string `json:"enterprise_name,omitempty"`
}

// FullName returns "First Last".
func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}
