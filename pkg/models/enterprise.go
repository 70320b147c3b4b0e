package models

import (
	"time"

	"github.com/google/uuid"
)

// Enterprise is a customer or prospect company.
// Stored in enterprises table.
type Enterprise struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Sector    string     `json:"sector,omitempty"`
	Revenue   *float64   `json:"revenue,omitempty"`
	Headcount *int       `json:"headcount,omitempty"`
	Address   string     `json:"address,omitempty"`
	Website   string     `json:"website,omitempty"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
