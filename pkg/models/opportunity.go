package models

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// OpportunityStatus is the pipeline stage of an opportunity.
type OpportunityStatus string

const (
	StatusProspecting   OpportunityStatus = "prospecting"
	StatusQualification OpportunityStatus = "qualification"
	StatusProposal      OpportunityStatus = "proposal"
	StatusNegotiation   OpportunityStatus = "negotiation"
	StatusWon           OpportunityStatus = "won"
	StatusLost          OpportunityStatus = "lost"
)

// OpportunityStatuses lists every status in pipeline order.
var OpportunityStatuses = []OpportunityStatus{
	StatusProspecting,
	StatusQualification,
	StatusProposal,
	StatusNegotiation,
	StatusWon,
	StatusLost,
}

// IsValid reports whether s is one of the known statuses.
func (s OpportunityStatus) IsValid() bool {
	switch s {
	case StatusProspecting, StatusQualification, StatusProposal, StatusNegotiation, StatusWon, StatusLost:
		return true
	}
	return false
}

// IsClosed reports whether s ends the opportunity (won or lost).
func (s OpportunityStatus) IsClosed() bool {
	return s == StatusWon || s == StatusLost
}

// IsOpen reports whether s is still in the pipeline.
func (s OpportunityStatus) IsOpen() bool {
	return s.IsValid() && !s.IsClosed()
}

// Opportunity is a potential deal with an enterprise.
// Stored in opportunities table.
type Opportunity struct {
	ID                uuid.UUID         `json:"id"`
	Title             string            `json:"title"`
	Amount            *float64          `json:"amount,omitempty"`
	Status            OpportunityStatus `json:"status"`
	Probability       *int              `json:"probability,omitempty"`
	ExpectedCloseDate *civil.Date       `json:"expected_close_date,omitempty"`
	ActualCloseDate   *civil.Date       `json:"actual_close_date,omitempty"`
	EnterpriseID      *uuid.UUID        `json:"enterprise_id,omitempty"`
	ContactID         *uuid.UUID        `json:"contact_id,omitempty"`
	OwnerID           *uuid.UUID        `json:"owner_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// EnterpriseName is populated by list queries that join enterprises.
	EnterpriseName string `json:"enterprise_name,omitempty"`
}

// OpportunityStatusPatch is the set of fields written when an opportunity
// changes status. A nil ActualCloseDate clears the column.
type OpportunityStatusPatch struct {
	Status          OpportunityStatus `json:"status"`
	ActualCloseDate *civil.Date       `json:"actual_close_date"`
}

// Apply copies the patch onto o.
func (p OpportunityStatusPatch) Apply(o *Opportunity) {
	o.Status = p.Status
	if p.ActualCloseDate == nil {
		o.ActualCloseDate = nil
		return
	}
	d := *p.ActualCloseDate
	o.ActualCloseDate = &d
}
