package models

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// ActivityType classifies an activity.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
	ActivityTask    ActivityType = "task"
)

// ActivityTypes lists every activity type.
var ActivityTypes = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityTask}

// IsValid reports whether t is one of the known activity types.
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityTask:
		return true
	}
	return false
}

// Activity is a call, meeting, task etc. attached to at least one of an
// enterprise, a contact or an opportunity.
// Stored in activities table.
type Activity struct {
	ID            uuid.UUID    `json:"id"`
	Type          ActivityType `json:"type"`
	Subject       string       `json:"subject"`
	Description   string       `json:"description,omitempty"`
	DueDate       *civil.Date  `json:"due_date,omitempty"`
	CompletedOn   *civil.Date  `json:"completed_on,omitempty"`
	IsDone        bool         `json:"is_done"`
	EnterpriseID  *uuid.UUID   `json:"enterprise_id,omitempty"`
	ContactID     *uuid.UUID   `json:"contact_id,omitempty"`
	OpportunityID *uuid.UUID   `json:"opportunity_id,omitempty"`
	OwnerID       *uuid.UUID   `json:"owner_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// HasLink reports whether the activity references any business entity.
func (a *Activity) HasLink() bool {
	return a.EnterpriseID != nil || a.ContactID != nil || a.OpportunityID != nil
}
