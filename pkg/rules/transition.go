package rules

import (
	"github.com/golang-sql/civil"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// StatusTransition returns the patch to write when an opportunity moves to
// newStatus. Closing statuses stamp today as the actual close date; every
// other status clears it, whatever it held before. Any status may move to any
// other.
func StatusTransition(newStatus models.OpportunityStatus, today civil.Date) models.OpportunityStatusPatch {
	patch := models.OpportunityStatusPatch{Status: newStatus}
	if newStatus.IsClosed() {
		d := today
		patch.ActualCloseDate = &d
	}
	return patch
}
