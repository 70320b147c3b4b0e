package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func TestComputeDashboard(t *testing.T) {
	today := day(2024, time.June, 1)
	base := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

	var opps []models.Opportunity
	for i := 0; i < 7; i++ {
		o := opp(models.StatusProposal, ptr(100.0), ptr(10))
		o.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		opps = append(opps, o)
	}
	opps = append(opps, opp(models.StatusLost, ptr(1000.0), ptr(90)))

	var acts []models.Activity
	for i := 0; i < 12; i++ {
		acts = append(acts, models.Activity{ID: uuid.New(), DueDate: ptr(today.AddDays(i))})
	}
	acts = append(acts, models.Activity{ID: uuid.New(), IsDone: true, DueDate: ptr(today)})

	d := ComputeDashboard(3, 9, opps, acts, today)

	assert.Equal(t, 3, d.Enterprises)
	assert.Equal(t, 9, d.Contacts)
	assert.Equal(t, 7, d.OpenOpportunities)
	assert.True(t, d.WeightedValue.Equal(decimal.NewFromInt(70)), "got %s", d.WeightedValue)
	assert.Equal(t, 12, d.UpcomingActivities)
	assert.Len(t, d.NextActivities, DashboardUpcomingLimit)
	assert.Equal(t, today, *d.NextActivities[0].DueDate)
	assert.Len(t, d.RecentOpportunities, DashboardRecentLimit)
	assert.Equal(t, opps[6].ID, d.RecentOpportunities[0].ID)
}
