package rules

import (
	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

const (
	DashboardUpcomingLimit = 10
	DashboardRecentLimit   = 5
)

// Dashboard is the summary shown on the home page.
type Dashboard struct {
	Enterprises         int                  `json:"enterprises"`
	Contacts            int                  `json:"contacts"`
	OpenOpportunities   int                  `json:"open_opportunities"`
	WeightedValue       decimal.Decimal      `json:"weighted_value"`
	UpcomingActivities  int                  `json:"upcoming_activities"`
	NextActivities      []models.Activity    `json:"next_activities"`
	RecentOpportunities []models.Opportunity `json:"recent_opportunities"`
}

// ComputeDashboard derives the dashboard from already loaded collections.
func ComputeDashboard(enterprises, contacts int, opps []models.Opportunity, acts []models.Activity, today civil.Date) Dashboard {
	return Dashboard{
		Enterprises:         enterprises,
		Contacts:            contacts,
		OpenOpportunities:   OpenOpportunityCount(opps),
		WeightedValue:       WeightedPipelineValue(opps),
		UpcomingActivities:  UpcomingActivityCount(acts, today),
		NextActivities:      UpcomingActivities(acts, today, DashboardUpcomingLimit),
		RecentOpportunities: MostRecentlyUpdated(opps, DashboardRecentLimit),
	}
}
