package rules

import (
	"bytes"
	"slices"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// PipelineColumn is one status column of the pipeline board.
type PipelineColumn struct {
	Status        models.OpportunityStatus `json:"status"`
	Count         int                      `json:"count"`
	Total         decimal.Decimal          `json:"total"`
	Opportunities []models.Opportunity     `json:"opportunities"`
}

func amountOf(o *models.Opportunity) decimal.Decimal {
	if o.Amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*o.Amount)
}

// WeightedPipelineValue sums amount × probability/100 over open opportunities.
// A missing amount or probability counts as zero. The result does not depend
// on input order.
func WeightedPipelineValue(opps []models.Opportunity) decimal.Decimal {
	total := decimal.Zero
	for i := range opps {
		o := &opps[i]
		if !o.Status.IsOpen() || o.Amount == nil || o.Probability == nil {
			continue
		}
		total = total.Add(amountOf(o).Mul(decimal.NewFromInt(int64(*o.Probability))).Shift(-2))
	}
	return total
}

// OpenOpportunityCount counts opportunities still in the pipeline.
func OpenOpportunityCount(opps []models.Opportunity) int {
	n := 0
	for i := range opps {
		if opps[i].Status.IsOpen() {
			n++
		}
	}
	return n
}

func isUpcoming(a *models.Activity, today civil.Date) bool {
	return !a.IsDone && a.DueDate != nil && !a.DueDate.Before(today)
}

// UpcomingActivityCount counts activities not done whose due date is today or
// later. Activities without a due date are never upcoming.
func UpcomingActivityCount(acts []models.Activity, today civil.Date) int {
	n := 0
	for i := range acts {
		if isUpcoming(&acts[i], today) {
			n++
		}
	}
	return n
}

// UpcomingActivities returns the upcoming activities ordered by due date, then
// id, truncated to n. A negative n means no limit.
func UpcomingActivities(acts []models.Activity, today civil.Date, n int) []models.Activity {
	out := make([]models.Activity, 0, len(acts))
	for i := range acts {
		if isUpcoming(&acts[i], today) {
			out = append(out, acts[i])
		}
	}
	slices.SortFunc(out, func(a, b models.Activity) int {
		switch {
		case a.DueDate.Before(*b.DueDate):
			return -1
		case a.DueDate.After(*b.DueDate):
			return 1
		}
		return compareIDs(a.ID, b.ID)
	})
	return truncate(out, n)
}

// GroupPipeline partitions opportunities into one column per status, in
// pipeline order. All six columns are always present. Cards keep their input
// order within a column.
func GroupPipeline(opps []models.Opportunity) []PipelineColumn {
	cols := make([]PipelineColumn, len(models.OpportunityStatuses))
	index := make(map[models.OpportunityStatus]int, len(cols))
	for i, s := range models.OpportunityStatuses {
		cols[i] = PipelineColumn{Status: s, Total: decimal.Zero, Opportunities: []models.Opportunity{}}
		index[s] = i
	}
	for i := range opps {
		o := &opps[i]
		ci, ok := index[o.Status]
		if !ok {
			continue
		}
		col := &cols[ci]
		col.Count++
		col.Total = col.Total.Add(amountOf(o))
		col.Opportunities = append(col.Opportunities, *o)
	}
	return cols
}

// MostRecentlyUpdated returns the n opportunities with the latest UpdatedAt,
// newest first. Equal timestamps are ordered by id.
func MostRecentlyUpdated(opps []models.Opportunity, n int) []models.Opportunity {
	out := slices.Clone(opps)
	slices.SortFunc(out, func(a, b models.Opportunity) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return truncate(out, n)
}

// ContactsForEnterprise returns the contacts that may be attached to an
// opportunity of the given enterprise. A nil enterprise allows none.
func ContactsForEnterprise(contacts []models.Contact, enterpriseID *uuid.UUID) []models.Contact {
	out := []models.Contact{}
	if enterpriseID == nil {
		return out
	}
	for _, c := range contacts {
		if c.EnterpriseID != nil && *c.EnterpriseID == *enterpriseID {
			out = append(out, c)
		}
	}
	return out
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func truncate[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
