package rules

import (
	"fmt"

	"github.com/golang-sql/civil"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// Period is an activity due-date filter.
type Period string

const (
	PeriodOverdue Period = "overdue"
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
)

// ParsePeriod validates a period filter value. The empty string is allowed
// and means no filter.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "", PeriodOverdue, PeriodToday, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// DueBucket is the narrowest bucket an activity's due date falls into.
type DueBucket string

const (
	BucketNone    DueBucket = ""
	BucketOverdue DueBucket = "overdue"
	BucketToday   DueBucket = "today"
	BucketWeek    DueBucket = "week"
	BucketMonth   DueBucket = "month"
	BucketLater   DueBucket = "later"
)

// Bucket classifies a due date relative to today. Activities without a due
// date land in BucketNone.
func Bucket(due *civil.Date, today civil.Date) DueBucket {
	if due == nil {
		return BucketNone
	}
	d := *due
	switch {
	case d.Before(today):
		return BucketOverdue
	case d == today:
		return BucketToday
	case d.Before(today.AddDays(7)):
		return BucketWeek
	case d.Before(today.AddDays(30)):
		return BucketMonth
	}
	return BucketLater
}

// MatchesPeriod reports whether the activity's due date falls in period.
// Week and month are windows starting today, so they overlap with today. An
// empty period matches everything; a missing due date matches no period.
func MatchesPeriod(a *models.Activity, period Period, today civil.Date) bool {
	if period == "" {
		return true
	}
	if a.DueDate == nil {
		return false
	}
	d := *a.DueDate
	switch period {
	case PeriodOverdue:
		return d.Before(today)
	case PeriodToday:
		return d == today
	case PeriodWeek:
		return !d.Before(today) && d.Before(today.AddDays(7))
	case PeriodMonth:
		return !d.Before(today) && d.Before(today.AddDays(30))
	}
	return false
}
