package rules

import (
	"time"

	"github.com/golang-sql/civil"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}
