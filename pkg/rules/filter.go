package rules

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// Sort keys accepted by the list filters.
const (
	SortName              = "name"
	SortSector            = "sector"
	SortRevenue           = "revenue"
	SortHeadcount         = "headcount"
	SortFirstName         = "first_name"
	SortLastName          = "last_name"
	SortTitle             = "title"
	SortEmail             = "email"
	SortEnterprise        = "enterprise"
	SortAmount            = "amount"
	SortStatus            = "status"
	SortProbability       = "probability"
	SortExpectedCloseDate = "expected_close_date"
)

var (
	enterpriseSorts  = []string{SortName, SortSector, SortRevenue, SortHeadcount}
	contactSorts     = []string{SortLastName, SortFirstName, SortTitle, SortEmail, SortEnterprise}
	opportunitySorts = []string{SortTitle, SortEnterprise, SortAmount, SortStatus, SortProbability, SortExpectedCloseDate}
)

// ListQuery is the search and sort state shared by the list pages.
type ListQuery struct {
	Search string
	Sort   string
	Desc   bool
}

// ContactQuery filters contacts.
type ContactQuery struct {
	ListQuery
	EnterpriseID *uuid.UUID
}

// OpportunityQuery filters opportunities.
type OpportunityQuery struct {
	ListQuery
	Status models.OpportunityStatus
}

// ActivityQuery filters activities. A nil Done matches both states.
type ActivityQuery struct {
	Search string
	Type   models.ActivityType
	Done   *bool
	Period Period
}

func checkSort(key string, allowed []string) error {
	if key == "" || slices.Contains(allowed, key) {
		return nil
	}
	return fmt.Errorf("unsupported sort key %q", key)
}

// CheckEnterpriseSort validates an enterprise sort key.
func CheckEnterpriseSort(key string) error { return checkSort(key, enterpriseSorts) }

// CheckContactSort validates a contact sort key.
func CheckContactSort(key string) error { return checkSort(key, contactSorts) }

// CheckOpportunitySort validates an opportunity sort key.
func CheckOpportunitySort(key string) error { return checkSort(key, opportunitySorts) }

// matcher does case-insensitive substring matching.
type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(q string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.needle = m.fold.String(strings.TrimSpace(q))
	return m
}

func (m *matcher) empty() bool { return m.needle == "" }

func (m *matcher) any(fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(m.fold.String(f), m.needle) {
			return true
		}
	}
	return false
}

// sorter orders values with absent values last in both directions. Strings
// use French collation.
type sorter struct {
	coll *collate.Collator
	desc bool
}

func newSorter(desc bool) *sorter {
	return &sorter{coll: collate.New(language.French), desc: desc}
}

func (s *sorter) dir(c int) int {
	if s.desc {
		return -c
	}
	return c
}

func nullsLast(aNull, bNull bool) (int, bool) {
	switch {
	case aNull && bNull:
		return 0, true
	case aNull:
		return 1, true
	case bNull:
		return -1, true
	}
	return 0, false
}

func (s *sorter) strings(a, b string) int {
	if c, done := nullsLast(a == "", b == ""); done {
		return c
	}
	return s.dir(s.coll.CompareString(a, b))
}

func sortNumber[T cmp.Ordered](s *sorter, a, b *T) int {
	if c, done := nullsLast(a == nil, b == nil); done {
		return c
	}
	return s.dir(cmp.Compare(*a, *b))
}

func (s *sorter) dates(a, b *civil.Date) int {
	if c, done := nullsLast(a == nil, b == nil); done {
		return c
	}
	switch {
	case a.Before(*b):
		return s.dir(-1)
	case a.After(*b):
		return s.dir(1)
	}
	return 0
}

// FilterEnterprises searches name, sector and address, then sorts. The
// default sort is by name.
func FilterEnterprises(list []models.Enterprise, q ListQuery) []models.Enterprise {
	m := newMatcher(q.Search)
	out := make([]models.Enterprise, 0, len(list))
	for _, e := range list {
		if m.empty() || m.any(e.Name, e.Sector, e.Address) {
			out = append(out, e)
		}
	}
	s := newSorter(q.Desc)
	slices.SortStableFunc(out, func(a, b models.Enterprise) int {
		switch q.Sort {
		case SortSector:
			return s.strings(a.Sector, b.Sector)
		case SortRevenue:
			return sortNumber(s, a.Revenue, b.Revenue)
		case SortHeadcount:
			return sortNumber(s, a.Headcount, b.Headcount)
		}
		return s.strings(a.Name, b.Name)
	})
	return out
}

// FilterContacts restricts to an enterprise when set, searches names, title,
// email and enterprise name, then sorts. The default sort is by last name.
func FilterContacts(list []models.Contact, q ContactQuery) []models.Contact {
	m := newMatcher(q.Search)
	out := make([]models.Contact, 0, len(list))
	for _, c := range list {
		if q.EnterpriseID != nil && (c.EnterpriseID == nil || *c.EnterpriseID != *q.EnterpriseID) {
			continue
		}
		if m.empty() || m.any(c.LastName, c.FirstName, c.Title, c.Email, c.EnterpriseName) {
			out = append(out, c)
		}
	}
	s := newSorter(q.Desc)
	slices.SortStableFunc(out, func(a, b models.Contact) int {
		switch q.Sort {
		case SortFirstName:
			return s.strings(a.FirstName, b.FirstName)
		case SortTitle:
			return s.strings(a.Title, b.Title)
		case SortEmail:
			return s.strings(a.Email, b.Email)
		case SortEnterprise:
			return s.strings(a.EnterpriseName, b.EnterpriseName)
		}
		return s.strings(a.LastName, b.LastName)
	})
	return out
}

func statusRank(st models.OpportunityStatus) *int {
	i := slices.Index(models.OpportunityStatuses, st)
	if i < 0 {
		return nil
	}
	return &i
}

// FilterOpportunities applies the status filter, searches title and
// enterprise name, then sorts. Status sorts follow pipeline order. The
// default sort is by title.
func FilterOpportunities(list []models.Opportunity, q OpportunityQuery) []models.Opportunity {
	m := newMatcher(q.Search)
	out := make([]models.Opportunity, 0, len(list))
	for _, o := range list {
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if m.empty() || m.any(o.Title, o.EnterpriseName) {
			out = append(out, o)
		}
	}
	s := newSorter(q.Desc)
	slices.SortStableFunc(out, func(a, b models.Opportunity) int {
		switch q.Sort {
		case SortEnterprise:
			return s.strings(a.EnterpriseName, b.EnterpriseName)
		case SortAmount:
			return sortNumber(s, a.Amount, b.Amount)
		case SortStatus:
			return sortNumber(s, statusRank(a.Status), statusRank(b.Status))
		case SortProbability:
			return sortNumber(s, a.Probability, b.Probability)
		case SortExpectedCloseDate:
			return s.dates(a.ExpectedCloseDate, b.ExpectedCloseDate)
		}
		return s.strings(a.Title, b.Title)
	})
	return out
}

// FilterActivities applies the type, done, period and subject filters. Input
// order is preserved.
func FilterActivities(list []models.Activity, q ActivityQuery, today civil.Date) []models.Activity {
	m := newMatcher(q.Search)
	out := make([]models.Activity, 0, len(list))
	for i := range list {
		a := &list[i]
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		if q.Done != nil && a.IsDone != *q.Done {
			continue
		}
		if !MatchesPeriod(a, q.Period, today) {
			continue
		}
		if !m.empty() && !m.any(a.Subject) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func timelineKey(a *models.Activity) time.Time {
	if a.DueDate != nil {
		return a.DueDate.In(time.UTC)
	}
	return a.CreatedAt
}

// SortTimeline orders activities newest first, using the due date when set
// and the creation time otherwise. The input is not modified.
func SortTimeline(acts []models.Activity) []models.Activity {
	out := slices.Clone(acts)
	slices.SortStableFunc(out, func(a, b models.Activity) int {
		if c := timelineKey(&b).Compare(timelineKey(&a)); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}
