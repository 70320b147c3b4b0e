package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func enterpriseNames(list []models.Enterprise) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Name
	}
	return out
}

func TestFilterEnterprises_FrenchCollation(t *testing.T) {
	list := []models.Enterprise{{Name: "Zeta"}, {Name: "Éclair"}, {Name: "eau"}}

	got := FilterEnterprises(list, ListQuery{})
	assert.Equal(t, []string{"eau", "Éclair", "Zeta"}, enterpriseNames(got))

	got = FilterEnterprises(list, ListQuery{Desc: true})
	assert.Equal(t, []string{"Zeta", "Éclair", "eau"}, enterpriseNames(got))
}

func TestFilterEnterprises_Search(t *testing.T) {
	list := []models.Enterprise{
		{Name: "Acme", Sector: "Industrie"},
		{Name: "Globex", Address: "12 rue de la Paix"},
		{Name: "Initech"},
	}
	assert.Equal(t, []string{"Acme"}, enterpriseNames(FilterEnterprises(list, ListQuery{Search: "INDUS"})))
	assert.Equal(t, []string{"Globex"}, enterpriseNames(FilterEnterprises(list, ListQuery{Search: " paix "})))
	assert.Len(t, FilterEnterprises(list, ListQuery{Search: "  "}), 3)
}

func TestFilterEnterprises_NullsLastBothDirections(t *testing.T) {
	list := []models.Enterprise{
		{Name: "none"},
		{Name: "small", Revenue: ptr(10.0)},
		{Name: "big", Revenue: ptr(1000.0)},
	}

	asc := FilterEnterprises(list, ListQuery{Sort: SortRevenue})
	assert.Equal(t, []string{"small", "big", "none"}, enterpriseNames(asc))

	desc := FilterEnterprises(list, ListQuery{Sort: SortRevenue, Desc: true})
	assert.Equal(t, []string{"big", "small", "none"}, enterpriseNames(desc))
}

func TestFilterContacts(t *testing.T) {
	ent := uuid.New()
	list := []models.Contact{
		{FirstName: "Ada", LastName: "Lovelace", EnterpriseID: &ent, EnterpriseName: "Analytical"},
		{FirstName: "Alan", LastName: "Turing"},
		{FirstName: "Grace", LastName: "Hopper", EnterpriseID: &ent, Email: "grace@navy.mil"},
	}

	got := FilterContacts(list, ContactQuery{})
	require.Len(t, got, 3)
	assert.Equal(t, "Hopper", got[0].LastName)
	assert.Equal(t, "Lovelace", got[1].LastName)

	got = FilterContacts(list, ContactQuery{EnterpriseID: &ent, ListQuery: ListQuery{Sort: SortFirstName}})
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].FirstName)

	got = FilterContacts(list, ContactQuery{ListQuery: ListQuery{Search: "analyt"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Lovelace", got[0].LastName)

	got = FilterContacts(list, ContactQuery{ListQuery: ListQuery{Search: "NAVY"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Hopper", got[0].LastName)
}

func TestFilterOpportunities(t *testing.T) {
	list := []models.Opportunity{
		{Title: "Beta", Status: models.StatusWon, EnterpriseName: "Acme"},
		{Title: "Alpha", Status: models.StatusNegotiation, Probability: ptr(40)},
		{Title: "Gamma", Status: models.StatusProspecting, ExpectedCloseDate: ptr(day(2024, time.July, 1))},
	}

	got := FilterOpportunities(list, OpportunityQuery{ListQuery: ListQuery{Sort: SortStatus}})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, []string{got[0].Title, got[1].Title, got[2].Title})

	got = FilterOpportunities(list, OpportunityQuery{Status: models.StatusWon})
	require.Len(t, got, 1)
	assert.Equal(t, "Beta", got[0].Title)

	got = FilterOpportunities(list, OpportunityQuery{ListQuery: ListQuery{Search: "acme"}})
	require.Len(t, got, 1)

	got = FilterOpportunities(list, OpportunityQuery{ListQuery: ListQuery{Sort: SortExpectedCloseDate}})
	assert.Equal(t, "Gamma", got[0].Title)

	got = FilterOpportunities(list, OpportunityQuery{ListQuery: ListQuery{Sort: SortProbability, Desc: true}})
	assert.Equal(t, "Alpha", got[0].Title)
}

func TestCheckSorts(t *testing.T) {
	assert.NoError(t, CheckEnterpriseSort(""))
	assert.NoError(t, CheckEnterpriseSort(SortHeadcount))
	assert.Error(t, CheckEnterpriseSort(SortAmount))
	assert.NoError(t, CheckContactSort(SortEnterprise))
	assert.Error(t, CheckContactSort("nom"))
	assert.NoError(t, CheckOpportunitySort(SortExpectedCloseDate))
	assert.Error(t, CheckOpportunitySort(SortHeadcount))
}

func TestFilterActivities(t *testing.T) {
	today := day(2024, time.June, 1)
	id := uuid.New()
	list := []models.Activity{
		{Subject: "Call Ada", Type: models.ActivityCall, DueDate: ptr(today), EnterpriseID: &id},
		{Subject: "Send proposal", Type: models.ActivityEmail, IsDone: true, DueDate: ptr(day(2024, time.May, 20))},
		{Subject: "Quarterly review", Type: models.ActivityMeeting, DueDate: ptr(day(2024, time.June, 20))},
		{Subject: "Notes", Type: models.ActivityNote},
	}

	assert.Len(t, FilterActivities(list, ActivityQuery{}, today), 4)
	assert.Len(t, FilterActivities(list, ActivityQuery{Type: models.ActivityCall}, today), 1)
	assert.Len(t, FilterActivities(list, ActivityQuery{Done: ptr(true)}, today), 1)
	assert.Len(t, FilterActivities(list, ActivityQuery{Done: ptr(false)}, today), 3)
	assert.Len(t, FilterActivities(list, ActivityQuery{Period: PeriodOverdue}, today), 1)
	assert.Len(t, FilterActivities(list, ActivityQuery{Period: PeriodMonth}, today), 2)
	assert.Len(t, FilterActivities(list, ActivityQuery{Search: "REVIEW"}, today), 1)
	assert.Empty(t, FilterActivities(list, ActivityQuery{Search: "review", Period: PeriodWeek}, today))
}

func TestSortTimeline(t *testing.T) {
	created := time.Date(2024, time.June, 5, 9, 0, 0, 0, time.UTC)
	list := []models.Activity{
		{Subject: "due early", DueDate: ptr(day(2024, time.May, 1))},
		{Subject: "undated", CreatedAt: created},
		{Subject: "due late", DueDate: ptr(day(2024, time.July, 1))},
	}

	got := SortTimeline(list)
	assert.Equal(t, []string{"due late", "undated", "due early"}, []string{got[0].Subject, got[1].Subject, got[2].Subject})
	assert.Equal(t, "due early", list[0].Subject)
}
