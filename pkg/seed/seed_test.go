package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// recorder stands in for every service; it assigns ids like the store does.
type recorder struct {
	users         []*models.User
	enterprises   []*models.Enterprise
	contacts      []*models.Contact
	opportunities []*models.Opportunity
	activities    []*models.Activity

	failEnterprise string
	batchErr       error
}

type userCreator struct{ r *recorder }

func (c userCreator) Create(ctx context.Context, u *models.User) error {
	u.ID = uuid.New()
	c.r.users = append(c.r.users, u)
	return nil
}

type enterpriseCreator struct{ r *recorder }

func (c enterpriseCreator) Create(ctx context.Context, e *models.Enterprise) error {
	if e.Name == c.r.failEnterprise {
		return apperrors.NewValidationError("revenue", "revenue must be a non-negative number")
	}
	e.ID = uuid.New()
	c.r.enterprises = append(c.r.enterprises, e)
	return nil
}

type contactCreator struct{ r *recorder }

func (c contactCreator) Create(ctx context.Context, con *models.Contact) error {
	con.ID = uuid.New()
	c.r.contacts = append(c.r.contacts, con)
	return nil
}

type opportunityCreator struct{ r *recorder }

func (c opportunityCreator) Create(ctx context.Context, o *models.Opportunity) error {
	o.ID = uuid.New()
	c.r.opportunities = append(c.r.opportunities, o)
	return nil
}

type activityCreator struct{ r *recorder }

func (c activityCreator) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	if c.r.batchErr != nil {
		return c.r.batchErr
	}
	for _, a := range acts {
		a.ID = uuid.New()
	}
	c.r.activities = append(c.r.activities, acts...)
	return nil
}

var today = civil.Date{Year: 2024, Month: 6, Day: 1}

func newTestSeeder(r *recorder) *Seeder {
	return NewSeeder(
		userCreator{r},
		enterpriseCreator{r},
		contactCreator{r},
		opportunityCreator{r},
		activityCreator{r},
		clock.Fixed(today),
		zap.NewNop(),
	)
}

func TestLoadFile_RunsExampleFixtures(t *testing.T) {
	f, err := LoadFile("testdata/fixtures.yaml")
	require.NoError(t, err)

	r := &recorder{}
	sum, err := newTestSeeder(r).Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, Summary{Users: 2, Enterprises: 2, Contacts: 2, Opportunities: 2, Activities: 2}, sum)

	sam := r.users[1].ID
	acme := r.enterprises[0]
	require.NotNil(t, acme.OwnerID)
	assert.Equal(t, sam, *acme.OwnerID)
	assert.Equal(t, 85, *acme.Headcount)
	assert.Nil(t, r.enterprises[1].OwnerID)

	wile := r.contacts[0]
	assert.True(t, wile.IsPrimary)
	assert.Equal(t, acme.ID, *wile.EnterpriseID)

	renewal := r.opportunities[0]
	assert.Equal(t, models.StatusProposal, renewal.Status)
	assert.Equal(t, acme.ID, *renewal.EnterpriseID)
	assert.Equal(t, wile.ID, *renewal.ContactID)
	assert.Equal(t, civil.Date{Year: 2024, Month: 6, Day: 30}, *renewal.ExpectedCloseDate)
	assert.Nil(t, r.opportunities[1].ContactID)

	call := r.activities[0]
	assert.Equal(t, renewal.ID, *call.OpportunityID)
	assert.Equal(t, wile.ID, *call.ContactID)
	assert.False(t, call.IsDone)
	assert.Nil(t, call.CompletedOn)

	kickoff := r.activities[1]
	assert.True(t, kickoff.IsDone)
	assert.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 20}, *kickoff.CompletedOn)
}

func TestRun_DoneWithoutDueDateCompletesToday(t *testing.T) {
	r := &recorder{}
	f := &Fixtures{
		Enterprises: []EnterpriseFixture{{Name: "Acme"}},
		Activities:  []ActivityFixture{{Type: "note", Subject: "Met at fair", Done: true, Enterprise: "Acme"}},
	}

	_, err := newTestSeeder(r).Run(context.Background(), f)
	require.NoError(t, err)

	require.Len(t, r.activities, 1)
	assert.Equal(t, today, *r.activities[0].CompletedOn)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	r := &recorder{failEnterprise: "Globex"}
	f := &Fixtures{
		Enterprises: []EnterpriseFixture{{Name: "Acme"}, {Name: "Globex"}, {Name: "Initech"}},
		Contacts:    []ContactFixture{{FirstName: "A", LastName: "B", Enterprise: "Acme"}},
	}

	sum, err := newTestSeeder(r).Run(context.Background(), f)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), `enterprises[1] "Globex"`)
	assert.Equal(t, Summary{Enterprises: 1}, sum)
	assert.Empty(t, r.contacts)
}

func TestRun_ActivityBatchFailure(t *testing.T) {
	r := &recorder{batchErr: errors.New("tx aborted")}
	f := &Fixtures{
		Enterprises: []EnterpriseFixture{{Name: "Acme"}},
		Activities:  []ActivityFixture{{Type: "call", Subject: "x", Enterprise: "Acme"}},
	}

	sum, err := newTestSeeder(r).Run(context.Background(), f)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "activities: tx aborted")
	assert.Equal(t, 0, sum.Activities)
	assert.Equal(t, 1, sum.Enterprises)
}

func TestParse_CheckFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "enterprises:\n  - name: Acme\n    revnue: 10\n",
			wantErr: "field revnue not found",
		},
		{
			name:    "unknown enterprise",
			yaml:    "contacts:\n  - first_name: A\n    last_name: B\n    enterprise: Nowhere\n",
			wantErr: `contacts[0]: unknown enterprise "Nowhere"`,
		},
		{
			name:    "duplicate enterprise",
			yaml:    "enterprises:\n  - name: Acme\n  - name: Acme\n",
			wantErr: `enterprises[1]: duplicate name "Acme"`,
		},
		{
			name:    "unknown owner",
			yaml:    "enterprises:\n  - name: Acme\n    owner: ghost@example.com\n",
			wantErr: `enterprises[0]: unknown owner "ghost@example.com"`,
		},
		{
			name:    "bad status",
			yaml:    "enterprises:\n  - name: Acme\nopportunities:\n  - title: T\n    enterprise: Acme\n    status: archived\n",
			wantErr: `opportunities[0]: unknown status "archived"`,
		},
		{
			name:    "bad date",
			yaml:    "enterprises:\n  - name: Acme\nactivities:\n  - type: call\n    subject: S\n    enterprise: Acme\n    due: 06/03/2024\n",
			wantErr: "activities[0]: due: invalid date",
		},
		{
			name:    "unknown opportunity",
			yaml:    "activities:\n  - type: call\n    subject: S\n    opportunity: Ghost deal\n",
			wantErr: `activities[0]: unknown opportunity "Ghost deal"`,
		},
		{
			name:    "duplicate user email ignores case",
			yaml:    "users:\n  - email: a@example.com\n  - email: A@Example.com\n",
			wantErr: `users[1]: duplicate email`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Enterprises)

	sum, err := newTestSeeder(&recorder{}).Run(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/absent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixtures")
}
