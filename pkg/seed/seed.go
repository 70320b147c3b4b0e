package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

type UserCreator interface {
	Create(ctx context.Context, user *models.User) error
}

type EnterpriseCreator interface {
	Create(ctx context.Context, e *models.Enterprise) error
}

type ContactCreator interface {
	Create(ctx context.Context, c *models.Contact) error
}

type OpportunityCreator interface {
	Create(ctx context.Context, o *models.Opportunity) error
}

// ActivityBatchCreator writes all activities or none.
type ActivityBatchCreator interface {
	CreateBatch(ctx context.Context, acts []*models.Activity) error
}

// Summary counts the records a seed run created.
type Summary struct {
	Users         int
	Enterprises   int
	Contacts      int
	Opportunities int
	Activities    int
}

// Seeder writes fixtures through the services.
type Seeder struct {
	users         UserCreator
	enterprises   EnterpriseCreator
	contacts      ContactCreator
	opportunities OpportunityCreator
	activities    ActivityBatchCreator
	clock         clock.Clock
	logger        *zap.Logger
}

// NewSeeder creates a Seeder. Done activities are stamped as completed on
// their due date, or today when they have none.
func NewSeeder(
	users UserCreator,
	enterprises EnterpriseCreator,
	contacts ContactCreator,
	opportunities OpportunityCreator,
	activities ActivityBatchCreator,
	clk clock.Clock,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{
		users:         users,
		enterprises:   enterprises,
		contacts:      contacts,
		opportunities: opportunities,
		activities:    activities,
		clock:         clk,
		logger:        logger.Named("seed"),
	}
}

// Run creates the fixtures in dependency order. It stops at the first
// failure; records written before it are kept. Activities are written as one
// batch, so a bad activity leaves none of them behind.
func (s *Seeder) Run(ctx context.Context, f *Fixtures) (Summary, error) {
	var sum Summary
	if err := f.Check(); err != nil {
		return sum, err
	}

	users := make(map[string]uuid.UUID, len(f.Users))
	for i, u := range f.Users {
		user := &models.User{Email: u.Email, Name: u.Name, Role: u.Role}
		if err := s.users.Create(ctx, user); err != nil {
			return sum, fmt.Errorf("users[%d] %q: %w", i, u.Email, err)
		}
		users[emailKey(u.Email)] = user.ID
		sum.Users++
	}
	owner := func(email string) *uuid.UUID {
		if id, ok := users[emailKey(email)]; ok {
			return &id
		}
		return nil
	}

	enterprises := make(map[string]uuid.UUID, len(f.Enterprises))
	for i, e := range f.Enterprises {
		ent := &models.Enterprise{
			Name:      e.Name,
			Sector:    e.Sector,
			Revenue:   e.Revenue,
			Headcount: e.Headcount,
			Address:   e.Address,
			Website:   e.Website,
			OwnerID:   owner(e.Owner),
		}
		if err := s.enterprises.Create(ctx, ent); err != nil {
			return sum, fmt.Errorf("enterprises[%d] %q: %w", i, e.Name, err)
		}
		enterprises[e.Name] = ent.ID
		sum.Enterprises++
	}
	enterprise := func(name string) *uuid.UUID {
		if id, ok := enterprises[name]; ok {
			return &id
		}
		return nil
	}

	contacts := make(map[string]uuid.UUID, len(f.Contacts))
	for i, c := range f.Contacts {
		con := &models.Contact{
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			Title:        c.Title,
			Email:        c.Email,
			Phone:        c.Phone,
			IsPrimary:    c.Primary,
			EnterpriseID: enterprise(c.Enterprise),
			OwnerID:      owner(c.Owner),
		}
		if err := s.contacts.Create(ctx, con); err != nil {
			return sum, fmt.Errorf("contacts[%d] %s %s: %w", i, c.FirstName, c.LastName, err)
		}
		if c.Email != "" {
			contacts[emailKey(c.Email)] = con.ID
		}
		sum.Contacts++
	}
	contact := func(email string) *uuid.UUID {
		if id, ok := contacts[emailKey(email)]; ok {
			return &id
		}
		return nil
	}

	opportunities := make(map[string]uuid.UUID, len(f.Opportunities))
	for i, o := range f.Opportunities {
		expected, _ := parseDate(o.ExpectedClose)
		opp := &models.Opportunity{
			Title:             o.Title,
			Status:            models.OpportunityStatus(o.Status),
			Amount:            o.Amount,
			Probability:       o.Probability,
			ExpectedCloseDate: expected,
			EnterpriseID:      enterprise(o.Enterprise),
			ContactID:         contact(o.Contact),
			OwnerID:           owner(o.Owner),
		}
		if err := s.opportunities.Create(ctx, opp); err != nil {
			return sum, fmt.Errorf("opportunities[%d] %q: %w", i, o.Title, err)
		}
		opportunities[o.Title] = opp.ID
		sum.Opportunities++
	}

	if err := s.seedActivities(ctx, f.Activities, enterprise, contact, owner, opportunities); err != nil {
		return sum, err
	}
	sum.Activities = len(f.Activities)

	s.logger.Info("Seeded fixtures",
		zap.Int("users", sum.Users),
		zap.Int("enterprises", sum.Enterprises),
		zap.Int("contacts", sum.Contacts),
		zap.Int("opportunities", sum.Opportunities),
		zap.Int("activities", sum.Activities))
	return sum, nil
}

type resolver func(key string) *uuid.UUID

func (s *Seeder) seedActivities(
	ctx context.Context,
	fixtures []ActivityFixture,
	enterprise, contact, owner resolver,
	opportunities map[string]uuid.UUID,
) error {
	if len(fixtures) == 0 {
		return nil
	}
	acts := make([]*models.Activity, len(fixtures))
	for i, a := range fixtures {
		due, _ := parseDate(a.Due)
		act := &models.Activity{
			Type:         models.ActivityType(a.Type),
			Subject:      a.Subject,
			Description:  a.Description,
			DueDate:      due,
			IsDone:       a.Done,
			EnterpriseID: enterprise(a.Enterprise),
			ContactID:    contact(a.Contact),
			OwnerID:      owner(a.Owner),
		}
		if id, ok := opportunities[a.Opportunity]; ok {
			act.OpportunityID = &id
		}
		if a.Done {
			completed := s.clock.Today()
			if due != nil {
				completed = *due
			}
			act.CompletedOn = &completed
		}
		acts[i] = act
	}
	if err := s.activities.CreateBatch(ctx, acts); err != nil {
		return fmt.Errorf("activities: %w", err)
	}
	return nil
}
