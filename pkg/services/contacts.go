package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// ContactService defines the interface for contact operations.
type ContactService interface {
	List(ctx context.Context, q rules.ContactQuery) ([]models.Contact, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, c *models.Contact) error
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error)
	ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error)
}

type contactService struct {
	contactRepo     repositories.ContactRepository
	opportunityRepo repositories.OpportunityRepository
	activityRepo    repositories.ActivityRepository
	phoneRegion     string
	logger          *zap.Logger
}

// NewContactService creates a new contact service. Phone numbers are
// normalized to E.164 using phoneRegion for numbers without a country code.
func NewContactService(
	contactRepo repositories.ContactRepository,
	opportunityRepo repositories.OpportunityRepository,
	activityRepo repositories.ActivityRepository,
	phoneRegion string,
	logger *zap.Logger,
) ContactService {
	return &contactService{
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		activityRepo:    activityRepo,
		phoneRegion:     phoneRegion,
		logger:          logger.Named("contact-service"),
	}
}

var _ ContactService = (*contactService)(nil)

func (s *contactService) List(ctx context.Context, q rules.ContactQuery) ([]models.Contact, error) {
	if err := rules.CheckContactSort(q.Sort); err != nil {
		return nil, sortError(err)
	}

	all, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list contacts", err)
	}

	list := rules.FilterContacts(all, q)
	logListed(s.logger, "contact", len(all), len(list))
	return list, nil
}

func (s *contactService) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	c, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("get contact", err)
	}
	return c, nil
}

func (s *contactService) prepare(c *models.Contact) error {
	if err := rules.ValidateContact(c); err != nil {
		return err
	}
	c.Phone = rules.NormalizePhone(c.Phone, s.phoneRegion)
	return nil
}

func (s *contactService) Create(ctx context.Context, c *models.Contact) error {
	if err := s.prepare(c); err != nil {
		return err
	}
	c.OwnerID = defaultOwner(ctx, c.OwnerID)

	if err := s.contactRepo.Create(ctx, c); err != nil {
		return apperrors.WrapStore("create contact", err)
	}

	s.logger.Info("Created contact", zap.String("contact_id", c.ID.String()))
	return nil
}

func (s *contactService) Update(ctx context.Context, c *models.Contact) error {
	if err := s.prepare(c); err != nil {
		return err
	}

	if err := s.contactRepo.Update(ctx, c); err != nil {
		return apperrors.WrapStore("update contact", err)
	}
	return nil
}

func (s *contactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return apperrors.WrapStore("delete contact", err)
	}

	s.logger.Info("Deleted contact", zap.String("contact_id", id.String()))
	return nil
}

func (s *contactService) ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.opportunityRepo.ListByContact(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list contact opportunities", err)
	}
	return list, nil
}

func (s *contactService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.activityRepo.ListByContact(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list contact activities", err)
	}
	return rules.SortTimeline(list), nil
}
