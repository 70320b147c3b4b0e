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

// EnterpriseService defines the interface for enterprise operations.
type EnterpriseService interface {
	List(ctx context.Context, q rules.ListQuery) ([]models.Enterprise, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Enterprise, error)
	Create(ctx context.Context, e *models.Enterprise) error
	Update(ctx context.Context, e *models.Enterprise) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListContacts(ctx context.Context, id uuid.UUID) ([]models.Contact, error)
	ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error)
	// ListActivities returns the enterprise timeline, latest first.
	ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error)
}

type enterpriseService struct {
	enterpriseRepo  repositories.EnterpriseRepository
	contactRepo     repositories.ContactRepository
	opportunityRepo repositories.OpportunityRepository
	activityRepo    repositories.ActivityRepository
	logger          *zap.Logger
}

// NewEnterpriseService creates a new enterprise service.
func NewEnterpriseService(
	enterpriseRepo repositories.EnterpriseRepository,
	contactRepo repositories.ContactRepository,
	opportunityRepo repositories.OpportunityRepository,
	activityRepo repositories.ActivityRepository,
	logger *zap.Logger,
) EnterpriseService {
	return &enterpriseService{
		enterpriseRepo:  enterpriseRepo,
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		activityRepo:    activityRepo,
		logger:          logger.Named("enterprise-service"),
	}
}

var _ EnterpriseService = (*enterpriseService)(nil)

func (s *enterpriseService) List(ctx context.Context, q rules.ListQuery) ([]models.Enterprise, error) {
	if err := rules.CheckEnterpriseSort(q.Sort); err != nil {
		return nil, sortError(err)
	}

	all, err := s.enterpriseRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list enterprises", err)
	}

	list := rules.FilterEnterprises(all, q)
	logListed(s.logger, "enterprise", len(all), len(list))
	return list, nil
}

func (s *enterpriseService) Get(ctx context.Context, id uuid.UUID) (*models.Enterprise, error) {
	e, err := s.enterpriseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("get enterprise", err)
	}
	return e, nil
}

func (s *enterpriseService) Create(ctx context.Context, e *models.Enterprise) error {
	if err := rules.ValidateEnterprise(e); err != nil {
		return err
	}
	e.OwnerID = defaultOwner(ctx, e.OwnerID)

	if err := s.enterpriseRepo.Create(ctx, e); err != nil {
		return apperrors.WrapStore("create enterprise", err)
	}

	s.logger.Info("Created enterprise", zap.String("enterprise_id", e.ID.String()))
	return nil
}

func (s *enterpriseService) Update(ctx context.Context, e *models.Enterprise) error {
	if err := rules.ValidateEnterprise(e); err != nil {
		return err
	}

	if err := s.enterpriseRepo.Update(ctx, e); err != nil {
		return apperrors.WrapStore("update enterprise", err)
	}
	return nil
}

func (s *enterpriseService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.enterpriseRepo.Delete(ctx, id); err != nil {
		return apperrors.WrapStore("delete enterprise", err)
	}

	s.logger.Info("Deleted enterprise", zap.String("enterprise_id", id.String()))
	return nil
}

func (s *enterpriseService) ListContacts(ctx context.Context, id uuid.UUID) ([]models.Contact, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.contactRepo.ListByEnterprise(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list enterprise contacts", err)
	}
	return list, nil
}

func (s *enterpriseService) ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.opportunityRepo.ListByEnterprise(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list enterprise opportunities", err)
	}
	return list, nil
}

func (s *enterpriseService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.activityRepo.ListByEnterprise(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list enterprise activities", err)
	}
	return rules.SortTimeline(list), nil
}
