package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/metrics"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// OpportunityService defines the interface for opportunity operations.
type OpportunityService interface {
	List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	Create(ctx context.Context, o *models.Opportunity) error
	// Update writes every field except the actual close date, which keeps its
	// stored value unless the status changes through the transition rule.
	Update(ctx context.Context, o *models.Opportunity) error
	// ChangeStatus moves an opportunity to status, setting or clearing the
	// actual close date.
	ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error)
	// EligibleContacts lists the contacts that may be attached to an
	// opportunity of enterpriseID.
	EligibleContacts(ctx context.Context, enterpriseID *uuid.UUID) ([]models.Contact, error)
}

type opportunityService struct {
	opportunityRepo repositories.OpportunityRepository
	contactRepo     repositories.ContactRepository
	activityRepo    repositories.ActivityRepository
	clock           clock.Clock
	logger          *zap.Logger
}

// NewOpportunityService creates a new opportunity service.
func NewOpportunityService(
	opportunityRepo repositories.OpportunityRepository,
	contactRepo repositories.ContactRepository,
	activityRepo repositories.ActivityRepository,
	clk clock.Clock,
	logger *zap.Logger,
) OpportunityService {
	return &opportunityService{
		opportunityRepo: opportunityRepo,
		contactRepo:     contactRepo,
		activityRepo:    activityRepo,
		clock:           clk,
		logger:          logger.Named("opportunity-service"),
	}
}

var _ OpportunityService = (*opportunityService)(nil)

func (s *opportunityService) List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error) {
	if err := rules.CheckOpportunitySort(q.Sort); err != nil {
		return nil, sortError(err)
	}
	if q.Status != "" && !q.Status.IsValid() {
		return nil, apperrors.NewValidationError("status", "unknown status")
	}

	all, err := s.opportunityRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list opportunities", err)
	}

	list := rules.FilterOpportunities(all, q)
	logListed(s.logger, "opportunity", len(all), len(list))
	return list, nil
}

func (s *opportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	o, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("get opportunity", err)
	}
	return o, nil
}

func (s *opportunityService) Create(ctx context.Context, o *models.Opportunity) error {
	if o.Status == "" {
		o.Status = models.StatusProspecting
	}
	if err := rules.ValidateOpportunity(o); err != nil {
		return err
	}
	// The close date is derived from the status, never taken from the payload.
	rules.StatusTransition(o.Status, s.clock.Today()).Apply(o)
	o.OwnerID = defaultOwner(ctx, o.OwnerID)

	if err := s.opportunityRepo.Create(ctx, o); err != nil {
		return apperrors.WrapStore("create opportunity", err)
	}

	s.logger.Info("Created opportunity",
		zap.String("opportunity_id", o.ID.String()),
		zap.String("status", string(o.Status)))
	return nil
}

func (s *opportunityService) Update(ctx context.Context, o *models.Opportunity) error {
	if err := rules.ValidateOpportunity(o); err != nil {
		return err
	}

	current, err := s.opportunityRepo.GetByID(ctx, o.ID)
	if err != nil {
		return apperrors.WrapStore("get opportunity", err)
	}
	if current.Status != o.Status {
		rules.StatusTransition(o.Status, s.clock.Today()).Apply(o)
	} else {
		o.ActualCloseDate = current.ActualCloseDate
	}

	if err := s.opportunityRepo.Update(ctx, o); err != nil {
		return apperrors.WrapStore("update opportunity", err)
	}
	return nil
}

func (s *opportunityService) ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("status", "unknown status")
	}

	patch := rules.StatusTransition(status, s.clock.Today())
	o, err := s.opportunityRepo.UpdateStatus(ctx, id, patch)
	if err != nil {
		return nil, apperrors.WrapStore("update opportunity status", err)
	}

	s.logger.Info("Changed opportunity status",
		zap.String("opportunity_id", id.String()),
		zap.String("status", string(status)))
	return o, nil
}

func (s *opportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return apperrors.WrapStore("delete opportunity", err)
	}

	s.logger.Info("Deleted opportunity", zap.String("opportunity_id", id.String()))
	return nil
}

func (s *opportunityService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.activityRepo.ListByOpportunity(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("list opportunity activities", err)
	}
	return rules.SortTimeline(list), nil
}

func (s *opportunityService) EligibleContacts(ctx context.Context, enterpriseID *uuid.UUID) ([]models.Contact, error) {
	contacts, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list contacts", err)
	}
	return rules.ContactsForEnterprise(contacts, enterpriseID), nil
}

// MoveRecorder counts status change outcomes. *metrics.Metrics satisfies it.
type MoveRecorder interface {
	RecordMove(result string)
}

// countingOpportunityService counts every ChangeStatus that reaches the store.
type countingOpportunityService struct {
	OpportunityService
	recorder MoveRecorder
}

// WithMoveRecorder wraps svc so that each status change is counted as applied
// or failed. Rejected payloads are not counted.
func WithMoveRecorder(svc OpportunityService, recorder MoveRecorder) OpportunityService {
	return &countingOpportunityService{OpportunityService: svc, recorder: recorder}
}

func (s *countingOpportunityService) ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error) {
	o, err := s.OpportunityService.ChangeStatus(ctx, id, status)
	switch {
	case err == nil:
		s.recorder.RecordMove(metrics.MoveApplied)
	case !apperrors.IsValidation(err):
		s.recorder.RecordMove(metrics.MoveFailed)
	}
	return o, err
}
