package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// ActivityService defines the interface for activity operations.
type ActivityService interface {
	List(ctx context.Context, q rules.ActivityQuery) ([]models.Activity, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	Create(ctx context.Context, a *models.Activity) error
	// CreateBatch validates every payload before writing any. One invalid
	// payload rejects the whole batch with a *rules.BatchValidationError.
	CreateBatch(ctx context.Context, acts []*models.Activity) error
	Update(ctx context.Context, a *models.Activity) error
	ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Upcoming returns open activities due today or later, soonest first.
	// n < 0 returns all of them.
	Upcoming(ctx context.Context, n int) ([]models.Activity, error)
}

type activityService struct {
	activityRepo repositories.ActivityRepository
	clock        clock.Clock
	logger       *zap.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(activityRepo repositories.ActivityRepository, clk clock.Clock, logger *zap.Logger) ActivityService {
	return &activityService{
		activityRepo: activityRepo,
		clock:        clk,
		logger:       logger.Named("activity-service"),
	}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) List(ctx context.Context, q rules.ActivityQuery) ([]models.Activity, error) {
	if q.Type != "" && !q.Type.IsValid() {
		return nil, apperrors.NewValidationError("type", "unknown activity type")
	}
	if _, err := rules.ParsePeriod(string(q.Period)); err != nil {
		return nil, apperrors.NewValidationError("period", err.Error())
	}

	all, err := s.activityRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list activities", err)
	}

	list := rules.FilterActivities(all, q, s.clock.Today())
	logListed(s.logger, "activity", len(all), len(list))
	return list, nil
}

func (s *activityService) Get(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("get activity", err)
	}
	return a, nil
}

func (s *activityService) Create(ctx context.Context, a *models.Activity) error {
	if err := rules.ValidateActivity(a); err != nil {
		return err
	}
	a.OwnerID = defaultOwner(ctx, a.OwnerID)

	if err := s.activityRepo.Create(ctx, a); err != nil {
		return apperrors.WrapStore("create activity", err)
	}

	s.logger.Info("Created activity",
		zap.String("activity_id", a.ID.String()),
		zap.String("type", string(a.Type)))
	return nil
}

func (s *activityService) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	if len(acts) == 0 {
		return apperrors.NewValidationError("activities", "batch is empty")
	}
	if err := rules.ValidateActivities(acts); err != nil {
		return err
	}
	for _, a := range acts {
		a.OwnerID = defaultOwner(ctx, a.OwnerID)
	}

	if err := s.activityRepo.CreateBatch(ctx, acts); err != nil {
		return apperrors.WrapStore("create activity batch", err)
	}

	s.logger.Info("Created activity batch", zap.Int("count", len(acts)))
	return nil
}

func (s *activityService) Update(ctx context.Context, a *models.Activity) error {
	if err := rules.ValidateActivity(a); err != nil {
		return err
	}

	if err := s.activityRepo.Update(ctx, a); err != nil {
		return apperrors.WrapStore("update activity", err)
	}
	return nil
}

func (s *activityService) ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a, err := s.activityRepo.ToggleDone(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("toggle activity", err)
	}
	return a, nil
}

func (s *activityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return apperrors.WrapStore("delete activity", err)
	}

	s.logger.Info("Deleted activity", zap.String("activity_id", id.String()))
	return nil
}

func (s *activityService) Upcoming(ctx context.Context, n int) ([]models.Activity, error) {
	all, err := s.activityRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list activities", err)
	}
	return rules.UpcomingActivities(all, s.clock.Today(), n), nil
}
