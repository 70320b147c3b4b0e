package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/database"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// DashboardService builds the home page summary.
type DashboardService interface {
	Get(ctx context.Context) (*rules.Dashboard, error)
}

type dashboardService struct {
	scopes          database.ScopeProvider
	enterpriseRepo  repositories.EnterpriseRepository
	contactRepo     repositories.ContactRepository
	opportunityRepo repositories.OpportunityRepository
	activityRepo    repositories.ActivityRepository
	clock           clock.Clock
	logger          *zap.Logger
}

// NewDashboardService creates a new dashboard service. Each of the four
// loads runs on its own connection from scopes.
func NewDashboardService(
	scopes database.ScopeProvider,
	enterpriseRepo repositories.EnterpriseRepository,
	contactRepo repositories.ContactRepository,
	opportunityRepo repositories.OpportunityRepository,
	activityRepo repositories.ActivityRepository,
	clk clock.Clock,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		scopes:          scopes,
		enterpriseRepo:  enterpriseRepo,
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		activityRepo:    activityRepo,
		clock:           clk,
		logger:          logger.Named("dashboard-service"),
	}
}

var _ DashboardService = (*dashboardService)(nil)

// Get loads the four collections concurrently. The first failure cancels the
// remaining loads and is the only error returned.
func (s *dashboardService) Get(ctx context.Context) (*rules.Dashboard, error) {
	userID, _ := auth.GetUserID(ctx)
	g, gctx := errgroup.WithContext(ctx)

	// scoped runs load on a fresh connection so the loads do not share one.
	scoped := func(op string, load func(ctx context.Context) error) func() error {
		return func() error {
			sctx, cleanup, err := s.scopes.WithScope(gctx, userID)
			if err != nil {
				return apperrors.WrapStore(op, err)
			}
			defer cleanup()
			return apperrors.WrapStore(op, load(sctx))
		}
	}

	var (
		enterprises, contacts int
		opps                  []models.Opportunity
		acts                  []models.Activity
	)
	g.Go(scoped("count enterprises", func(ctx context.Context) (err error) {
		enterprises, err = s.enterpriseRepo.Count(ctx)
		return err
	}))
	g.Go(scoped("count contacts", func(ctx context.Context) (err error) {
		contacts, err = s.contactRepo.Count(ctx)
		return err
	}))
	g.Go(scoped("list opportunities", func(ctx context.Context) (err error) {
		opps, err = s.opportunityRepo.List(ctx)
		return err
	}))
	g.Go(scoped("list activities", func(ctx context.Context) (err error) {
		acts, err = s.activityRepo.List(ctx)
		return err
	}))

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard", zap.Error(err))
		return nil, err
	}

	d := rules.ComputeDashboard(enterprises, contacts, opps, acts, s.clock.Today())
	return &d, nil
}
