package main

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/database"
	"github.com/ekaya-inc/ekaya-crm/pkg/metrics"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// app is the store connection plus the services built on it. Every command
// that touches data goes through one.
type app struct {
	db      *database.DB
	scopes  database.ScopeProvider
	clock   *clock.System
	metrics *metrics.Metrics

	users         services.UserService
	enterprises   services.EnterpriseService
	contacts      services.ContactService
	opportunities services.OpportunityService
	activities    services.ActivityService
	dashboard     services.DashboardService
	pipeline      services.PipelineService
}

func openApp(ctx context.Context) (*app, error) {
	clk, err := clock.NewSystem(cfg.Locale.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database.ConnectionString(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConnections,
		MinConns: cfg.Database.MaxIdleConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repositories.NewUserRepository()
	enterpriseRepo := repositories.NewEnterpriseRepository()
	contactRepo := repositories.NewContactRepository()
	opportunityRepo := repositories.NewOpportunityRepository()
	activityRepo := repositories.NewActivityRepository()

	scopes := database.NewScopeProvider(db)
	m := metrics.New()

	return &app{
		db:            db,
		scopes:        scopes,
		clock:         clk,
		metrics:       m,
		users:         services.NewUserService(userRepo, logger),
		enterprises:   services.NewEnterpriseService(enterpriseRepo, contactRepo, opportunityRepo, activityRepo, logger),
		contacts:      services.NewContactService(contactRepo, opportunityRepo, activityRepo, cfg.Locale.PhoneRegion, logger),
		opportunities: services.WithMoveRecorder(services.NewOpportunityService(opportunityRepo, contactRepo, activityRepo, clk, logger), m),
		activities:    services.NewActivityService(activityRepo, clk, logger),
		dashboard:     services.NewDashboardService(scopes, enterpriseRepo, contactRepo, opportunityRepo, activityRepo, clk, logger),
		pipeline:      services.NewPipelineService(opportunityRepo, logger),
	}, nil
}

// scoped runs fn with a connection bound to the context. Maintenance
// commands act without a signed-in user.
func (a *app) scoped(ctx context.Context, fn func(ctx context.Context) error) error {
	scopedCtx, release, err := a.scopes.WithScope(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to acquire database scope: %w", err)
	}
	defer release()
	return fn(scopedCtx)
}

func (a *app) Close() {
	a.db.Close()
}
