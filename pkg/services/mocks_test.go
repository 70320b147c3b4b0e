package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// mockUserRepository is a configurable mock for testing UserService.
type mockUserRepository struct {
	users     []models.User
	user      *models.User
	err       error
	deleteErr error

	created *models.User
	updated *models.User
	deleted uuid.UUID
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.created = user
	if m.err == nil {
		user.ID = uuid.New()
	}
	return m.err
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return m.err
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleted = id
	return m.deleteErr
}

// mockEnterpriseRepository is a configurable mock for testing services.
type mockEnterpriseRepository struct {
	list   []models.Enterprise
	item   *models.Enterprise
	count  int
	err    error
	getErr error

	created *models.Enterprise
	updated *models.Enterprise
}

func (m *mockEnterpriseRepository) List(ctx context.Context) ([]models.Enterprise, error) {
	return m.list, m.err
}

func (m *mockEnterpriseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Enterprise, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.item, nil
}

func (m *mockEnterpriseRepository) Count(ctx context.Context) (int, error) {
	return m.count, m.err
}

func (m *mockEnterpriseRepository) Create(ctx context.Context, e *models.Enterprise) error {
	m.created = e
	return m.err
}

func (m *mockEnterpriseRepository) Update(ctx context.Context, e *models.Enterprise) error {
	m.updated = e
	return m.err
}

func (m *mockEnterpriseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// mockContactRepository is a configurable mock for testing services.
type mockContactRepository struct {
	list   []models.Contact
	item   *models.Contact
	count  int
	err    error
	getErr error

	created *models.Contact
	updated *models.Contact
}

func (m *mockContactRepository) List(ctx context.Context) ([]models.Contact, error) {
	return m.list, m.err
}

func (m *mockContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.item, nil
}

func (m *mockContactRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Contact, error) {
	return m.list, m.err
}

func (m *mockContactRepository) Count(ctx context.Context) (int, error) {
	return m.count, m.err
}

func (m *mockContactRepository) Create(ctx context.Context, c *models.Contact) error {
	m.created = c
	return m.err
}

func (m *mockContactRepository) Update(ctx context.Context, c *models.Contact) error {
	m.updated = c
	return m.err
}

func (m *mockContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// mockOpportunityRepository is a configurable mock for testing services.
type mockOpportunityRepository struct {
	list   []models.Opportunity
	item   *models.Opportunity
	err    error
	getErr error

	created      *models.Opportunity
	updated      *models.Opportunity
	patch        *models.OpportunityStatusPatch
	statusCalled int
}

func (m *mockOpportunityRepository) List(ctx context.Context) ([]models.Opportunity, error) {
	return m.list, m.err
}

func (m *mockOpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.item, nil
}

func (m *mockOpportunityRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Opportunity, error) {
	return m.list, m.err
}

func (m *mockOpportunityRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Opportunity, error) {
	return m.list, m.err
}

func (m *mockOpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	m.created = o
	return m.err
}

func (m *mockOpportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	m.updated = o
	return m.err
}

func (m *mockOpportunityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, patch models.OpportunityStatusPatch) (*models.Opportunity, error) {
	m.statusCalled++
	m.patch = &patch
	if m.err != nil {
		return nil, m.err
	}
	o := models.Opportunity{ID: id}
	patch.Apply(&o)
	return &o, nil
}

func (m *mockOpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// mockActivityRepository is a configurable mock for testing services.
type mockActivityRepository struct {
	list   []models.Activity
	item   *models.Activity
	err    error
	getErr error

	created     *models.Activity
	batch       []*models.Activity
	batchCalled int
}

func (m *mockActivityRepository) List(ctx context.Context) ([]models.Activity, error) {
	return m.list, m.err
}

func (m *mockActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.item, nil
}

func (m *mockActivityRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Activity, error) {
	return m.list, m.err
}

func (m *mockActivityRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Activity, error) {
	return m.list, m.err
}

func (m *mockActivityRepository) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]models.Activity, error) {
	return m.list, m.err
}

func (m *mockActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	m.created = a
	return m.err
}

func (m *mockActivityRepository) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	m.batchCalled++
	m.batch = acts
	return m.err
}

func (m *mockActivityRepository) Update(ctx context.Context, a *models.Activity) error {
	return m.err
}

func (m *mockActivityRepository) ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := *m.item
	a.IsDone = !a.IsDone
	return &a, nil
}

func (m *mockActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// mockScopeProvider hands out no-op scopes and records how many were opened.
type mockScopeProvider struct {
	mu      sync.Mutex
	userIDs []*uuid.UUID
	opened  atomic.Int32
	closed  atomic.Int32
	err     error
}

func (m *mockScopeProvider) WithScope(ctx context.Context, userID *uuid.UUID) (context.Context, func(), error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.mu.Lock()
	m.userIDs = append(m.userIDs, userID)
	m.mu.Unlock()
	m.opened.Add(1)
	return ctx, func() { m.closed.Add(1) }, nil
}
