package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

func ptr[T any](v T) *T { return &v }

// ============================================================================
// Services
// ============================================================================

type mockEnterpriseService struct {
	list      []models.Enterprise
	item      *models.Enterprise
	err       error
	lastQuery rules.ListQuery
	created   *models.Enterprise
	updated   *models.Enterprise
	deletedID uuid.UUID
}

var _ services.EnterpriseService = (*mockEnterpriseService)(nil)

func (m *mockEnterpriseService) List(ctx context.Context, q rules.ListQuery) ([]models.Enterprise, error) {
	m.lastQuery = q
	return m.list, m.err
}

func (m *mockEnterpriseService) Get(ctx context.Context, id uuid.UUID) (*models.Enterprise, error) {
	return m.item, m.err
}

func (m *mockEnterpriseService) Create(ctx context.Context, e *models.Enterprise) error {
	if m.err != nil {
		return m.err
	}
	e.ID = uuid.New()
	m.created = e
	return nil
}

func (m *mockEnterpriseService) Update(ctx context.Context, e *models.Enterprise) error {
	m.updated = e
	return m.err
}

func (m *mockEnterpriseService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.err
}

func (m *mockEnterpriseService) ListContacts(ctx context.Context, id uuid.UUID) ([]models.Contact, error) {
	return nil, m.err
}

func (m *mockEnterpriseService) ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error) {
	return nil, m.err
}

func (m *mockEnterpriseService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	return nil, m.err
}

type mockContactService struct {
	list      []models.Contact
	err       error
	lastQuery rules.ContactQuery
}

var _ services.ContactService = (*mockContactService)(nil)

func (m *mockContactService) List(ctx context.Context, q rules.ContactQuery) ([]models.Contact, error) {
	m.lastQuery = q
	return m.list, m.err
}

func (m *mockContactService) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return nil, m.err
}

func (m *mockContactService) Create(ctx context.Context, c *models.Contact) error { return m.err }

func (m *mockContactService) Update(ctx context.Context, c *models.Contact) error { return m.err }

func (m *mockContactService) Delete(ctx context.Context, id uuid.UUID) error { return m.err }

func (m *mockContactService) ListOpportunities(ctx context.Context, id uuid.UUID) ([]models.Opportunity, error) {
	return nil, m.err
}

func (m *mockContactService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	return nil, m.err
}

type mockOpportunityService struct {
	list         []models.Opportunity
	item         *models.Opportunity
	contacts     []models.Contact
	err          error
	lastQuery    rules.OpportunityQuery
	statusID     uuid.UUID
	status       models.OpportunityStatus
	eligibleFor  *uuid.UUID
	updatedInput *models.Opportunity
}

var _ services.OpportunityService = (*mockOpportunityService)(nil)

func (m *mockOpportunityService) List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error) {
	m.lastQuery = q
	return m.list, m.err
}

func (m *mockOpportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return m.item, m.err
}

func (m *mockOpportunityService) Create(ctx context.Context, o *models.Opportunity) error {
	return m.err
}

func (m *mockOpportunityService) Update(ctx context.Context, o *models.Opportunity) error {
	m.updatedInput = o
	return m.err
}

func (m *mockOpportunityService) ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error) {
	m.statusID = id
	m.status = status
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *mockOpportunityService) Delete(ctx context.Context, id uuid.UUID) error { return m.err }

func (m *mockOpportunityService) ListActivities(ctx context.Context, id uuid.UUID) ([]models.Activity, error) {
	return nil, m.err
}

func (m *mockOpportunityService) EligibleContacts(ctx context.Context, enterpriseID *uuid.UUID) ([]models.Contact, error) {
	m.eligibleFor = enterpriseID
	return m.contacts, m.err
}

type mockActivityService struct {
	list      []models.Activity
	item      *models.Activity
	err       error
	lastQuery rules.ActivityQuery
	batch     []*models.Activity
	toggledID uuid.UUID
}

var _ services.ActivityService = (*mockActivityService)(nil)

func (m *mockActivityService) List(ctx context.Context, q rules.ActivityQuery) ([]models.Activity, error) {
	m.lastQuery = q
	return m.list, m.err
}

func (m *mockActivityService) Get(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return m.item, m.err
}

func (m *mockActivityService) Create(ctx context.Context, a *models.Activity) error { return m.err }

func (m *mockActivityService) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	m.batch = acts
	return m.err
}

func (m *mockActivityService) Update(ctx context.Context, a *models.Activity) error { return m.err }

func (m *mockActivityService) ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	m.toggledID = id
	return m.item, m.err
}

func (m *mockActivityService) Delete(ctx context.Context, id uuid.UUID) error { return m.err }

func (m *mockActivityService) Upcoming(ctx context.Context, n int) ([]models.Activity, error) {
	return m.list, m.err
}

type mockUserService struct {
	users     []models.User
	user      *models.User
	err       error
	deletedID uuid.UUID
}

var _ services.UserService = (*mockUserService)(nil)

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) { return m.users, m.err }

func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Create(ctx context.Context, u *models.User) error { return m.err }

func (m *mockUserService) Update(ctx context.Context, u *models.User) error { return m.err }

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.err
}

// ============================================================================
// Auth
// ============================================================================

// mockAuthService accepts every request as the configured claims, or
// rejects it with ErrMissingAuthorization when claims is nil.
type mockAuthService struct {
	claims *auth.Claims
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.claims == nil {
		return nil, "", auth.ErrMissingAuthorization
	}
	return m.claims, "token", nil
}

// newAuthMiddleware returns verifying middleware acting as a user with role.
// An empty role means every request is unauthenticated.
func newAuthMiddleware(role string) *auth.Middleware {
	svc := &mockAuthService{}
	if role != "" {
		svc.claims = &auth.Claims{Role: role}
		svc.claims.Subject = uuid.NewString()
	}
	return auth.NewMiddleware(svc, nil, true, zap.NewNop())
}

// passScope is a ScopeMiddleware that attaches nothing.
func passScope(next http.HandlerFunc) http.HandlerFunc { return next }

// ============================================================================
// Helpers
// ============================================================================

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// decodeData decodes an ApiResponse and unmarshals its data into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}
