package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/database"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

func ptr[T any](v T) *T { return &v }

type mockDashboardService struct {
	dashboard *rules.Dashboard
	err       error
}

func (m *mockDashboardService) Get(ctx context.Context) (*rules.Dashboard, error) {
	return m.dashboard, m.err
}

type mockPipelineService struct {
	columns []rules.PipelineColumn
	err     error
}

func (m *mockPipelineService) Columns(ctx context.Context) ([]rules.PipelineColumn, error) {
	return m.columns, m.err
}

type mockOpportunityService struct {
	list []models.Opportunity
	item *models.Opportunity
	err  error

	lastQuery  rules.OpportunityQuery
	lastID     uuid.UUID
	lastStatus models.OpportunityStatus
}

var _ services.OpportunityService = (*mockOpportunityService)(nil)

func (m *mockOpportunityService) List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error) {
	m.lastQuery = q
	return m.list, m.err
}

func (m *mockOpportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return m.item, m.err
}

func (m *mockOpportunityService) Create(ctx context.Context, o *models.Opportunity) error { return m.err }

func (m *mockOpportunityService) Update(ctx context.Context, o *models.Opportunity) error { return m.err }

func (m *mockOpportunityService) ChangeStatus(ctx context.Context, id uuid.UUID, status models.OpportunityStatus) (*models.Opportunity, error) {
	m.lastID = id
	m.lastStatus = status
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
	return nil, m.err
}

type mockActivityService struct {
	upcoming []models.Activity
	err      error

	created   *models.Activity
	lastLimit int
}

var _ services.ActivityService = (*mockActivityService)(nil)

func (m *mockActivityService) List(ctx context.Context, q rules.ActivityQuery) ([]models.Activity, error) {
	return nil, m.err
}

func (m *mockActivityService) Get(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return nil, m.err
}

func (m *mockActivityService) Create(ctx context.Context, a *models.Activity) error {
	m.created = a
	if m.err != nil {
		return m.err
	}
	a.ID = uuid.New()
	return nil
}

func (m *mockActivityService) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	return m.err
}

func (m *mockActivityService) Update(ctx context.Context, a *models.Activity) error { return m.err }

func (m *mockActivityService) ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return nil, m.err
}

func (m *mockActivityService) Delete(ctx context.Context, id uuid.UUID) error { return m.err }

func (m *mockActivityService) Upcoming(ctx context.Context, n int) ([]models.Activity, error) {
	m.lastLimit = n
	return m.upcoming, m.err
}

// mockScopes counts acquired and released scopes.
type mockScopes struct {
	err      error
	acquired int
	released int
	userIDs  []*uuid.UUID
}

var _ database.ScopeProvider = (*mockScopes)(nil)

func (m *mockScopes) WithScope(ctx context.Context, userID *uuid.UUID) (context.Context, func(), error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.acquired++
	m.userIDs = append(m.userIDs, userID)
	return ctx, func() { m.released++ }, nil
}

func newTestServer(deps *Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterCRMTools(s, deps)
	return s
}

// toolResponse is the decoded JSON-RPC response of a tools/call.
type toolResponse struct {
	Result *struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r toolResponse) text() string {
	if r.Result == nil || len(r.Result.Content) == 0 {
		return ""
	}
	return r.Result.Content[0].Text
}

func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(ctx, msg))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// decodeToolError decodes a structured tool error result.
func decodeToolError(t *testing.T, resp toolResponse) ErrorResponse {
	t.Helper()
	require.NotNil(t, resp.Result, "expected a tool result, got a protocol error")
	require.True(t, resp.Result.IsError, "expected an error result: %s", resp.text())

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text()), &errResp))
	return errResp
}

func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}
