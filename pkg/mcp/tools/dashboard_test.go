package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

func TestRegisterCRMTools_ListsAllTools(t *testing.T) {
	s := newTestServer(&Deps{})

	raw, err := json.Marshal(s.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	var names []string
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"get_dashboard",
		"get_pipeline",
		"list_opportunities",
		"change_opportunity_status",
		"list_upcoming_activities",
		"create_activity",
	}, names)
}

func TestGetDashboard(t *testing.T) {
	dash := &rules.Dashboard{
		Enterprises:        3,
		Contacts:           7,
		OpenOpportunities:  2,
		WeightedValue:      decimal.NewFromInt(500),
		UpcomingActivities: 1,
	}
	s := newTestServer(&Deps{Dashboard: &mockDashboardService{dashboard: dash}})

	resp := callTool(t, context.Background(), s, "get_dashboard", nil)

	require.NotNil(t, resp.Result)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.text()), &got))
	assert.Equal(t, float64(3), got["enterprises"])
	assert.Equal(t, float64(2), got["open_opportunities"])
	assert.Equal(t, "500", got["weighted_value"])
	assert.Equal(t, float64(1), got["upcoming_activities"])
}

func TestGetDashboard_StoreFailureIsProtocolError(t *testing.T) {
	s := newTestServer(&Deps{Dashboard: &mockDashboardService{err: apperrors.WrapStore("count contacts", errors.New("timeout"))}})

	resp := callTool(t, context.Background(), s, "get_dashboard", nil)

	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "failed to load dashboard")
}

func TestGetPipeline(t *testing.T) {
	oppID := uuid.New()
	cols := rules.GroupPipeline([]models.Opportunity{
		{ID: oppID, Title: "Renewal", Status: models.StatusProposal, Amount: ptr(1200.0), Probability: ptr(40), EnterpriseName: "Acme"},
	})
	scopes := &mockScopes{}
	s := newTestServer(&Deps{Scopes: scopes, Pipeline: &mockPipelineService{columns: cols}})

	userID := uuid.New()
	ctx := auth.WithActor(context.Background(), &auth.Actor{UserID: userID, Role: models.RoleSales})
	resp := callTool(t, ctx, s, "get_pipeline", nil)

	require.NotNil(t, resp.Result)
	var got struct {
		Columns []pipelineColumn `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.text()), &got))
	require.Len(t, got.Columns, 6)
	for i, status := range models.OpportunityStatuses {
		assert.Equal(t, status, got.Columns[i].Status)
	}

	proposal := got.Columns[2]
	assert.Equal(t, 1, proposal.Count)
	assert.True(t, decimal.NewFromInt(1200).Equal(proposal.Total))
	require.Len(t, proposal.Opportunities, 1)
	assert.Equal(t, oppID, proposal.Opportunities[0].ID)
	assert.Equal(t, "Acme", proposal.Opportunities[0].Enterprise)

	assert.Empty(t, got.Columns[0].Opportunities)
	assert.Equal(t, 1, scopes.acquired)
	assert.Equal(t, 1, scopes.released)
	require.NotNil(t, scopes.userIDs[0])
	assert.Equal(t, userID, *scopes.userIDs[0])
}

func TestGetPipeline_ScopeFailure(t *testing.T) {
	pipeline := &mockPipelineService{}
	s := newTestServer(&Deps{Scopes: &mockScopes{err: errors.New("pool exhausted")}, Pipeline: pipeline})

	resp := callTool(t, context.Background(), s, "get_pipeline", nil)

	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "failed to acquire database scope")
}
