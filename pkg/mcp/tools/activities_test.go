package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func TestListUpcomingActivities(t *testing.T) {
	due := civil.Date{Year: 2024, Month: 6, Day: 2}
	acts := &mockActivityService{upcoming: []models.Activity{
		{ID: uuid.New(), Type: models.ActivityCall, Subject: "Follow up", DueDate: &due},
	}}
	s := newTestServer(&Deps{Activities: acts})

	t.Run("default limit", func(t *testing.T) {
		resp := callTool(t, context.Background(), s, "list_upcoming_activities", nil)

		require.NotNil(t, resp.Result)
		assert.Equal(t, defaultUpcomingLimit, acts.lastLimit)

		var got struct {
			Activities []models.Activity `json:"activities"`
			Count      int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal([]byte(resp.text()), &got))
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "Follow up", got.Activities[0].Subject)
		assert.Equal(t, due, *got.Activities[0].DueDate)
	})

	t.Run("explicit limit", func(t *testing.T) {
		callTool(t, context.Background(), s, "list_upcoming_activities", map[string]any{"limit": 12})
		assert.Equal(t, 12, acts.lastLimit)
	})

	t.Run("limit out of range", func(t *testing.T) {
		resp := callTool(t, context.Background(), s, "list_upcoming_activities", map[string]any{"limit": 0})
		errResp := decodeToolError(t, resp)
		assert.Equal(t, "invalid_parameters", errResp.Code)
	})
}

func TestCreateActivity(t *testing.T) {
	oppID := uuid.New()
	acts := &mockActivityService{}
	s := newTestServer(&Deps{Scopes: &mockScopes{}, Activities: acts})

	resp := callTool(t, context.Background(), s, "create_activity", map[string]any{
		"type":           "meeting",
		"subject":        "Kickoff",
		"due_date":       "2024-06-03",
		"opportunity_id": oppID.String(),
	})

	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.IsError, resp.text())
	require.NotNil(t, acts.created)
	assert.Equal(t, models.ActivityMeeting, acts.created.Type)
	assert.Equal(t, "Kickoff", acts.created.Subject)
	assert.Equal(t, civil.Date{Year: 2024, Month: 6, Day: 3}, *acts.created.DueDate)
	assert.Equal(t, oppID, *acts.created.OpportunityID)
	assert.Nil(t, acts.created.EnterpriseID)
	assert.Nil(t, acts.created.ContactID)

	var got models.Activity
	require.NoError(t, json.Unmarshal([]byte(resp.text()), &got))
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestCreateActivity_BadParameters(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantField string
	}{
		{"bad date", map[string]any{"type": "call", "subject": "x", "due_date": "03/06/2024"}, "due_date"},
		{"bad enterprise", map[string]any{"type": "call", "subject": "x", "enterprise_id": "acme"}, "enterprise_id"},
		{"bad contact", map[string]any{"type": "call", "subject": "x", "contact_id": "42"}, "contact_id"},
		{"bad opportunity", map[string]any{"type": "call", "subject": "x", "opportunity_id": "?"}, "opportunity_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acts := &mockActivityService{}
			s := newTestServer(&Deps{Activities: acts})

			errResp := decodeToolError(t, callTool(t, context.Background(), s, "create_activity", tt.args))

			assert.Equal(t, "invalid_parameters", errResp.Code)
			assert.Equal(t, map[string]any{"field": tt.wantField}, errResp.Details)
			assert.Nil(t, acts.created, "nothing is written for malformed input")
		})
	}
}

func TestCreateActivity_ValidationFailure(t *testing.T) {
	acts := &mockActivityService{err: apperrors.NewValidationError("links", "activity must be linked to an enterprise, a contact or an opportunity")}
	s := newTestServer(&Deps{Activities: acts})

	resp := callTool(t, context.Background(), s, "create_activity", map[string]any{"type": "note", "subject": "Orphan"})

	errResp := decodeToolError(t, resp)
	assert.Equal(t, "validation_error", errResp.Code)
	assert.Equal(t, map[string]any{"field": "links"}, errResp.Details)
}

func TestCreateActivity_StoreFailure(t *testing.T) {
	acts := &mockActivityService{err: apperrors.WrapStore("create activity", errors.New("disk full"))}
	s := newTestServer(&Deps{Activities: acts})

	resp := callTool(t, context.Background(), s, "create_activity", map[string]any{
		"type":          "task",
		"subject":       "Send quote",
		"enterprise_id": uuid.New().String(),
	})

	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "disk full")
}
