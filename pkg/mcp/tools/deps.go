// Package tools provides the MCP tools of ekaya-crm.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/database"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// Deps holds what the CRM tools need. Scopes may be nil in tests, in which
// case tools run on the caller's context unchanged.
type Deps struct {
	Scopes        database.ScopeProvider
	Dashboard     services.DashboardService
	Pipeline      services.PipelineService
	Opportunities services.OpportunityService
	Activities    services.ActivityService
	Logger        *zap.Logger
}

// RegisterCRMTools registers every CRM tool except health.
func RegisterCRMTools(s *server.MCPServer, deps *Deps) {
	registerGetDashboardTool(s, deps)
	registerGetPipelineTool(s, deps)
	registerListOpportunitiesTool(s, deps)
	registerChangeOpportunityStatusTool(s, deps)
	registerListUpcomingActivitiesTool(s, deps)
	registerCreateActivityTool(s, deps)
}

// acquireScope binds a database connection for the acting user to ctx.
// The cleanup function must always be called.
func acquireScope(ctx context.Context, deps *Deps, toolName string) (context.Context, func(), error) {
	if deps.Scopes == nil {
		return ctx, func() {}, nil
	}
	userID, _ := auth.GetUserID(ctx)
	scoped, cleanup, err := deps.Scopes.WithScope(ctx, userID)
	if err != nil {
		deps.Logger.Error("Failed to acquire scope for MCP tool",
			zap.String("tool", toolName),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to acquire database scope: %w", err)
	}
	return scoped, cleanup, nil
}

// jsonResult marshals v as the text content of a successful result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func invalidParameter(field, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails("invalid_parameters", message, map[string]any{"field": field})
}

// optionalUUID reads a UUID argument. An absent or blank argument yields nil.
func optionalUUID(req mcp.CallToolRequest, name string) (*uuid.UUID, *mcp.CallToolResult) {
	raw := strings.TrimSpace(req.GetString(name, ""))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidParameter(name, fmt.Sprintf("%s must be a UUID", name))
	}
	return &id, nil
}

// optionalDate reads a YYYY-MM-DD argument. An absent or blank argument
// yields nil.
func optionalDate(req mcp.CallToolRequest, name string) (*civil.Date, *mcp.CallToolResult) {
	raw := strings.TrimSpace(req.GetString(name, ""))
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, invalidParameter(name, fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", name))
	}
	return &d, nil
}
