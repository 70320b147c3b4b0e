package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

func statusNames() []string {
	names := make([]string, len(models.OpportunityStatuses))
	for i, s := range models.OpportunityStatuses {
		names[i] = string(s)
	}
	return names
}

func registerListOpportunitiesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_opportunities",
		mcp.WithDescription(
			"Lists opportunities with their enterprise name. Optionally filters by a case-insensitive "+
				"search on title or enterprise name and by status, and sorts by one column.",
		),
		mcp.WithString("search", mcp.Description("Optional - text matched against title and enterprise name")),
		mcp.WithString("status", mcp.Description("Optional - only opportunities in this status"), mcp.Enum(statusNames()...)),
		mcp.WithString("sort", mcp.Description("Optional - sort column"),
			mcp.Enum(rules.SortTitle, rules.SortEnterprise, rules.SortAmount, rules.SortStatus, rules.SortProbability, rules.SortExpectedCloseDate)),
		mcp.WithBoolean("desc", mcp.Description("Optional - sort descending")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cleanup, err := acquireScope(ctx, deps, "list_opportunities")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		q := rules.OpportunityQuery{
			ListQuery: rules.ListQuery{
				Search: strings.TrimSpace(req.GetString("search", "")),
				Sort:   req.GetString("sort", ""),
				Desc:   req.GetBool("desc", false),
			},
			Status: models.OpportunityStatus(req.GetString("status", "")),
		}

		list, err := deps.Opportunities.List(ctx, q)
		if err != nil {
			if result := serviceErrorResult(err, "opportunity"); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to list opportunities: %w", err)
		}
		return jsonResult(map[string]any{
			"opportunities": list,
			"count":         len(list),
		})
	})
}

func registerChangeOpportunityStatusTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"change_opportunity_status",
		mcp.WithDescription(
			"Moves an opportunity to another pipeline status. Moving to won or lost records today "+
				"as the actual close date; moving back to an open status clears it. "+
				"Returns the saved opportunity.",
		),
		mcp.WithString("opportunity_id", mcp.Required(), mcp.Description("UUID of the opportunity")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Target status"), mcp.Enum(statusNames()...)),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := req.RequireString("opportunity_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return invalidParameter("opportunity_id", "opportunity_id must be a UUID"), nil
		}
		status, err := req.RequireString("status")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		ctx, cleanup, err := acquireScope(ctx, deps, "change_opportunity_status")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		o, err := deps.Opportunities.ChangeStatus(ctx, id, models.OpportunityStatus(strings.TrimSpace(status)))
		if err != nil {
			if result := serviceErrorResult(err, "opportunity"); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to change opportunity status: %w", err)
		}

		deps.Logger.Debug("Changed opportunity status via MCP",
			zap.String("opportunity_id", o.ID.String()),
			zap.String("status", string(o.Status)))
		return jsonResult(o)
	})
}
