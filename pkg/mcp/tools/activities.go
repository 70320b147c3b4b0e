package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

const (
	defaultUpcomingLimit = 5
	maxUpcomingLimit     = 100
)

func registerListUpcomingActivitiesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_upcoming_activities",
		mcp.WithDescription(
			"Lists activities that are not done and are due today or later, soonest first. "+
				"Activities without a due date and overdue ones are not included.",
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Optional - maximum number of activities (default %d, max %d)", defaultUpcomingLimit, maxUpcomingLimit)),
			mcp.Min(1),
			mcp.Max(maxUpcomingLimit)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultUpcomingLimit)
		if limit < 1 || limit > maxUpcomingLimit {
			return invalidParameter("limit", fmt.Sprintf("limit must be between 1 and %d", maxUpcomingLimit)), nil
		}

		ctx, cleanup, err := acquireScope(ctx, deps, "list_upcoming_activities")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		acts, err := deps.Activities.Upcoming(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list upcoming activities: %w", err)
		}
		return jsonResult(map[string]any{
			"activities": acts,
			"count":      len(acts),
		})
	})
}

func activityTypeNames() []string {
	names := make([]string, len(models.ActivityTypes))
	for i, t := range models.ActivityTypes {
		names[i] = string(t)
	}
	return names
}

func registerCreateActivityTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"create_activity",
		mcp.WithDescription(
			"Creates an activity (call, email, meeting, note or task). The activity must be linked to "+
				"at least one of an enterprise, a contact or an opportunity. Returns the created activity.",
		),
		mcp.WithString("type", mcp.Required(), mcp.Description("Activity type"), mcp.Enum(activityTypeNames()...)),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Short subject line")),
		mcp.WithString("description", mcp.Description("Optional - free text")),
		mcp.WithString("due_date", mcp.Description("Optional - due date as YYYY-MM-DD")),
		mcp.WithString("enterprise_id", mcp.Description("Optional - UUID of the linked enterprise")),
		mcp.WithString("contact_id", mcp.Description("Optional - UUID of the linked contact")),
		mcp.WithString("opportunity_id", mcp.Description("Optional - UUID of the linked opportunity")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := &models.Activity{
			Type:        models.ActivityType(strings.TrimSpace(req.GetString("type", ""))),
			Subject:     req.GetString("subject", ""),
			Description: req.GetString("description", ""),
		}

		var bad *mcp.CallToolResult
		if a.DueDate, bad = optionalDate(req, "due_date"); bad != nil {
			return bad, nil
		}
		if a.EnterpriseID, bad = optionalUUID(req, "enterprise_id"); bad != nil {
			return bad, nil
		}
		if a.ContactID, bad = optionalUUID(req, "contact_id"); bad != nil {
			return bad, nil
		}
		if a.OpportunityID, bad = optionalUUID(req, "opportunity_id"); bad != nil {
			return bad, nil
		}

		ctx, cleanup, err := acquireScope(ctx, deps, "create_activity")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		if err := deps.Activities.Create(ctx, a); err != nil {
			if result := serviceErrorResult(err, "activity"); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to create activity: %w", err)
		}
		return jsonResult(a)
	})
}
