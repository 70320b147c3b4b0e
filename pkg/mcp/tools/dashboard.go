package tools

import (
	"context"
	"fmt"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func registerGetDashboardTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_dashboard",
		mcp.WithDescription(
			"Returns the CRM home page summary: enterprise and contact counts, open opportunity count, "+
				"the weighted pipeline value (amount times probability over open opportunities), "+
				"the number of upcoming activities and the next activities and most recent opportunities.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// The dashboard opens one scope per concurrent load itself.
		d, err := deps.Dashboard.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load dashboard: %w", err)
		}
		return jsonResult(d)
	})
}

// opportunityCard is the compact form of an opportunity on the board.
type opportunityCard struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	Enterprise        string      `json:"enterprise,omitempty"`
	Amount            *float64    `json:"amount,omitempty"`
	Probability       *int        `json:"probability,omitempty"`
	ExpectedCloseDate *civil.Date `json:"expected_close_date,omitempty"`
}

type pipelineColumn struct {
	Status        models.OpportunityStatus `json:"status"`
	Count         int                      `json:"count"`
	Total         decimal.Decimal          `json:"total"`
	Opportunities []opportunityCard        `json:"opportunities"`
}

func registerGetPipelineTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_pipeline",
		mcp.WithDescription(
			"Returns the pipeline board: one column per opportunity status in pipeline order "+
				"(prospecting, qualification, proposal, negotiation, won, lost), each with its count, "+
				"the sum of amounts and the opportunities in it. Empty columns are included.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cleanup, err := acquireScope(ctx, deps, "get_pipeline")
		if err != nil {
			return nil, err
		}
		defer cleanup()

		cols, err := deps.Pipeline.Columns(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load pipeline: %w", err)
		}

		out := make([]pipelineColumn, len(cols))
		for i, c := range cols {
			cards := make([]opportunityCard, len(c.Opportunities))
			for j := range c.Opportunities {
				cards[j] = toCard(&c.Opportunities[j])
			}
			out[i] = pipelineColumn{Status: c.Status, Count: c.Count, Total: c.Total, Opportunities: cards}
		}
		return jsonResult(map[string]any{"columns": out})
	})
}

func toCard(o *models.Opportunity) opportunityCard {
	return opportunityCard{
		ID:                o.ID,
		Title:             o.Title,
		Enterprise:        o.EnterpriseName,
		Amount:            o.Amount,
		Probability:       o.Probability,
		ExpectedCloseDate: o.ExpectedCloseDate,
	}
}
