package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-crm/pkg/metrics"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/pipeline"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect or change the opportunity pipeline",
}

var pipelineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every opportunity grouped by status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd, func(ctx context.Context, board *pipeline.Board) error {
			renderBoard(cmd.OutOrStdout(), board.Columns())
			return nil
		})
	},
}

var pipelineMoveCmd = &cobra.Command{
	Use:   "move <opportunity-id> <status>",
	Short: "Move an opportunity to another status column",
	Long: `Move an opportunity to another status column. Moving to won or lost sets
the actual close date to today; moving back to an open status clears it.

status is one of: ` + statusNames() + `.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, status, err := parseMoveArgs(args)
		if err != nil {
			return err
		}
		return withBoard(cmd, func(ctx context.Context, board *pipeline.Board) error {
			if err := board.Move(ctx, id, status); err != nil {
				return fmt.Errorf("failed to move %s to %s: %w", id, status, err)
			}
			renderBoard(cmd.OutOrStdout(), board.Columns())
			return nil
		})
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineShowCmd, pipelineMoveCmd)
}

func parseMoveArgs(args []string) (uuid.UUID, models.OpportunityStatus, error) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid opportunity id %q", args[0])
	}
	status := models.OpportunityStatus(strings.ToLower(strings.TrimSpace(args[1])))
	if !status.IsValid() {
		return uuid.Nil, "", fmt.Errorf("unknown status %q, want one of %s", args[1], statusNames())
	}
	return id, status, nil
}

func statusNames() string {
	names := make([]string, len(models.OpportunityStatuses))
	for i, s := range models.OpportunityStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// withBoard loads a board inside a database scope and hands it to fn.
func withBoard(cmd *cobra.Command, fn func(ctx context.Context, board *pipeline.Board) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.scoped(ctx, func(ctx context.Context) error {
		// a.opportunities already counts the writes; the board adds the no-op moves.
		board := pipeline.NewBoard(a.opportunities, a.clock, noopMoves{a.metrics}, logger)
		defer board.Close()

		if err := board.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, board)
	})
}

// noopMoves forwards only no-op outcomes, since applied and failed moves are
// counted by the service the board writes through.
type noopMoves struct{ m *metrics.Metrics }

func (n noopMoves) RecordMove(result string) {
	if result == metrics.MoveNoop {
		n.m.RecordMove(result)
	}
}

var (
	columnStyle = lipgloss.NewStyle().Bold(true)
	totalStyle  = lipgloss.NewStyle().Faint(true)
	titleStyle  = lipgloss.NewStyle().Width(32)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func renderBoard(w io.Writer, cols []rules.PipelineColumn) {
	var sb strings.Builder
	for i, col := range cols {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(columnStyle.Render(strings.ToUpper(string(col.Status))))
		sb.WriteString(" ")
		sb.WriteString(totalStyle.Render(fmt.Sprintf("(%d, %s)", col.Count, col.Total.StringFixed(2))))
		sb.WriteString("\n")

		if len(col.Opportunities) == 0 {
			sb.WriteString(mutedStyle.Render("  no opportunities"))
			sb.WriteString("\n")
			continue
		}
		for _, o := range col.Opportunities {
			sb.WriteString("  ")
			sb.WriteString(titleStyle.Render(o.Title))
			sb.WriteString(" ")
			sb.WriteString(cardDetails(o))
			sb.WriteString("\n")
		}
	}
	_, _ = io.WriteString(w, sb.String())
}

func cardDetails(o models.Opportunity) string {
	var parts []string
	if o.EnterpriseName != "" {
		parts = append(parts, o.EnterpriseName)
	}
	if o.Amount != nil {
		parts = append(parts, strconv.FormatFloat(*o.Amount, 'f', 2, 64))
	}
	if o.Probability != nil {
		parts = append(parts, strconv.Itoa(*o.Probability)+"%")
	}
	if o.ExpectedCloseDate != nil {
		parts = append(parts, "closes "+o.ExpectedCloseDate.String())
	}
	if o.ActualCloseDate != nil {
		parts = append(parts, "closed "+o.ActualCloseDate.String())
	}
	parts = append(parts, o.ID.String())
	return mutedStyle.Render(strings.Join(parts, " · "))
}
