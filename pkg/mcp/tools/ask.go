// Package tools provides MCP tool implementations for finlens-engine.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/finlens/finlens-engine/pkg/services"
)

type askResult struct {
	Response   string `json:"response"`
	Queries    int    `json:"queries,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	QuickMatch bool   `json:"quick_match,omitempty"`
}

// RegisterAskTool adds the ask_financials tool to the MCP server. It
// runs the same pipeline as POST /api/ask.
func RegisterAskTool(s *server.MCPServer, engine *services.Engine) {
	tool := mcp.NewTool(
		"ask_financials",
		mcp.WithDescription("Answers a natural-language question about the company's financial data (revenue, expenses, receivables, payables, payroll)"),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. \"what was our revenue by month this year?\""),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answer, err := engine.Ask(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to answer question: %v", err)), nil
		}

		result, err := json.Marshal(askResult{
			Response:   answer.Response,
			Queries:    answer.Meta.Queries,
			DurationMS: answer.Meta.DurationMS,
			QuickMatch: answer.Meta.QuickMatch,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ask result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
