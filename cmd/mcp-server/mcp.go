package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/florisdf/mathsteps"
)

// newMCPServer exposes the main tools over the Model Context Protocol.
func (s *server) newMCPServer() *mcpserver.MCPServer {
	m := mcpserver.NewMCPServer("mathsteps-mcp", mathsteps.Version, mcpserver.WithToolCapabilities(false))

	m.AddTool(mcp.NewTool("isolate_common_factors",
		mcp.WithDescription("Pull the factors shared by every term of a sum out in front of it. Returns the result and every rewrite step."),
		mcp.WithString("expr", mcp.Required(), mcp.Description("Expression, e.g. 2*x + 4*x^2")),
	), s.toolHandler("isolate_common_factors"))

	m.AddTool(mcp.NewTool("prime_factors",
		mcp.WithDescription("Prime factors of an integer, -1 first when negative."),
		mcp.WithNumber("n", mcp.Required(), mcp.Description("The integer to factor")),
	), s.toolHandler("prime_factors"))

	m.AddTool(mcp.NewTool("divide",
		mcp.WithDescription("Divide every term of an expression by a product of factors it contains."),
		mcp.WithString("expr", mcp.Required(), mcp.Description("Dividend, e.g. x*y + x")),
		mcp.WithString("divisor", mcp.Required(), mcp.Description("Divisor, e.g. x")),
	), s.toolHandler("divide"))

	return m
}

// toolHandler forwards an MCP call to the toolbox under the same name.
func (s *server) toolHandler(tool string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		resp := s.tools.HandleToolCall(mathsteps.ToolRequest{Tool: tool, Params: request.GetArguments()})
		s.metrics.ObserveTool(tool, resp.Error != "", time.Since(start))
		if resp.Error != "" {
			s.log.Info("mcp tool call failed", zap.String("tool", tool), zap.String("tool_error", resp.Error))
			return mcp.NewToolResultError(resp.Error), nil
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}
