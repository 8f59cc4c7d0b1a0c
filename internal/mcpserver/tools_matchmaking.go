package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerMatchmakingTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_brackets",
			mcp.WithDescription("List wager brackets in lamports"),
		),
		s.handleListBrackets,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"queue_status",
			mcp.WithDescription("Queue length and estimated wait per bracket"),
			mcp.WithNumber("bracket_id", mcp.Description("Optional bracket id")),
			mcp.WithNumber("wager_lamports", mcp.Description("Optional wager; resolves its bracket")),
		),
		s.handleQueueStatus,
	)
}

func (s *Server) handleListBrackets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"items": s.queue.Brackets()}), nil
}

func (s *Server) handleQueueStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bracketID := request.GetInt("bracket_id", 0)
	if wager := request.GetInt("wager_lamports", 0); wager > 0 {
		b, err := s.queue.BracketForWager(int64(wager))
		if err != nil {
			return mapDomainError(err), nil
		}
		bracketID = b.ID
	}
	if bracketID == 0 {
		return toolResult(map[string]any{"items": s.queue.Statuses()}), nil
	}
	st, err := s.queue.Status(bracketID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(st), nil
}
