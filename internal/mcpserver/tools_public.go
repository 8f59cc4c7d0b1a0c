package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_open_lobbies",
			mcp.WithDescription("List joinable lobbies with pagination"),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 500")),
			mcp.WithNumber("offset", mcp.Description("Page offset, default 0")),
		),
		s.handleListOpenLobbies,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_live_battles",
			mcp.WithDescription("List battles currently in progress"),
		),
		s.handleListLiveBattles,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_battle",
			mcp.WithDescription("Get battle state by id, live or persisted"),
			mcp.WithString("battle_id", mcp.Required(), mcp.Description("Battle id")),
		),
		s.handleGetBattle,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_transcript",
			mcp.WithDescription("Get the persisted turn events of a battle"),
			mcp.WithString("battle_id", mcp.Required(), mcp.Description("Battle id")),
		),
		s.handleGetTranscript,
	)
}

func (s *Server) handleListOpenLobbies(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, offset := clampPagination(request.GetInt("limit", defaultPageLimit), request.GetInt("offset", 0), maxPageLimit)
	open := s.lobbies.OpenLobbies()
	return toolResult(map[string]any{"items": page(open, limit, offset), "total": len(open)}), nil
}

func (s *Server) handleListLiveBattles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"items": s.battles.List()}), nil
}

func (s *Server) handleGetBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	battleID, err := request.RequireString("battle_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if st, err := s.battles.State(battleID); err == nil {
		return toolResult(map[string]any{"source": "live", "battle": st}), nil
	}
	b, err := s.history.GetBattle(ctx, battleID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"source": "store", "battle": b}), nil
}

func (s *Server) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	battleID, err := request.RequireString("battle_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if _, err := s.history.GetBattle(ctx, battleID); err != nil {
		return mapDomainError(err), nil
	}
	items, err := s.history.ListTranscript(ctx, battleID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"battle_id": battleID, "items": items}), nil
}
