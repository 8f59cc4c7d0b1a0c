package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pokedotduel/internal/lobby"
	"pokedotduel/internal/matchmaking"
	"pokedotduel/internal/session"
	"pokedotduel/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Battles interface {
	State(battleID string) (session.State, error)
	List() []session.State
}

type Queue interface {
	Brackets() []matchmaking.Bracket
	BracketForWager(wager int64) (matchmaking.Bracket, error)
	Status(bracketID int) (matchmaking.QueueStatus, error)
	Statuses() []matchmaking.QueueStatus
}

type Lobbies interface {
	OpenLobbies() []lobby.State
}

type History interface {
	GetBattle(ctx context.Context, battleID string) (store.Battle, error)
	ListTranscript(ctx context.Context, battleID string) ([]store.TranscriptEvent, error)
}

// Server exposes read-only battle and matchmaking views as MCP tools.
type Server struct {
	battles Battles
	queue   Queue
	lobbies Lobbies
	history History

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(battles Battles, queue Queue, lobbies Lobbies, history History) *Server {
	mcpSrv := server.NewMCPServer(
		"pokedotduel",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		battles:    battles,
		queue:      queue,
		lobbies:    lobbies,
		history:    history,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerMatchmakingTools()
	s.registerPublicTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"battle://{battle_id}/state",
			"battle_state",
			mcp.WithTemplateDescription("Live or recently ended battle state by battle id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := string(request.Params.URI)
			battleID := strings.TrimSuffix(strings.TrimPrefix(raw, "battle://"), "/state")
			if battleID == "" || battleID == raw {
				return nil, nil
			}
			st, err := s.battles.State(battleID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(st)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: raw, MIMEType: "application/json", Text: string(payload)},
			}, nil
		},
	)
}
