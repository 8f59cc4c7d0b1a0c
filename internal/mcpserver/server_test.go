package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"

	"pokedotduel/internal/dex"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/matchmaking"
	"pokedotduel/internal/session"
	"pokedotduel/internal/store"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServerTools(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	lobbies := lobby.NewManager(lobby.Options{Teams: dex.Default()})
	coord := session.NewCoordinator(session.Options{Repo: repo, Teams: dex.Default()})
	queue, err := matchmaking.New(lobbies, matchmaking.Options{})
	if err != nil {
		t.Fatalf("matchmaker: %v", err)
	}
	if _, err := lobbies.Create(ctx, lobby.CreateParams{CreatorID: "alice", BracketID: 1, WagerLamports: 20_000_000}); err != nil {
		t.Fatalf("create lobby: %v", err)
	}
	err = coord.StartBattle(ctx, lobby.StartIntent{
		BattleID:      "b-mcp",
		Seed:          "3",
		BracketID:     1,
		WagerLamports: 20_000_000,
		PlayerA:       "carol",
		PlayerB:       "dave",
		TeamA:         "dex:pikachu",
		TeamB:         "dex:squirtle",
	})
	if err != nil {
		t.Fatalf("start battle: %v", err)
	}

	srv := New(coord, queue, lobbies, repo)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	assertToolNames(t, mustListTools(t, mcpClient),
		"list_brackets",
		"queue_status",
		"list_open_lobbies",
		"list_live_battles",
		"get_battle",
		"get_transcript",
	)

	brackets := mapFromStructured(t, mustCallTool(t, mcpClient, "list_brackets", map[string]any{}))
	if n := len(brackets["items"].([]any)); n != len(matchmaking.DefaultBrackets) {
		t.Fatalf("expected %d brackets, got %d", len(matchmaking.DefaultBrackets), n)
	}

	status := mapFromStructured(t, mustCallTool(t, mcpClient, "queue_status", map[string]any{"wager_lamports": 2_000_000_000}))
	if status["bracket_name"] != "Diamond" || status["estimated_wait_seconds"] != float64(30) {
		t.Fatalf("unexpected queue status: %v", status)
	}
	if res := mustCallTool(t, mcpClient, "queue_status", map[string]any{"wager_lamports": 1}); !res.IsError {
		t.Fatalf("expected error for wager below every bracket")
	}

	lobbiesRes := mapFromStructured(t, mustCallTool(t, mcpClient, "list_open_lobbies", map[string]any{}))
	if lobbiesRes["total"] != float64(1) {
		t.Fatalf("unexpected lobbies: %v", lobbiesRes)
	}

	live := mapFromStructured(t, mustCallTool(t, mcpClient, "list_live_battles", map[string]any{}))
	if len(live["items"].([]any)) != 1 {
		t.Fatalf("unexpected live battles: %v", live)
	}

	got := mapFromStructured(t, mustCallTool(t, mcpClient, "get_battle", map[string]any{"battle_id": "b-mcp"}))
	if got["source"] != "live" {
		t.Fatalf("unexpected battle: %v", got)
	}
	if res := mustCallTool(t, mcpClient, "get_battle", map[string]any{"battle_id": "missing"}); !res.IsError {
		t.Fatalf("expected not_found for missing battle")
	}

	transcript := mapFromStructured(t, mustCallTool(t, mcpClient, "get_transcript", map[string]any{"battle_id": "b-mcp"}))
	if transcript["battle_id"] != "b-mcp" {
		t.Fatalf("unexpected transcript: %v", transcript)
	}
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %v", res.StructuredContent)
	}
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}
