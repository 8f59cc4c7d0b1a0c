package ws

import (
	"sync"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/session"

	"github.com/rs/zerolog/log"
)

func lobbyRoom(id string) string  { return "lobby:" + id }
func battleRoom(id string) string { return "battle:" + id }

// Hub tracks live connections per user and room membership per user id.
// Rooms survive reconnects because they hold user ids, not connections.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Client]struct{}
	rooms   map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
		rooms:   map[string]map[string]struct{}{},
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = map[*Client]struct{}{}
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metricConnectionsNow.Add(1)
}

// unregister drops the connection and reports whether it was the user's last.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	metricConnectionsNow.Add(-1)
	if len(set) > 0 {
		return false
	}
	delete(h.clients, c.userID)
	return true
}

func (h *Hub) Online(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) Join(room string, userIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = map[string]struct{}{}
		h.rooms[room] = members
	}
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
}

func (h *Hub) Leave(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[room]
	delete(members, userID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) clearRoom(room string) {
	h.mu.Lock()
	delete(h.rooms, room)
	h.mu.Unlock()
}

// targets snapshots the connections to deliver to so sends happen outside
// the hub lock.
func (h *Hub) targets(userIDs []string) []*Client {
	var out []*Client
	for _, id := range userIDs {
		for c := range h.clients[id] {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) Publish(room string, m ServerMessage) {
	b, err := EncodeServerMessage(m)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("ws encode failed")
		return
	}
	h.mu.Lock()
	ids := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		ids = append(ids, id)
	}
	clients := h.targets(ids)
	h.mu.Unlock()
	for _, c := range clients {
		c.Send(b)
	}
	metricMessagesOutTotal.Add(int64(len(clients)))
}

// SendTo delivers to every connection of one user.
func (h *Hub) SendTo(userID string, m ServerMessage) {
	b, err := EncodeServerMessage(m)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("ws encode failed")
		return
	}
	h.mu.Lock()
	clients := h.targets([]string{userID})
	h.mu.Unlock()
	for _, c := range clients {
		c.Send(b)
	}
	metricMessagesOutTotal.Add(int64(len(clients)))
}

// LobbyState implements lobby.Broadcaster.
func (h *Hub) LobbyState(st lobby.State) {
	room := lobbyRoom(st.ID)
	h.Join(room, st.Participants()...)
	h.Publish(room, LobbyStateMessage{State: st})
	if st.Status.Terminal() {
		h.clearRoom(room)
	}
}

func (h *Hub) MatchFound(userID, lobbyID string) {
	h.Join(lobbyRoom(lobbyID), userID)
	h.SendTo(userID, MatchFoundMessage{LobbyID: lobbyID})
}

// BattleStart implements session.Broadcaster.
func (h *Hub) BattleStart(battleID string, players [2]string, seed string) {
	room := battleRoom(battleID)
	h.Join(room, players[0], players[1])
	h.Publish(room, BattleStartMessage{BattleID: battleID, Seed: seed, Players: players})
}

func (h *Hub) TurnResult(battleID string, turn int, events []battle.Event) {
	h.Publish(battleRoom(battleID), TurnResultMessage{BattleID: battleID, Turn: turn, Events: events})
}

func (h *Hub) BattleEnd(battleID, winner, reason string) {
	room := battleRoom(battleID)
	h.Publish(room, BattleEndMessage{BattleID: battleID, Winner: winner, Reason: reason})
	h.clearRoom(room)
}

func (h *Hub) BattleState(userID string, st session.State) {
	if st.Status == session.StatusActive {
		h.Join(battleRoom(st.BattleID), userID)
	}
	h.SendTo(userID, BattleStateMessage{State: st})
}

func (h *Hub) ActionRejected(battleID, userID string, err error) {
	code, msg := session.MapError(err)
	log.Info().
		Str("battle_id", battleID).
		Str("user_id", userID).
		Str("code", code).
		Msg("queued action rejected at resolve")
	h.SendTo(userID, ErrorMessage{Code: code, Message: msg})
}

var (
	_ lobby.Broadcaster   = (*Hub)(nil)
	_ session.Broadcaster = (*Hub)(nil)
)
