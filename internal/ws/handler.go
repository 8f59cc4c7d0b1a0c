package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pokedotduel/internal/auth"
	"pokedotduel/internal/battle"
	"pokedotduel/internal/bot"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/matchmaking"
	"pokedotduel/internal/session"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const maxFrameBytes = 64 << 10

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type LobbyService interface {
	Create(ctx context.Context, p lobby.CreateParams) (lobby.State, error)
	CreateBotLobby(ctx context.Context, userID string, bracketID int, wager int64, difficulty bot.Difficulty) (lobby.State, error)
	Join(ctx context.Context, lobbyID, userID string) (lobby.State, error)
	JoinByInviteCode(ctx context.Context, code, userID string) (lobby.State, error)
	SelectTeam(ctx context.Context, userID, teamID string) (lobby.State, error)
	Ready(ctx context.Context, userID string) (lobby.State, error)
	Leave(ctx context.Context, userID string) (lobby.State, error)
	Disconnect(ctx context.Context, userID string)
	Reconnect(userID string) (lobby.State, bool)
	LobbyOf(userID string) (lobby.State, bool)
}

type BattleService interface {
	SubmitTurn(ctx context.Context, battleID, userID string, turn int, action battle.Action) error
	Forfeit(ctx context.Context, battleID, userID string) error
	BattleOf(userID string) (string, bool)
	Disconnect(userID string) bool
	Reconnect(userID string) (session.State, bool)
}

type QueueService interface {
	BracketForWager(wager int64) (matchmaking.Bracket, error)
	Enqueue(lobbyID string, bracketID int) error
	Remove(lobbyID string) bool
	Touch(lobbyID string) bool
	Position(lobbyID string) (bracketID, position int, ok bool)
	Status(bracketID int) (matchmaking.QueueStatus, error)
}

// QueueStatusData is the MATCHMAKING_STATUS payload.
type QueueStatusData struct {
	LobbyID  string                  `json:"lobby_id,omitempty"`
	Queued   bool                    `json:"queued"`
	Position int                     `json:"position,omitempty"`
	Queue    matchmaking.QueueStatus `json:"queue"`
}

type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	lobbies  LobbyService
	battles  BattleService
	queue    QueueService
}

func NewHandler(hub *Hub, verifier TokenVerifier, lobbies LobbyService, battles BattleService, queue QueueService) *Handler {
	return &Handler{hub: hub, verifier: verifier, lobbies: lobbies, battles: battles, queue: queue}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.Verify(auth.TokenFromRequest(r))
	if err != nil {
		metricAuthFailuresTotal.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": err.Error()})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("ws accept failed")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameBytes)

	// Disconnect cleanup runs after the peer is gone and must not inherit the
	// request's cancellation.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := newClient(userID, conn)
	h.hub.register(c)
	metricConnectsTotal.Add(1)
	go c.writeLoop(ctx)

	log.Info().Str("user_id", userID).Msg("ws connected")
	c.SendMessage(AuthenticatedMessage{UserID: userID})
	h.restore(c)

	h.readLoop(ctx, c)

	c.close()
	if h.hub.unregister(c) {
		h.disconnect(ctx, userID)
	}
	log.Info().Str("user_id", userID).Msg("ws disconnected")
}

// restore re-attaches a reconnecting user to the lobby and battle they
// still hold.
func (h *Handler) restore(c *Client) {
	if st, ok := h.lobbies.Reconnect(c.userID); ok {
		h.queue.Touch(st.ID)
	}
	h.battles.Reconnect(c.userID)
}

func (h *Handler) disconnect(ctx context.Context, userID string) {
	prev, inLobby := h.lobbies.LobbyOf(userID)
	h.lobbies.Disconnect(ctx, userID)
	if inLobby {
		if st, still := h.lobbies.LobbyOf(userID); !still || st.ID != prev.ID {
			h.queue.Remove(prev.ID)
		}
	}
	h.battles.Disconnect(userID)
}

func (h *Handler) readLoop(ctx context.Context, c *Client) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		metricMessagesInTotal.Add(1)
		if typ != websocket.MessageText {
			h.sendError(c, &ValidationError{Code: "BAD_MESSAGE", Message: "text frames only"})
			continue
		}
		msg, err := DecodeClientMessage(data)
		if err != nil {
			h.sendError(c, err)
			continue
		}
		if err := h.dispatch(ctx, c, msg); err != nil {
			h.sendError(c, err)
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, c *Client, msg ClientMessage) error {
	user := c.userID
	if st, ok := h.lobbies.LobbyOf(user); ok {
		h.queue.Touch(st.ID)
	}
	switch m := msg.(type) {
	case *CreateLobby:
		return h.createLobby(ctx, user, m)
	case *JoinLobby:
		_, err := h.lobbies.Join(ctx, m.LobbyID, user)
		return err
	case *InviteAccept:
		_, err := h.lobbies.Join(ctx, m.LobbyID, user)
		return err
	case *JoinByCode:
		_, err := h.lobbies.JoinByInviteCode(ctx, m.InviteCode, user)
		return err
	case *SelectTeam:
		_, err := h.lobbies.SelectTeam(ctx, user, m.TeamID)
		return err
	case *Ready:
		_, err := h.lobbies.Ready(ctx, user)
		return err
	case *LeaveLobby:
		return h.leaveLobby(ctx, user)
	case *QueueJoin:
		return h.queueJoin(ctx, c, m)
	case *QueueLeave:
		return h.queueLeave(ctx, c)
	case *TurnAction:
		battleID, ok := h.battles.BattleOf(user)
		if !ok {
			return session.ErrBattleNotFound
		}
		action, err := m.BattleAction()
		if err != nil {
			return err
		}
		return h.battles.SubmitTurn(ctx, battleID, user, m.Turn, action)
	case *Forfeit:
		battleID, ok := h.battles.BattleOf(user)
		if !ok {
			return session.ErrBattleNotFound
		}
		return h.battles.Forfeit(ctx, battleID, user)
	case *Chat:
		return h.chat(user, m)
	}
	return &ValidationError{Code: "UNKNOWN_MESSAGE", Message: "unsupported message"}
}

func (h *Handler) createLobby(ctx context.Context, user string, m *CreateLobby) error {
	typ, err := lobby.ParseType(m.LobbyType)
	if err != nil {
		return err
	}
	if m.WagerLamports <= 0 {
		return lobby.ErrInvalidWager
	}
	bracket, err := h.queue.BracketForWager(m.WagerLamports)
	if err != nil {
		return err
	}
	switch typ {
	case lobby.TypeVsBot:
		difficulty, err := bot.ParseDifficulty(m.Difficulty)
		if err != nil {
			return &ValidationError{Code: "BAD_MESSAGE", Message: err.Error()}
		}
		_, err = h.lobbies.CreateBotLobby(ctx, user, bracket.ID, m.WagerLamports, difficulty)
		return err
	case lobby.TypeQuickMatch:
		return h.enqueueNew(ctx, user, bracket, m.WagerLamports)
	default:
		_, err = h.lobbies.Create(ctx, lobby.CreateParams{
			CreatorID:     user,
			BracketID:     bracket.ID,
			WagerLamports: m.WagerLamports,
			Type:          typ,
		})
		return err
	}
}

func (h *Handler) leaveLobby(ctx context.Context, user string) error {
	st, err := h.lobbies.Leave(ctx, user)
	if err != nil {
		return err
	}
	h.hub.Leave(lobbyRoom(st.ID), user)
	if st.Status.Terminal() {
		h.queue.Remove(st.ID)
	}
	return nil
}

func (h *Handler) queueJoin(ctx context.Context, c *Client, m *QueueJoin) error {
	if m.WagerLamports <= 0 {
		return lobby.ErrInvalidWager
	}
	bracket, err := h.queue.BracketForWager(m.WagerLamports)
	if err != nil {
		return err
	}
	if err := h.enqueueNew(ctx, c.userID, bracket, m.WagerLamports); err != nil {
		return err
	}
	h.sendQueueStatus(c)
	return nil
}

// enqueueNew creates a QUICK_MATCH lobby and puts it in the bracket queue.
func (h *Handler) enqueueNew(ctx context.Context, user string, bracket matchmaking.Bracket, wager int64) error {
	st, err := h.lobbies.Create(ctx, lobby.CreateParams{
		CreatorID:     user,
		BracketID:     bracket.ID,
		WagerLamports: wager,
		Type:          lobby.TypeQuickMatch,
	})
	if err != nil {
		return err
	}
	if err := h.queue.Enqueue(st.ID, bracket.ID); err != nil {
		_, _ = h.lobbies.Leave(ctx, user)
		return err
	}
	return nil
}

func (h *Handler) queueLeave(ctx context.Context, c *Client) error {
	st, ok := h.lobbies.LobbyOf(c.userID)
	if !ok || st.Type != lobby.TypeQuickMatch {
		return lobby.ErrNotInLobby
	}
	h.queue.Remove(st.ID)
	if err := h.leaveLobby(ctx, c.userID); err != nil {
		return err
	}
	queue, _ := h.queue.Status(st.BracketID)
	c.SendMessage(MatchmakingStatusMessage{Data: QueueStatusData{Queue: queue}})
	return nil
}

func (h *Handler) sendQueueStatus(c *Client) {
	st, ok := h.lobbies.LobbyOf(c.userID)
	if !ok {
		return
	}
	data := QueueStatusData{LobbyID: st.ID}
	if bracketID, pos, queued := h.queue.Position(st.ID); queued {
		data.Queued = true
		data.Position = pos
		data.Queue, _ = h.queue.Status(bracketID)
	} else {
		data.Queue, _ = h.queue.Status(st.BracketID)
	}
	c.SendMessage(MatchmakingStatusMessage{Data: data})
}

func (h *Handler) chat(user string, m *Chat) error {
	out := ChatMessage{From: user, Text: m.Text}
	if battleID, ok := h.battles.BattleOf(user); ok {
		h.hub.Publish(battleRoom(battleID), out)
		return nil
	}
	if st, ok := h.lobbies.LobbyOf(user); ok {
		h.hub.Publish(lobbyRoom(st.ID), out)
		return nil
	}
	return lobby.ErrNotInLobby
}

func (h *Handler) sendError(c *Client, err error) {
	code, msg := errorCode(err)
	metricClientErrorsTotal.Add(1)
	if code == "INTERNAL_ERROR" {
		log.Error().Err(err).Str("user_id", c.userID).Msg("ws request failed")
	} else {
		log.Debug().Err(err).Str("user_id", c.userID).Str("code", code).Msg("ws request rejected")
	}
	c.SendMessage(ErrorMessage{Code: code, Message: msg})
}

// errorCode maps any handler error to the client-facing code and message.
func errorCode(err error) (string, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code, verr.Message
	}
	if code, msg := session.MapError(err); code != "INTERNAL_ERROR" {
		return code, msg
	}
	if code, msg := lobby.MapError(err); code != "INTERNAL_ERROR" {
		return code, msg
	}
	switch {
	case errors.Is(err, matchmaking.ErrNoBracket):
		return "INVALID_WAGER", "no bracket covers this wager"
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		return "ALREADY_QUEUED", "already waiting in another bracket"
	case errors.Is(err, matchmaking.ErrUnknownBracket):
		return "INVALID_WAGER", "unknown bracket"
	}
	return "INTERNAL_ERROR", "internal error"
}
