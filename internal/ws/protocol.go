package ws

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/session"
)

// ValidationError is reported to the client as ERROR{code, message} and
// leaves server state untouched.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return strings.ToLower(e.Code) + ": " + e.Message
}

const maxChatLength = 500

// ClientMessage is the closed set of messages a client may send.
type ClientMessage interface {
	clientMessage()
}

type JoinLobby struct {
	LobbyID string `json:"lobbyId"`
}

type InviteAccept struct {
	LobbyID string `json:"lobbyId"`
}

type SelectTeam struct {
	TeamID string `json:"teamId"`
}

type Ready struct{}

type TurnMove struct {
	Slot   int    `json:"slot"`
	Action string `json:"action"`
	MoveID string `json:"moveId,omitempty"`
	Target *int   `json:"target,omitempty"`
}

// TurnAction carries one side's action. Commit and Reveal are accepted for
// protocol compatibility and ignored.
type TurnAction struct {
	Turn   int      `json:"turn"`
	Move   TurnMove `json:"move"`
	Commit string   `json:"commit,omitempty"`
	Reveal string   `json:"reveal,omitempty"`
}

type Forfeit struct{}

type CreateLobby struct {
	WagerLamports int64  `json:"wagerLamports"`
	LobbyType     string `json:"lobbyType"`
	Difficulty    string `json:"difficulty,omitempty"`
}

type JoinByCode struct {
	InviteCode string `json:"inviteCode"`
}

type LeaveLobby struct{}

type QueueJoin struct {
	WagerLamports int64 `json:"wagerLamports"`
}

type QueueLeave struct{}

type Chat struct {
	Text string `json:"text"`
}

func (*JoinLobby) clientMessage()    {}
func (*InviteAccept) clientMessage() {}
func (*SelectTeam) clientMessage()   {}
func (*Ready) clientMessage()        {}
func (*TurnAction) clientMessage()   {}
func (*Forfeit) clientMessage()      {}
func (*CreateLobby) clientMessage()  {}
func (*JoinByCode) clientMessage()   {}
func (*LeaveLobby) clientMessage()   {}
func (*QueueJoin) clientMessage()    {}
func (*QueueLeave) clientMessage()   {}
func (*Chat) clientMessage()         {}

func newClientMessage(typ string) (ClientMessage, bool) {
	switch typ {
	case "JOIN_LOBBY":
		return &JoinLobby{}, true
	case "INVITE_ACCEPT":
		return &InviteAccept{}, true
	case "SELECT_TEAM":
		return &SelectTeam{}, true
	case "READY":
		return &Ready{}, true
	case "TURN_ACTION":
		return &TurnAction{}, true
	case "FORFEIT":
		return &Forfeit{}, true
	case "CREATE_LOBBY":
		return &CreateLobby{}, true
	case "JOIN_BY_CODE":
		return &JoinByCode{}, true
	case "LEAVE_LOBBY":
		return &LeaveLobby{}, true
	case "QUEUE_JOIN":
		return &QueueJoin{}, true
	case "QUEUE_LEAVE":
		return &QueueLeave{}, true
	case "CHAT":
		return &Chat{}, true
	default:
		return nil, false
	}
}

// DecodeClientMessage maps the type tag of a JSON frame to its variant.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ValidationError{Code: "BAD_MESSAGE", Message: "message is not a JSON object"}
	}
	msg, ok := newClientMessage(env.Type)
	if !ok {
		return nil, &ValidationError{Code: "UNKNOWN_MESSAGE", Message: fmt.Sprintf("unknown message type %q", env.Type)}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, &ValidationError{Code: "BAD_MESSAGE", Message: "invalid " + env.Type + " payload"}
	}
	if err := validate(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func validate(msg ClientMessage) error {
	missing := func(field string) error {
		return &ValidationError{Code: "BAD_MESSAGE", Message: field + " is required"}
	}
	switch m := msg.(type) {
	case *JoinLobby:
		if m.LobbyID == "" {
			return missing("lobbyId")
		}
	case *InviteAccept:
		if m.LobbyID == "" {
			return missing("lobbyId")
		}
	case *SelectTeam:
		if m.TeamID == "" {
			return missing("teamId")
		}
	case *JoinByCode:
		if m.InviteCode == "" {
			return missing("inviteCode")
		}
	case *TurnAction:
		if m.Turn < 1 {
			return missing("turn")
		}
		if _, err := m.BattleAction(); err != nil {
			return err
		}
	case *Chat:
		m.Text = strings.TrimSpace(m.Text)
		if m.Text == "" {
			return missing("text")
		}
		if len(m.Text) > maxChatLength {
			return &ValidationError{Code: "BAD_MESSAGE", Message: "text exceeds " + strconv.Itoa(maxChatLength) + " bytes"}
		}
	}
	return nil
}

// BattleAction converts the wire move into an engine action.
func (m *TurnAction) BattleAction() (battle.Action, error) {
	switch battle.ActionKind(strings.ToUpper(m.Move.Action)) {
	case battle.ActionMove:
		if m.Move.MoveID == "" {
			return battle.Action{}, &ValidationError{Code: "BAD_MESSAGE", Message: "moveId is required for MOVE"}
		}
		return battle.Action{Kind: battle.ActionMove, MoveID: m.Move.MoveID}, nil
	case battle.ActionSwitch:
		if m.Move.Target == nil {
			return battle.Action{}, &ValidationError{Code: "BAD_MESSAGE", Message: "target is required for SWITCH"}
		}
		return battle.Action{Kind: battle.ActionSwitch, Switch: *m.Move.Target}, nil
	default:
		return battle.Action{}, &ValidationError{Code: "INVALID_ACTION", Message: fmt.Sprintf("unknown action %q", m.Move.Action)}
	}
}

// ServerMessage is the closed set of messages the server sends.
type ServerMessage interface {
	serverType() string
}

type LobbyStateMessage struct {
	State lobby.State `json:"state"`
}

type BattleStartMessage struct {
	BattleID string    `json:"battleId"`
	Seed     string    `json:"seed"`
	Players  [2]string `json:"players"`
}

type TurnResultMessage struct {
	BattleID string         `json:"battleId"`
	Turn     int            `json:"turn"`
	Events   []battle.Event `json:"events"`
}

type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type BattleEndMessage struct {
	BattleID string `json:"battleId"`
	Winner   string `json:"winner"`
	Reason   string `json:"reason"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MatchFoundMessage struct {
	LobbyID string `json:"lobbyId"`
}

type MatchmakingStatusMessage struct {
	Data any `json:"data"`
}

type BattleStateMessage struct {
	State session.State `json:"state"`
}

type AuthenticatedMessage struct {
	UserID string `json:"userId"`
}

func (LobbyStateMessage) serverType() string        { return "LOBBY_STATE" }
func (BattleStartMessage) serverType() string       { return "BATTLE_START" }
func (TurnResultMessage) serverType() string        { return "TURN_RESULT" }
func (ChatMessage) serverType() string              { return "CHAT" }
func (BattleEndMessage) serverType() string         { return "BATTLE_END" }
func (ErrorMessage) serverType() string             { return "ERROR" }
func (MatchFoundMessage) serverType() string        { return "MATCH_FOUND" }
func (MatchmakingStatusMessage) serverType() string { return "MATCHMAKING_STATUS" }
func (BattleStateMessage) serverType() string       { return "BATTLE_STATE" }
func (AuthenticatedMessage) serverType() string     { return "AUTHENTICATED" }

// EncodeServerMessage flattens the message fields next to its type tag.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(m.serverType())
	fields["type"] = tag
	return json.Marshal(fields)
}
