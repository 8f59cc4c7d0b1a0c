package lobby

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pokedotduel/internal/battle"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusFull       Status = "FULL"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

type Type string

const (
	TypeNormal     Type = "NORMAL"
	TypeQuickMatch Type = "QUICK_MATCH"
	TypeVsBot      Type = "VS_BOT"
)

func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TypeNormal:
		return TypeNormal, nil
	case TypeQuickMatch:
		return TypeQuickMatch, nil
	case TypeVsBot:
		return TypeVsBot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLobbyType, s)
	}
}

const (
	ReasonCreatorLeft  = "creator_left"
	ReasonDisconnected = "disconnected"
	ReasonMerged       = "merged"
	ReasonQueueTimeout = "queue_timeout"
	ReasonBattleEnded  = "battle_ended"
)

type ParticipantState struct {
	UserID    string `json:"user_id"`
	TeamID    string `json:"team_id,omitempty"`
	TeamSize  int    `json:"team_size,omitempty"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	IsBot     bool   `json:"is_bot,omitempty"`
}

// State is an immutable snapshot of a lobby. Version grows with every
// transition so receivers can drop stale snapshots.
type State struct {
	ID            string            `json:"id"`
	Version       int64             `json:"version"`
	BracketID     int               `json:"bracket_id"`
	Type          Type              `json:"type"`
	Status        Status            `json:"status"`
	WagerLamports int64             `json:"wager_lamports"`
	InviteCode    string            `json:"invite_code,omitempty"`
	Creator       ParticipantState  `json:"creator"`
	Opponent      *ParticipantState `json:"opponent,omitempty"`
	BotDifficulty string            `json:"bot_difficulty,omitempty"`
	BattleID      string            `json:"battle_id,omitempty"`
	CloseReason   string            `json:"close_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (s State) OpponentID() string {
	if s.Opponent == nil {
		return ""
	}
	return s.Opponent.UserID
}

// Participants lists the user ids in the lobby, creator first.
func (s State) Participants() []string {
	out := []string{s.Creator.UserID}
	if s.Opponent != nil {
		out = append(out, s.Opponent.UserID)
	}
	return out
}

// StartIntent asks the battle layer to start a battle for a lobby. Side A is
// always the lobby creator.
type StartIntent struct {
	LobbyID       string
	BattleID      string
	Seed          string
	BracketID     int
	WagerLamports int64
	PlayerA       string
	PlayerB       string
	TeamA         string
	TeamB         string
	BotDifficulty string
}

type Broadcaster interface {
	LobbyState(st State)
	MatchFound(userID, lobbyID string)
}

type BattleStarter interface {
	StartBattle(ctx context.Context, intent StartIntent) error
}

type Archiver interface {
	ArchiveLobby(ctx context.Context, st State) error
}

type TeamStore interface {
	GetTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error)
}

type participant struct {
	userID    string
	teamID    string
	teamSize  int
	ready     bool
	connected bool
	isBot     bool
}

func (p *participant) state() ParticipantState {
	return ParticipantState{
		UserID:    p.userID,
		TeamID:    p.teamID,
		TeamSize:  p.teamSize,
		Ready:     p.ready,
		Connected: p.connected,
		IsBot:     p.isBot,
	}
}

type lobbyRecord struct {
	mu            sync.Mutex
	id            string
	version       int64
	bracketID     int
	typ           Type
	status        Status
	wager         int64
	inviteCode    string
	creator       participant
	opponent      *participant
	botDifficulty string
	battleID      string
	closeReason   string
	createdAt     time.Time
	updatedAt     time.Time
}

func (l *lobbyRecord) touchLocked(now time.Time) {
	l.version++
	l.updatedAt = now
}

func (l *lobbyRecord) stateLocked() State {
	st := State{
		ID:            l.id,
		Version:       l.version,
		BracketID:     l.bracketID,
		Type:          l.typ,
		Status:        l.status,
		WagerLamports: l.wager,
		InviteCode:    l.inviteCode,
		Creator:       l.creator.state(),
		BotDifficulty: l.botDifficulty,
		BattleID:      l.battleID,
		CloseReason:   l.closeReason,
		CreatedAt:     l.createdAt,
		UpdatedAt:     l.updatedAt,
	}
	if l.opponent != nil {
		op := l.opponent.state()
		st.Opponent = &op
	}
	return st
}

// side returns the participant for userID, or nil.
func (l *lobbyRecord) side(userID string) *participant {
	if l.creator.userID == userID {
		return &l.creator
	}
	if l.opponent != nil && l.opponent.userID == userID {
		return l.opponent
	}
	return nil
}

func (l *lobbyRecord) anyHumanConnected() bool {
	if l.creator.connected && !l.creator.isBot {
		return true
	}
	return l.opponent != nil && l.opponent.connected && !l.opponent.isBot
}
