package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/bot"
	"pokedotduel/internal/rewards"
	"pokedotduel/internal/store"
)

const (
	StatusActive = "ACTIVE"
	StatusEnded  = "ENDED"

	ReasonKO      = "KO"
	ReasonForfeit = "Forfeit"
	ReasonTimeout = "Timeout"
)

// Broadcaster delivers battle traffic to connected clients.
type Broadcaster interface {
	BattleStart(battleID string, players [2]string, seed string)
	TurnResult(battleID string, turn int, events []battle.Event)
	BattleEnd(battleID, winner, reason string)
	BattleState(userID string, st State)
	ActionRejected(battleID, userID string, err error)
}

// Repository is the persistence the coordinator needs.
type Repository interface {
	CreateBattle(ctx context.Context, b store.Battle) error
	AppendTranscript(ctx context.Context, battleID string, events []battle.Event) error
	FinishBattle(ctx context.Context, battleID string, res store.BattleResult) error
}

type TeamStore interface {
	GetTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error)
}

type LobbyResolver interface {
	Resolve(ctx context.Context, lobbyID string) error
}

type RewardDispatcher interface {
	Dispatch(o rewards.Outcome) bool
}

// State is a point-in-time view of a battle.
type State struct {
	BattleID      string         `json:"battle_id"`
	LobbyID       string         `json:"lobby_id"`
	Status        string         `json:"status"`
	Turn          int            `json:"turn"`
	Players       [2]string      `json:"players"`
	Teams         [2]battle.Team `json:"teams"`
	Submitted     [2]bool        `json:"submitted"`
	Connected     [2]bool        `json:"connected"`
	Seed          string         `json:"seed"`
	BracketID     int            `json:"bracket_id"`
	WagerLamports int64          `json:"wager_lamports"`
	BotDifficulty string         `json:"bot_difficulty,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	WinnerSide    string         `json:"winner_side,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	TurnDeadline  *time.Time     `json:"turn_deadline,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty"`
}

func (s State) SideOf(userID string) (battle.Side, bool) {
	switch userID {
	case s.Players[battle.SideA]:
		return battle.SideA, true
	case s.Players[battle.SideB]:
		return battle.SideB, true
	default:
		return 0, false
	}
}

type battleRuntime struct {
	mu sync.Mutex

	// publish is acquired before mu is released and held until the
	// resulting events are persisted and broadcast.
	publish sync.Mutex

	id            string
	lobbyID       string
	seed          string
	bracketID     int
	wager         int64
	players       [2]string
	bots          [2]bool
	botDifficulty bot.Difficulty
	engine        *battle.Engine
	buffer        *EventBuffer

	status     string
	pending    [2]*battle.Action
	connected  [2]bool
	graceUntil [2]time.Time
	turnUntil  time.Time
	botCancel  [2]func()

	winner     string
	winnerSide string
	reason     string
	startedAt  time.Time
	endedAt    time.Time
}

func (rt *battleRuntime) sideOf(userID string) (battle.Side, bool) {
	switch userID {
	case rt.players[battle.SideA]:
		return battle.SideA, true
	case rt.players[battle.SideB]:
		return battle.SideB, true
	default:
		return 0, false
	}
}

func (rt *battleRuntime) stateLocked() State {
	st := State{
		BattleID:      rt.id,
		LobbyID:       rt.lobbyID,
		Status:        rt.status,
		Turn:          rt.engine.Turn(),
		Players:       rt.players,
		Teams:         [2]battle.Team{rt.engine.Team(battle.SideA), rt.engine.Team(battle.SideB)},
		Submitted:     [2]bool{rt.pending[0] != nil, rt.pending[1] != nil},
		Connected:     rt.connected,
		Seed:          rt.seed,
		BracketID:     rt.bracketID,
		WagerLamports: rt.wager,
		BotDifficulty: string(rt.botDifficulty),
		Winner:        rt.winner,
		WinnerSide:    rt.winnerSide,
		Reason:        rt.reason,
		StartedAt:     rt.startedAt,
	}
	if rt.status == StatusActive && !rt.turnUntil.IsZero() {
		deadline := rt.turnUntil
		st.TurnDeadline = &deadline
	}
	if !rt.endedAt.IsZero() {
		ended := rt.endedAt
		st.EndedAt = &ended
	}
	return st
}

func (rt *battleRuntime) humans() []string {
	out := make([]string, 0, 2)
	for i, id := range rt.players {
		if !rt.bots[i] {
			out = append(out, id)
		}
	}
	return out
}

func (rt *battleRuntime) cancelBotsLocked() {
	for i, cancel := range rt.botCancel {
		if cancel != nil {
			cancel()
			rt.botCancel[i] = nil
		}
	}
}

func sortStates(states []State) {
	sort.Slice(states, func(i, j int) bool {
		if !states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].StartedAt.Before(states[j].StartedAt)
		}
		return states[i].BattleID < states[j].BattleID
	})
}
