package rewards

import (
	"context"
	"time"
)

type Result string

const (
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
	ResultDraw Result = "DRAW"
)

// XP awarded per result.
var battleXP = map[Result]int{
	ResultWin:  100,
	ResultLoss: 25,
	ResultDraw: 50,
}

func XPFor(r Result) int {
	return battleXP[r]
}

// Outcome describes a finished battle. Winner and Loser are empty on a draw.
type Outcome struct {
	BattleID      string    `json:"battle_id"`
	LobbyID       string    `json:"lobby_id"`
	Players       [2]string `json:"players"`
	Humans        []string  `json:"humans"`
	Winner        string    `json:"winner,omitempty"`
	Loser         string    `json:"loser,omitempty"`
	Draw          bool      `json:"draw"`
	Reason        string    `json:"reason"`
	WagerLamports int64     `json:"wager_lamports"`
	BracketID     int       `json:"bracket_id"`
	Turns         int       `json:"turns"`
	EndedAt       time.Time `json:"ended_at"`
}

func (o Outcome) ResultFor(userID string) Result {
	switch {
	case o.Draw:
		return ResultDraw
	case userID == o.Winner:
		return ResultWin
	default:
		return ResultLoss
	}
}

type Economy interface {
	SettleWager(ctx context.Context, o Outcome) error
}

type Progression interface {
	AwardBattleXP(ctx context.Context, userID string, xp int, o Outcome) error
}

type Collection interface {
	RecordBattle(ctx context.Context, userID string, result Result, o Outcome) error
}

// Announcer publishes battle results outside the game, once per battle.
type Announcer interface {
	AnnounceBattle(ctx context.Context, o Outcome) error
}

type jobKind string

const (
	jobSettle   jobKind = "settle_wager"
	jobXP       jobKind = "battle_xp"
	jobRecord   jobKind = "record_battle"
	jobAnnounce jobKind = "announce_battle"
)

type job struct {
	Kind    jobKind
	UserID  string
	Outcome Outcome
	Attempt int
}

type Config struct {
	Workers        int
	DispatchBuffer int
	RetryMax       int
	RetryBase      time.Duration
}
