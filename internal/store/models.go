package store

import (
	"time"

	"pokedotduel/internal/battle"
)

const (
	BattleStatusActive = "ACTIVE"
	BattleStatusEnded  = "ENDED"
)

type Battle struct {
	ID            string     `json:"id"`
	LobbyID       string     `json:"lobby_id"`
	PlayerA       string     `json:"player_a"`
	PlayerB       string     `json:"player_b"`
	TeamA         string     `json:"team_a"`
	TeamB         string     `json:"team_b"`
	Seed          string     `json:"seed"`
	BracketID     int        `json:"bracket_id"`
	WagerLamports int64      `json:"wager_lamports"`
	Status        string     `json:"status"`
	Winner        string     `json:"winner,omitempty"`
	WinnerSide    string     `json:"winner_side,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Turns         int        `json:"turns"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

type BattleResult struct {
	Winner     string
	WinnerSide string
	Reason     string
	Turns      int
	EndedAt    time.Time
}

type TranscriptEvent struct {
	ID        string       `json:"id"`
	BattleID  string       `json:"battle_id"`
	Seq       int          `json:"seq"`
	Event     battle.Event `json:"event"`
	CreatedAt time.Time    `json:"created_at"`
}

type Team struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Members   []battle.Pokemon `json:"members"`
	CreatedAt time.Time        `json:"created_at"`
}

type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	RefType   string    `json:"ref_type"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

type UserProgress struct {
	UserID    string    `json:"user_id"`
	XP        int64     `json:"xp"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	UpdatedAt time.Time `json:"updated_at"`
}
