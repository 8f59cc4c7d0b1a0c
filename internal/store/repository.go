package store

import (
	"context"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/lobby"
)

// Repository is implemented by the Postgres Store and by MemoryStore.
type Repository interface {
	CreateBattle(ctx context.Context, b Battle) error
	AppendTranscript(ctx context.Context, battleID string, events []battle.Event) error
	FinishBattle(ctx context.Context, battleID string, res BattleResult) error
	GetBattle(ctx context.Context, battleID string) (Battle, error)
	ListRecentBattles(ctx context.Context, limit int) ([]Battle, error)
	ListTranscript(ctx context.Context, battleID string) ([]TranscriptEvent, error)

	ArchiveLobby(ctx context.Context, st lobby.State) error

	SaveTeam(ctx context.Context, t Team) (Team, error)
	GetTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error)

	RecordLedgerEntry(ctx context.Context, e LedgerEntry) (bool, error)
	ListLedgerEntries(ctx context.Context, userID string) ([]LedgerEntry, error)
	AwardXP(ctx context.Context, userID, battleID string, xp int) (bool, error)
	RecordResult(ctx context.Context, userID, battleID, result string) (bool, error)
	GetProgress(ctx context.Context, userID string) (UserProgress, error)
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MemoryStore)(nil)
)
