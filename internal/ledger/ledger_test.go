package ledger

import (
	"context"
	"testing"

	"pokedotduel/internal/rewards"
	"pokedotduel/internal/store"
)

func TestSettleWagerCreditsWinnerDebitsLoser(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	l := New(repo)
	o := rewards.Outcome{BattleID: "b1", Players: [2]string{"alice", "bob"}, Winner: "alice", Loser: "bob", WagerLamports: 50}

	if err := l.SettleWager(ctx, o); err != nil {
		t.Fatalf("SettleWager: %v", err)
	}
	if err := l.SettleWager(ctx, o); err != nil {
		t.Fatalf("SettleWager replay: %v", err)
	}

	alice, _ := repo.ListLedgerEntries(ctx, "alice")
	bob, _ := repo.ListLedgerEntries(ctx, "bob")
	if len(alice) != 1 || alice[0].Amount != 50 || alice[0].Type != EntryWagerCredit {
		t.Fatalf("alice entries = %+v", alice)
	}
	if len(bob) != 1 || bob[0].Amount != -50 || bob[0].Type != EntryWagerDebit {
		t.Fatalf("bob entries = %+v", bob)
	}
}

func TestSettleWagerSkipsDrawAndBots(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	l := New(repo)

	draw := rewards.Outcome{BattleID: "b1", Players: [2]string{"alice", "bob"}, Draw: true, WagerLamports: 50}
	if err := l.SettleWager(ctx, draw); err != nil {
		t.Fatalf("SettleWager draw: %v", err)
	}
	vsBot := rewards.Outcome{BattleID: "b2", Players: [2]string{"alice", "bot:x"}, Winner: "bot:x", Loser: "alice", WagerLamports: 50}
	if err := l.SettleWager(ctx, vsBot); err != nil {
		t.Fatalf("SettleWager bot: %v", err)
	}

	alice, _ := repo.ListLedgerEntries(ctx, "alice")
	if len(alice) != 1 || alice[0].RefID != "b2" || alice[0].Amount != -50 {
		t.Fatalf("alice entries = %+v", alice)
	}
	botEntries, _ := repo.ListLedgerEntries(ctx, "bot:x")
	if len(botEntries) != 0 {
		t.Fatalf("bot should have no entries, got %+v", botEntries)
	}
}

func TestProgressIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	l := New(repo)
	o := rewards.Outcome{BattleID: "b1", Winner: "alice", Loser: "bob"}

	for i := 0; i < 2; i++ {
		if err := l.AwardBattleXP(ctx, "alice", 100, o); err != nil {
			t.Fatalf("AwardBattleXP: %v", err)
		}
		if err := l.RecordBattle(ctx, "alice", rewards.ResultWin, o); err != nil {
			t.Fatalf("RecordBattle: %v", err)
		}
	}
	p, err := repo.GetProgress(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.XP != 100 || p.Wins != 1 || p.Losses != 0 {
		t.Fatalf("progress = %+v", p)
	}
}
