package ledger

import (
	"context"
	"fmt"

	"pokedotduel/internal/bot"
	"pokedotduel/internal/rewards"
	"pokedotduel/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	EntryWagerCredit = "wager_credit"
	EntryWagerDebit  = "wager_debit"
	refBattle        = "battle"
)

// Ledger books wager settlements, XP and battle records against the
// repository. Every write is keyed by battle id so redelivery is harmless.
type Ledger struct {
	Repo store.Repository
}

func New(repo store.Repository) *Ledger {
	return &Ledger{Repo: repo}
}

var (
	_ rewards.Economy     = (*Ledger)(nil)
	_ rewards.Progression = (*Ledger)(nil)
	_ rewards.Collection  = (*Ledger)(nil)
)

// SettleWager credits the winner and debits the loser. Draws, zero wagers
// and bot participants produce no entries.
func (l *Ledger) SettleWager(ctx context.Context, o rewards.Outcome) error {
	if o.Draw || o.WagerLamports <= 0 || o.Winner == "" {
		return nil
	}
	if err := l.book(ctx, o.Winner, EntryWagerCredit, o.WagerLamports, o.BattleID); err != nil {
		return err
	}
	return l.book(ctx, o.Loser, EntryWagerDebit, -o.WagerLamports, o.BattleID)
}

func (l *Ledger) AwardBattleXP(ctx context.Context, userID string, xp int, o rewards.Outcome) error {
	if bot.IsBotUser(userID) || xp <= 0 {
		return nil
	}
	applied, err := l.Repo.AwardXP(ctx, userID, o.BattleID, xp)
	if err != nil {
		return fmt.Errorf("award xp: %w", err)
	}
	if applied {
		log.Debug().Str("user_id", userID).Str("battle_id", o.BattleID).Int("xp", xp).Msg("xp awarded")
	}
	return nil
}

func (l *Ledger) RecordBattle(ctx context.Context, userID string, result rewards.Result, o rewards.Outcome) error {
	if bot.IsBotUser(userID) {
		return nil
	}
	if _, err := l.Repo.RecordResult(ctx, userID, o.BattleID, string(result)); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

func (l *Ledger) book(ctx context.Context, userID, entryType string, amount int64, battleID string) error {
	if userID == "" || bot.IsBotUser(userID) {
		return nil
	}
	applied, err := l.Repo.RecordLedgerEntry(ctx, store.LedgerEntry{
		UserID:  userID,
		Type:    entryType,
		Amount:  amount,
		RefType: refBattle,
		RefID:   battleID,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", entryType, err)
	}
	if applied {
		log.Info().Str("user_id", userID).Str("battle_id", battleID).Str("type", entryType).Int64("amount", amount).Msg("ledger entry recorded")
	}
	return nil
}
