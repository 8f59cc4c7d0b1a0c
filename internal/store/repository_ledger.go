package store

import (
	"context"
	"fmt"
)

const (
	progressKindXP     = "xp"
	progressKindResult = "result"
)

// RecordLedgerEntry inserts e once per (user, type, ref). It reports false
// when the entry already existed.
func (s *Store) RecordLedgerEntry(ctx context.Context, e LedgerEntry) (bool, error) {
	if e.ID == "" {
		e.ID = NewID()
	}
	tag, err := s.Pool.Exec(ctx, `INSERT INTO ledger_entries (id, user_id, type, amount, ref_type, ref_id)
		VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (user_id, type, ref_id) DO NOTHING`,
		e.ID, e.UserID, e.Type, e.Amount, e.RefType, e.RefID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string) ([]LedgerEntry, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, user_id, type, amount, ref_type, ref_id, created_at
		FROM ledger_entries WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AwardXP adds xp to the user once per battle.
func (s *Store) AwardXP(ctx context.Context, userID, battleID string, xp int) (bool, error) {
	return s.applyProgress(ctx, userID, battleID, progressKindXP,
		`INSERT INTO user_progress (user_id, xp) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET xp = user_progress.xp + EXCLUDED.xp, updated_at = now()`,
		userID, int64(xp))
}

func (s *Store) RecordResult(ctx context.Context, userID, battleID, result string) (bool, error) {
	var column string
	switch result {
	case "WIN":
		column = "wins"
	case "LOSS":
		column = "losses"
	case "DRAW":
		column = "draws"
	default:
		return false, fmt.Errorf("unknown result %q", result)
	}
	return s.applyProgress(ctx, userID, battleID, progressKindResult,
		`INSERT INTO user_progress (user_id, `+column+`) VALUES ($1, 1)
		 ON CONFLICT (user_id) DO UPDATE SET `+column+` = user_progress.`+column+` + 1, updated_at = now()`,
		userID)
}

// applyProgress claims (user, kind, battle) and runs update in the same
// transaction; false means the award was already applied.
func (s *Store) applyProgress(ctx context.Context, userID, battleID, kind, update string, args ...any) (bool, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `INSERT INTO progress_awards (user_id, kind, battle_id) VALUES ($1,$2,$3)
		ON CONFLICT DO NOTHING`, userID, kind, battleID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, update, args...); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *Store) GetProgress(ctx context.Context, userID string) (UserProgress, error) {
	var p UserProgress
	err := s.Pool.QueryRow(ctx, `SELECT user_id, xp, wins, losses, draws, updated_at FROM user_progress WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.XP, &p.Wins, &p.Losses, &p.Draws, &p.UpdatedAt)
	if err != nil {
		return UserProgress{}, mapNotFound(err)
	}
	return p, nil
}
