package store

import (
	"context"
	"encoding/json"
	"fmt"

	"pokedotduel/internal/battle"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const battleColumns = `id, lobby_id, player_a, player_b, team_a, team_b, seed, bracket_id,
	wager_lamports, status, winner, winner_side, reason, turns, started_at, ended_at`

func (s *Store) CreateBattle(ctx context.Context, b Battle) error {
	if b.Status == "" {
		b.Status = BattleStatusActive
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO battles
		(id, lobby_id, player_a, player_b, team_a, team_b, seed, bracket_id, wager_lamports, status, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.LobbyID, b.PlayerA, b.PlayerB, b.TeamA, b.TeamB, b.Seed, b.BracketID, b.WagerLamports, b.Status, b.StartedAt)
	return err
}

func (s *Store) FinishBattle(ctx context.Context, battleID string, res BattleResult) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE battles
		SET status = $2, winner = $3, winner_side = $4, reason = $5, turns = $6, ended_at = $7
		WHERE id = $1`,
		battleID, BattleStatusEnded, textParam(res.Winner), textParam(res.WinnerSide), textParam(res.Reason), res.Turns, res.EndedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBattle(row pgx.Row) (Battle, error) {
	var (
		b          Battle
		winner     pgtype.Text
		winnerSide pgtype.Text
		reason     pgtype.Text
		endedAt    pgtype.Timestamptz
	)
	err := row.Scan(&b.ID, &b.LobbyID, &b.PlayerA, &b.PlayerB, &b.TeamA, &b.TeamB, &b.Seed, &b.BracketID,
		&b.WagerLamports, &b.Status, &winner, &winnerSide, &reason, &b.Turns, &b.StartedAt, &endedAt)
	if err != nil {
		return Battle{}, mapNotFound(err)
	}
	b.Winner = textVal(winner)
	b.WinnerSide = textVal(winnerSide)
	b.Reason = textVal(reason)
	b.EndedAt = timePtrVal(endedAt)
	return b, nil
}

func (s *Store) GetBattle(ctx context.Context, battleID string) (Battle, error) {
	return scanBattle(s.Pool.QueryRow(ctx, `SELECT `+battleColumns+` FROM battles WHERE id = $1`, battleID))
}

func (s *Store) ListRecentBattles(ctx context.Context, limit int) ([]Battle, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+battleColumns+` FROM battles ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Battle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AppendTranscript stores events after the battle's current last sequence
// number in one transaction.
func (s *Store) AppendTranscript(ctx context.Context, battleID string, events []battle.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var last int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM battle_events WHERE battle_id = $1`, battleID).Scan(&last); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		batch.Queue(`INSERT INTO battle_events (id, battle_id, seq, turn, event_type, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
			NewID(), battleID, last+i+1, ev.Turn, string(ev.Type), payload)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListTranscript(ctx context.Context, battleID string) ([]TranscriptEvent, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, battle_id, seq, payload, created_at
		FROM battle_events WHERE battle_id = $1 ORDER BY seq`, battleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TranscriptEvent
	for rows.Next() {
		var (
			ev      TranscriptEvent
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.BattleID, &ev.Seq, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &ev.Event); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
