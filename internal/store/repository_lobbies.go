package store

import (
	"context"
	"encoding/json"

	"pokedotduel/internal/lobby"
)

func (s *Store) ArchiveLobby(ctx context.Context, st lobby.State) error {
	state, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO lobby_archive
		(id, lobby_type, status, bracket_id, wager_lamports, creator_id, opponent_id, battle_id, close_reason, state, created_at, closed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, close_reason = EXCLUDED.close_reason,
			state = EXCLUDED.state, closed_at = EXCLUDED.closed_at`,
		st.ID, string(st.Type), string(st.Status), st.BracketID, st.WagerLamports, st.Creator.UserID,
		textParam(st.OpponentID()), textParam(st.BattleID), textParam(st.CloseReason), state, st.CreatedAt, st.UpdatedAt)
	return err
}
