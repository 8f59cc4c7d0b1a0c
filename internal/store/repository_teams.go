package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pokedotduel/internal/battle"
)

var ErrEmptyTeam = errors.New("empty_team")

func (s *Store) SaveTeam(ctx context.Context, t Team) (Team, error) {
	if len(t.Members) == 0 {
		return Team{}, ErrEmptyTeam
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	members, err := json.Marshal(t.Members)
	if err != nil {
		return Team{}, err
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO teams (id, user_id, name, members, created_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, members = EXCLUDED.members`,
		t.ID, t.UserID, t.Name, members, t.CreatedAt)
	if err != nil {
		return Team{}, err
	}
	return t, nil
}

// GetTeam returns the stored roster at full health.
func (s *Store) GetTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error) {
	var raw []byte
	if err := s.Pool.QueryRow(ctx, `SELECT members FROM teams WHERE id = $1`, teamID).Scan(&raw); err != nil {
		return nil, mapNotFound(err)
	}
	var members []battle.Pokemon
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, err
	}
	return freshRoster(members), nil
}

func freshRoster(members []battle.Pokemon) []battle.Pokemon {
	out := make([]battle.Pokemon, len(members))
	for i, p := range members {
		p.Moves = append([]battle.Move(nil), p.Moves...)
		for j := range p.Moves {
			if p.Moves[j].MaxPP == 0 {
				p.Moves[j].MaxPP = p.Moves[j].PP
			}
			p.Moves[j].PP = p.Moves[j].MaxPP
		}
		p.Types = append([]battle.Type(nil), p.Types...)
		p.Status = battle.StatusNone
		p.Boosts = battle.Boosts{}
		p.Recalculate()
		out[i] = p
	}
	return out
}
