package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/lobby"
)

// MemoryStore is the Repository used when no Postgres DSN is configured.
type MemoryStore struct {
	mu         sync.Mutex
	battles    map[string]Battle
	transcript map[string][]TranscriptEvent
	lobbies    map[string]lobby.State
	teams      map[string]Team
	ledger     map[string]LedgerEntry
	progress   map[string]UserProgress
	awards     map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		battles:    map[string]Battle{},
		transcript: map[string][]TranscriptEvent{},
		lobbies:    map[string]lobby.State{},
		teams:      map[string]Team{},
		ledger:     map[string]LedgerEntry{},
		progress:   map[string]UserProgress{},
		awards:     map[string]bool{},
	}
}

func (m *MemoryStore) CreateBattle(_ context.Context, b Battle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.battles[b.ID]; ok {
		return fmt.Errorf("battle %s already exists", b.ID)
	}
	if b.Status == "" {
		b.Status = BattleStatusActive
	}
	m.battles[b.ID] = b
	return nil
}

func (m *MemoryStore) FinishBattle(_ context.Context, battleID string, res BattleResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.battles[battleID]
	if !ok {
		return ErrNotFound
	}
	b.Status = BattleStatusEnded
	b.Winner = res.Winner
	b.WinnerSide = res.WinnerSide
	b.Reason = res.Reason
	b.Turns = res.Turns
	ended := res.EndedAt
	b.EndedAt = &ended
	m.battles[battleID] = b
	return nil
}

func (m *MemoryStore) GetBattle(_ context.Context, battleID string) (Battle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.battles[battleID]
	if !ok {
		return Battle{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListRecentBattles(_ context.Context, limit int) ([]Battle, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.Lock()
	out := make([]Battle, 0, len(m.battles))
	for _, b := range m.battles {
		out = append(out, b)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) AppendTranscript(_ context.Context, battleID string, events []battle.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.battles[battleID]; !ok {
		return ErrNotFound
	}
	now := time.Now()
	seq := len(m.transcript[battleID])
	for _, ev := range events {
		seq++
		m.transcript[battleID] = append(m.transcript[battleID], TranscriptEvent{
			ID:        NewIDAt(now),
			BattleID:  battleID,
			Seq:       seq,
			Event:     ev,
			CreatedAt: now,
		})
	}
	return nil
}

func (m *MemoryStore) ListTranscript(_ context.Context, battleID string) ([]TranscriptEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranscriptEvent(nil), m.transcript[battleID]...), nil
}

func (m *MemoryStore) ArchiveLobby(_ context.Context, st lobby.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lobbies[st.ID] = st
	return nil
}

// ArchivedLobby returns an archived lobby snapshot.
func (m *MemoryStore) ArchivedLobby(lobbyID string) (lobby.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.lobbies[lobbyID]
	return st, ok
}

func (m *MemoryStore) SaveTeam(_ context.Context, t Team) (Team, error) {
	if len(t.Members) == 0 {
		return Team{}, ErrEmptyTeam
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
	return t, nil
}

func (m *MemoryStore) GetTeam(_ context.Context, teamID string) ([]battle.Pokemon, error) {
	m.mu.Lock()
	t, ok := m.teams[teamID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return freshRoster(t.Members), nil
}

func (m *MemoryStore) RecordLedgerEntry(_ context.Context, e LedgerEntry) (bool, error) {
	key := e.UserID + "|" + e.Type + "|" + e.RefID
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ledger[key]; ok {
		return false, nil
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.ledger[key] = e
	return true, nil
}

func (m *MemoryStore) ListLedgerEntries(_ context.Context, userID string) ([]LedgerEntry, error) {
	m.mu.Lock()
	var out []LedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AwardXP(_ context.Context, userID, battleID string, xp int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.claimLocked(userID, progressKindXP, battleID) {
		return false, nil
	}
	p := m.progressLocked(userID)
	p.XP += int64(xp)
	m.progress[userID] = p
	return true, nil
}

func (m *MemoryStore) RecordResult(_ context.Context, userID, battleID, result string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result != "WIN" && result != "LOSS" && result != "DRAW" {
		return false, fmt.Errorf("unknown result %q", result)
	}
	if !m.claimLocked(userID, progressKindResult, battleID) {
		return false, nil
	}
	p := m.progressLocked(userID)
	switch result {
	case "WIN":
		p.Wins++
	case "LOSS":
		p.Losses++
	case "DRAW":
		p.Draws++
	}
	m.progress[userID] = p
	return true, nil
}

func (m *MemoryStore) claimLocked(userID, kind, battleID string) bool {
	key := userID + "|" + kind + "|" + battleID
	if m.awards[key] {
		return false
	}
	m.awards[key] = true
	return true
}

func (m *MemoryStore) progressLocked(userID string) UserProgress {
	p, ok := m.progress[userID]
	if !ok {
		p = UserProgress{UserID: userID}
	}
	p.UpdatedAt = time.Now()
	return p
}

func (m *MemoryStore) GetProgress(_ context.Context, userID string) (UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userID]
	if !ok {
		return UserProgress{}, ErrNotFound
	}
	return p, nil
}
