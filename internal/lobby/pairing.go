package lobby

import (
	"context"
	"errors"
	"fmt"

	"pokedotduel/internal/bot"
	"pokedotduel/internal/dex"
	"pokedotduel/internal/matchmaking"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const botTeamSize = 3

// PairLobbies merges two queued lobbies: the guest lobby's creator joins the
// host lobby and the guest lobby is cancelled. A side that is gone or no
// longer OPEN is reported as a *matchmaking.UnpairableError.
func (m *Manager) PairLobbies(ctx context.Context, hostLobbyID, guestLobbyID string) error {
	if hostLobbyID == guestLobbyID {
		return fmt.Errorf("pair lobbies: %w", ErrSelfJoin)
	}
	host, err := m.get(hostLobbyID)
	if err != nil {
		return fmt.Errorf("pair host: %w", unpairable(hostLobbyID, err))
	}
	guest, err := m.get(guestLobbyID)
	if err != nil {
		return fmt.Errorf("pair guest: %w", unpairable(guestLobbyID, err))
	}

	first, second := host, guest
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()

	if guest.status != StatusOpen || guest.opponent != nil {
		second.mu.Unlock()
		first.mu.Unlock()
		return fmt.Errorf("pair guest: %w", unpairable(guestLobbyID, ErrLobbyNotOpen))
	}
	guestUser := guest.creator
	// Free the guest's lobby slot so the join below can claim it.
	m.release(guest.id, guestUser.userID)
	if err := m.joinLocked(host, guestUser.userID, guestUser.connected); err != nil {
		m.mu.Lock()
		if _, busy := m.byUser[guestUser.userID]; !busy {
			m.byUser[guestUser.userID] = guest.id
		}
		m.mu.Unlock()
		second.mu.Unlock()
		first.mu.Unlock()
		if errors.Is(err, ErrLobbyFull) || errors.Is(err, ErrLobbyNotOpen) {
			err = unpairable(hostLobbyID, err)
		}
		return fmt.Errorf("pair host %s: %w", hostLobbyID, err)
	}
	hostState := host.stateLocked()
	guestState, _ := m.closeLocked(guest, StatusCancelled, ReasonMerged)
	second.mu.Unlock()
	first.mu.Unlock()

	m.finishClose(ctx, guestState, nil)
	m.broadcast(hostState)
	if m.broadcaster != nil {
		m.broadcaster.MatchFound(hostState.Creator.UserID, hostState.ID)
		m.broadcaster.MatchFound(guestUser.userID, hostState.ID)
	}
	log.Info().
		Str("lobby_id", hostState.ID).
		Str("merged_lobby_id", guestState.ID).
		Str("host_user_id", hostState.Creator.UserID).
		Str("guest_user_id", guestUser.userID).
		Msg("lobbies paired")
	return nil
}

func unpairable(lobbyID string, err error) error {
	return &matchmaking.UnpairableError{LobbyID: lobbyID, Err: err}
}

// QueueExpired cancels a lobby that waited in the queue for too long.
func (m *Manager) QueueExpired(ctx context.Context, lobbyID string) {
	l, err := m.get(lobbyID)
	if err != nil {
		return
	}
	l.mu.Lock()
	if l.status != StatusOpen {
		l.mu.Unlock()
		return
	}
	st, released := m.closeLocked(l, StatusCancelled, ReasonQueueTimeout)
	l.mu.Unlock()
	m.finishClose(ctx, st, released)
}

// CreateBotLobby creates a FULL lobby against a server-driven bot with a
// random team. The bot side is always ready.
func (m *Manager) CreateBotLobby(ctx context.Context, userID string, bracketID int, wager int64, difficulty bot.Difficulty) (State, error) {
	if wager <= 0 {
		return State{}, ErrInvalidWager
	}
	m.rngMu.Lock()
	keys, err := dex.RandomKeys(m.rng, dex.BotPool, botTeamSize)
	m.rngMu.Unlock()
	if err != nil {
		return State{}, err
	}
	now := m.now()
	l := &lobbyRecord{
		id:        uuid.NewString(),
		version:   1,
		bracketID: bracketID,
		typ:       TypeVsBot,
		status:    StatusFull,
		wager:     wager,
		creator:   participant{userID: userID, connected: true},
		opponent: &participant{
			userID:    bot.UserPrefix + uuid.NewString(),
			teamID:    dex.TeamID(keys...),
			teamSize:  len(keys),
			ready:     true,
			connected: true,
			isBot:     true,
		},
		botDifficulty: string(difficulty),
		createdAt:     now,
		updatedAt:     now,
	}

	m.mu.Lock()
	if _, busy := m.byUser[userID]; busy {
		m.mu.Unlock()
		return State{}, ErrAlreadyInLobby
	}
	m.lobbies[l.id] = l
	m.byUser[userID] = l.id
	m.mu.Unlock()

	l.mu.Lock()
	st := l.stateLocked()
	l.mu.Unlock()

	log.Info().
		Str("lobby_id", st.ID).
		Str("user_id", userID).
		Str("bot_difficulty", st.BotDifficulty).
		Msg("bot lobby created")
	m.broadcast(st)
	return st, nil
}
