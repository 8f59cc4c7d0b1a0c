package lobby

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Options struct {
	Broadcaster Broadcaster
	Starter     BattleStarter
	Archiver    Archiver
	Teams       TeamStore
	Rand        *rand.Rand
	Now         func() time.Time
}

type Manager struct {
	broadcaster Broadcaster
	starter     BattleStarter
	archiver    Archiver
	teams       TeamStore
	now         func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	lobbies map[string]*lobbyRecord
	byUser  map[string]string
	byCode  map[string]string
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		broadcaster: opts.Broadcaster,
		starter:     opts.Starter,
		archiver:    opts.Archiver,
		teams:       opts.Teams,
		now:         opts.Now,
		rng:         opts.Rand,
		lobbies:     map[string]*lobbyRecord{},
		byUser:      map[string]string{},
		byCode:      map[string]string{},
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// SetStarter wires the battle layer after construction; the coordinator and
// the manager reference each other.
func (m *Manager) SetStarter(s BattleStarter) {
	m.mu.Lock()
	m.starter = s
	m.mu.Unlock()
}

type CreateParams struct {
	CreatorID     string
	BracketID     int
	WagerLamports int64
	Type          Type
}

func (m *Manager) Create(ctx context.Context, p CreateParams) (State, error) {
	if p.WagerLamports <= 0 {
		return State{}, ErrInvalidWager
	}
	if p.Type == "" {
		p.Type = TypeNormal
	}
	if p.Type != TypeNormal && p.Type != TypeQuickMatch {
		return State{}, fmt.Errorf("%w: %s", ErrInvalidLobbyType, p.Type)
	}
	now := m.now()
	l := &lobbyRecord{
		id:        uuid.NewString(),
		version:   1,
		bracketID: p.BracketID,
		typ:       p.Type,
		status:    StatusOpen,
		wager:     p.WagerLamports,
		creator:   participant{userID: p.CreatorID, connected: true},
		createdAt: now,
		updatedAt: now,
	}

	m.mu.Lock()
	if _, busy := m.byUser[p.CreatorID]; busy {
		m.mu.Unlock()
		return State{}, ErrAlreadyInLobby
	}
	if l.typ == TypeNormal {
		l.inviteCode = m.newInviteCodeLocked()
		m.byCode[l.inviteCode] = l.id
	}
	m.lobbies[l.id] = l
	m.byUser[p.CreatorID] = l.id
	m.mu.Unlock()

	l.mu.Lock()
	st := l.stateLocked()
	l.mu.Unlock()

	log.Info().
		Str("lobby_id", st.ID).
		Str("user_id", p.CreatorID).
		Str("lobby_type", string(st.Type)).
		Int64("wager_lamports", st.WagerLamports).
		Msg("lobby created")
	m.broadcast(st)
	return st, nil
}

func (m *Manager) newInviteCodeLocked() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for {
		var b strings.Builder
		for i := 0; i < inviteCodeLength; i++ {
			b.WriteByte(inviteCodeAlphabet[m.rng.Intn(len(inviteCodeAlphabet))])
		}
		code := b.String()
		if _, taken := m.byCode[code]; !taken {
			return code
		}
	}
}

func (m *Manager) newSeed() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return strconv.FormatUint(m.rng.Uint64(), 10)
}

func (m *Manager) get(lobbyID string) (*lobbyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	return l, nil
}

func (m *Manager) lobbyFor(userID string) (*lobbyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotInLobby
	}
	l, ok := m.lobbies[id]
	if !ok {
		return nil, ErrNotInLobby
	}
	return l, nil
}

func (m *Manager) Get(lobbyID string) (State, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return State{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked(), nil
}

func (m *Manager) LobbyOf(userID string) (State, bool) {
	l, err := m.lobbyFor(userID)
	if err != nil {
		return State{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked(), true
}

// OpenLobbies lists joinable lobbies, oldest first.
func (m *Manager) OpenLobbies() []State {
	m.mu.Lock()
	records := make([]*lobbyRecord, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		records = append(records, l)
	}
	m.mu.Unlock()

	out := make([]State, 0, len(records))
	for _, l := range records {
		l.mu.Lock()
		if l.status == StatusOpen && l.typ == TypeNormal {
			out = append(out, l.stateLocked())
		}
		l.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Join seats userID as the opponent of an OPEN lobby. Quick match lobbies
// are only filled by the matchmaker.
func (m *Manager) Join(ctx context.Context, lobbyID, userID string) (State, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return State{}, err
	}
	l.mu.Lock()
	if l.typ == TypeQuickMatch {
		l.mu.Unlock()
		return State{}, ErrQueuedLobby
	}
	if err := m.joinLocked(l, userID, true); err != nil {
		l.mu.Unlock()
		return State{}, err
	}
	st := l.stateLocked()
	l.mu.Unlock()

	log.Info().Str("lobby_id", st.ID).Str("user_id", userID).Msg("lobby joined")
	m.broadcast(st)
	return st, nil
}

func (m *Manager) joinLocked(l *lobbyRecord, userID string, connected bool) error {
	switch {
	case l.creator.userID == userID:
		return ErrSelfJoin
	case l.status == StatusFull:
		return ErrLobbyFull
	case l.status != StatusOpen:
		return ErrLobbyNotOpen
	}
	m.mu.Lock()
	if _, busy := m.byUser[userID]; busy {
		m.mu.Unlock()
		return ErrAlreadyInLobby
	}
	m.byUser[userID] = l.id
	m.mu.Unlock()

	l.opponent = &participant{userID: userID, connected: connected}
	l.status = StatusFull
	l.touchLocked(m.now())
	return nil
}

func (m *Manager) JoinByInviteCode(ctx context.Context, code, userID string) (State, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	m.mu.Lock()
	lobbyID, ok := m.byCode[code]
	m.mu.Unlock()
	if !ok {
		return State{}, ErrInviteCodeNotFound
	}
	return m.Join(ctx, lobbyID, userID)
}

// SelectTeam records the team for the caller's side. Changing team clears
// that side's ready flag.
func (m *Manager) SelectTeam(ctx context.Context, userID, teamID string) (State, error) {
	if strings.TrimSpace(teamID) == "" {
		return State{}, ErrInvalidTeam
	}
	l, err := m.lobbyFor(userID)
	if err != nil {
		return State{}, err
	}
	size := 0
	if m.teams != nil {
		roster, err := m.teams.GetTeam(ctx, teamID)
		if err != nil {
			return State{}, fmt.Errorf("%w: %v", ErrInvalidTeam, err)
		}
		if len(roster) == 0 {
			return State{}, ErrInvalidTeam
		}
		size = len(roster)
	}

	l.mu.Lock()
	if err := mutableLocked(l); err != nil {
		l.mu.Unlock()
		return State{}, err
	}
	p := l.side(userID)
	if p == nil {
		l.mu.Unlock()
		return State{}, ErrNotInLobby
	}
	p.teamID = teamID
	p.teamSize = size
	p.ready = false
	l.touchLocked(m.now())
	st := l.stateLocked()
	l.mu.Unlock()

	m.broadcast(st)
	return st, nil
}

func mutableLocked(l *lobbyRecord) error {
	switch l.status {
	case StatusOpen, StatusFull:
		return nil
	case StatusInProgress:
		return ErrLobbyInProgress
	default:
		return ErrLobbyNotOpen
	}
}

// Ready marks the caller ready. When both sides are ready with teams the
// lobby moves to IN_PROGRESS and the battle starter is invoked once.
func (m *Manager) Ready(ctx context.Context, userID string) (State, error) {
	l, err := m.lobbyFor(userID)
	if err != nil {
		return State{}, err
	}

	l.mu.Lock()
	if err := mutableLocked(l); err != nil {
		l.mu.Unlock()
		return State{}, err
	}
	p := l.side(userID)
	if p == nil {
		l.mu.Unlock()
		return State{}, ErrNotInLobby
	}
	if p.teamID == "" {
		l.mu.Unlock()
		return State{}, ErrTeamNotSelected
	}
	p.ready = true
	var intent *StartIntent
	if l.status == StatusFull && l.opponent != nil &&
		l.creator.ready && l.opponent.ready &&
		l.creator.teamID != "" && l.opponent.teamID != "" {
		l.status = StatusInProgress
		l.battleID = uuid.NewString()
		intent = &StartIntent{
			LobbyID:       l.id,
			BattleID:      l.battleID,
			Seed:          m.newSeed(),
			BracketID:     l.bracketID,
			WagerLamports: l.wager,
			PlayerA:       l.creator.userID,
			PlayerB:       l.opponent.userID,
			TeamA:         l.creator.teamID,
			TeamB:         l.opponent.teamID,
			BotDifficulty: l.botDifficulty,
		}
	}
	l.touchLocked(m.now())
	st := l.stateLocked()
	l.mu.Unlock()

	m.broadcast(st)
	if intent == nil {
		return st, nil
	}
	return m.startBattle(ctx, l, *intent)
}

func (m *Manager) startBattle(ctx context.Context, l *lobbyRecord, intent StartIntent) (State, error) {
	m.mu.Lock()
	starter := m.starter
	m.mu.Unlock()
	if starter == nil {
		return m.revertStart(l, intent, fmt.Errorf("no battle starter configured"))
	}
	if err := starter.StartBattle(ctx, intent); err != nil {
		return m.revertStart(l, intent, err)
	}
	log.Info().
		Str("lobby_id", intent.LobbyID).
		Str("battle_id", intent.BattleID).
		Str("player_a", intent.PlayerA).
		Str("player_b", intent.PlayerB).
		Msg("lobby battle started")
	return m.Get(intent.LobbyID)
}

// revertStart puts the lobby back to FULL with both sides unready.
func (m *Manager) revertStart(l *lobbyRecord, intent StartIntent, cause error) (State, error) {
	log.Error().Err(cause).
		Str("lobby_id", intent.LobbyID).
		Str("battle_id", intent.BattleID).
		Msg("battle start failed")
	l.mu.Lock()
	if l.status == StatusInProgress && l.battleID == intent.BattleID {
		l.status = StatusFull
		l.battleID = ""
		l.creator.ready = l.creator.isBot
		if l.opponent != nil {
			l.opponent.ready = l.opponent.isBot
		}
		l.touchLocked(m.now())
	}
	st := l.stateLocked()
	l.mu.Unlock()
	m.broadcast(st)
	return st, fmt.Errorf("start battle: %w", cause)
}

// Leave removes the caller. A creator leaving cancels the lobby; an opponent
// leaving reopens it.
func (m *Manager) Leave(ctx context.Context, userID string) (State, error) {
	l, err := m.lobbyFor(userID)
	if err != nil {
		return State{}, err
	}
	l.mu.Lock()
	if err := mutableLocked(l); err != nil {
		l.mu.Unlock()
		return State{}, err
	}
	if l.creator.userID == userID {
		st, released := m.closeLocked(l, StatusCancelled, ReasonCreatorLeft)
		l.mu.Unlock()
		m.finishClose(ctx, st, released)
		return st, nil
	}
	if l.opponent == nil || l.opponent.userID != userID {
		l.mu.Unlock()
		return State{}, ErrNotInLobby
	}
	m.reopenLocked(l)
	st := l.stateLocked()
	l.mu.Unlock()

	m.release(l.id, userID)
	log.Info().Str("lobby_id", st.ID).Str("user_id", userID).Msg("opponent left lobby")
	m.broadcast(st)
	return st, nil
}

func (m *Manager) reopenLocked(l *lobbyRecord) {
	l.opponent = nil
	l.status = StatusOpen
	l.creator.ready = false
	l.touchLocked(m.now())
}

// Disconnect clears the caller's ready and connected flags. The lobby is
// cancelled once no human participant is connected.
func (m *Manager) Disconnect(ctx context.Context, userID string) {
	l, err := m.lobbyFor(userID)
	if err != nil {
		return
	}
	l.mu.Lock()
	if mutableLocked(l) != nil {
		l.mu.Unlock()
		return
	}
	p := l.side(userID)
	if p == nil {
		l.mu.Unlock()
		return
	}
	p.connected = false
	p.ready = false
	if !l.anyHumanConnected() {
		st, released := m.closeLocked(l, StatusCancelled, ReasonDisconnected)
		l.mu.Unlock()
		m.finishClose(ctx, st, released)
		return
	}
	l.touchLocked(m.now())
	st := l.stateLocked()
	l.mu.Unlock()
	m.broadcast(st)
}

func (m *Manager) Reconnect(userID string) (State, bool) {
	l, err := m.lobbyFor(userID)
	if err != nil {
		return State{}, false
	}
	l.mu.Lock()
	p := l.side(userID)
	if p == nil || l.status.Terminal() {
		l.mu.Unlock()
		return State{}, false
	}
	if !p.connected {
		p.connected = true
		l.touchLocked(m.now())
	}
	st := l.stateLocked()
	l.mu.Unlock()
	m.broadcast(st)
	return st, true
}

// Resolve finishes an IN_PROGRESS lobby after its battle ended.
func (m *Manager) Resolve(ctx context.Context, lobbyID string) error {
	return m.Close(ctx, lobbyID, StatusResolved, ReasonBattleEnded)
}

// Close moves a lobby to a terminal status, drops it from the registry and
// archives it.
func (m *Manager) Close(ctx context.Context, lobbyID string, status Status, reason string) error {
	if !status.Terminal() {
		return fmt.Errorf("close lobby: %s is not terminal", status)
	}
	l, err := m.get(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	if l.status.Terminal() {
		l.mu.Unlock()
		return ErrLobbyNotFound
	}
	st, released := m.closeLocked(l, status, reason)
	l.mu.Unlock()
	m.finishClose(ctx, st, released)
	return nil
}

func (m *Manager) closeLocked(l *lobbyRecord, status Status, reason string) (State, []string) {
	l.status = status
	l.closeReason = reason
	l.creator.ready = false
	released := []string{l.creator.userID}
	if l.opponent != nil {
		l.opponent.ready = false
		released = append(released, l.opponent.userID)
	}
	l.touchLocked(m.now())
	return l.stateLocked(), released
}

func (m *Manager) finishClose(ctx context.Context, st State, released []string) {
	m.mu.Lock()
	delete(m.lobbies, st.ID)
	if st.InviteCode != "" {
		delete(m.byCode, st.InviteCode)
	}
	for _, userID := range released {
		if m.byUser[userID] == st.ID {
			delete(m.byUser, userID)
		}
	}
	m.mu.Unlock()

	log.Info().
		Str("lobby_id", st.ID).
		Str("status", string(st.Status)).
		Str("reason", st.CloseReason).
		Msg("lobby closed")
	m.broadcast(st)
	if m.archiver != nil {
		if err := m.archiver.ArchiveLobby(ctx, st); err != nil {
			log.Warn().Err(err).Str("lobby_id", st.ID).Msg("lobby archive failed")
		}
	}
}

func (m *Manager) release(lobbyID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUser[userID] == lobbyID {
		delete(m.byUser, userID)
	}
}

func (m *Manager) broadcast(st State) {
	if m.broadcaster != nil {
		m.broadcaster.LobbyState(st)
	}
}
