package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTickInterval = 5 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute
)

var ErrAlreadyQueued = errors.New("already_queued")

// UnpairableError reports a queued lobby that can never be paired again,
// for example one that filled up or closed while waiting. The matchmaker
// drops its entry instead of requeueing it.
type UnpairableError struct {
	LobbyID string
	Err     error
}

func (e *UnpairableError) Error() string {
	return fmt.Sprintf("lobby %s unpairable: %v", e.LobbyID, e.Err)
}

func (e *UnpairableError) Unwrap() error { return e.Err }

// Pairer receives matched lobby pairs and idle evictions.
type Pairer interface {
	PairLobbies(ctx context.Context, hostLobbyID, guestLobbyID string) error
	QueueExpired(ctx context.Context, lobbyID string)
}

type Options struct {
	Brackets     []Bracket
	TickInterval time.Duration
	IdleTimeout  time.Duration
	Now          func() time.Time
}

type QueueStatus struct {
	BracketID            int    `json:"bracket_id"`
	BracketName          string `json:"bracket_name"`
	QueueLength          int    `json:"queue_length"`
	EstimatedWaitSeconds int    `json:"estimated_wait_seconds"`
}

type entry struct {
	lobbyID      string
	bracketID    int
	enqueuedAt   time.Time
	lastActivity time.Time
}

type Matchmaker struct {
	pairer   Pairer
	brackets []Bracket
	tick     time.Duration
	idle     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	queues  map[int][]*entry
	entries map[string]*entry
}

func New(pairer Pairer, opts Options) (*Matchmaker, error) {
	brackets := opts.Brackets
	if len(brackets) == 0 {
		brackets = DefaultBrackets
	}
	if err := ValidateBrackets(brackets); err != nil {
		return nil, err
	}
	m := &Matchmaker{
		pairer:   pairer,
		brackets: append([]Bracket(nil), brackets...),
		tick:     opts.TickInterval,
		idle:     opts.IdleTimeout,
		now:      opts.Now,
		queues:   make(map[int][]*entry, len(brackets)),
		entries:  map[string]*entry{},
	}
	if m.tick <= 0 {
		m.tick = DefaultTickInterval
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

func (m *Matchmaker) Brackets() []Bracket {
	return append([]Bracket(nil), m.brackets...)
}

func (m *Matchmaker) BracketForWager(wager int64) (Bracket, error) {
	return BracketForWager(m.brackets, wager)
}

// Enqueue adds the lobby to the back of the bracket queue. Enqueueing a lobby
// already waiting in the same bracket is a no-op.
func (m *Matchmaker) Enqueue(lobbyID string, bracketID int) error {
	if _, ok := findBracket(m.brackets, bracketID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBracket, bracketID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[lobbyID]; ok {
		if e.bracketID == bracketID {
			return nil
		}
		return fmt.Errorf("%w: lobby %s in bracket %d", ErrAlreadyQueued, lobbyID, e.bracketID)
	}
	now := m.now()
	e := &entry{lobbyID: lobbyID, bracketID: bracketID, enqueuedAt: now, lastActivity: now}
	m.entries[lobbyID] = e
	m.queues[bracketID] = append(m.queues[bracketID], e)
	metricEnqueueTotal.Add(1)
	metricQueuedLobbiesNow.Set(int64(len(m.entries)))
	return nil
}

// Dequeue removes the lobby from the bracket queue and reports whether it was
// there.
func (m *Matchmaker) Dequeue(lobbyID string, bracketID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[lobbyID]
	if !ok || e.bracketID != bracketID {
		return false
	}
	m.removeLocked(e)
	return true
}

// Remove drops the lobby from whichever bracket it waits in.
func (m *Matchmaker) Remove(lobbyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[lobbyID]
	if !ok {
		return false
	}
	m.removeLocked(e)
	return true
}

func (m *Matchmaker) removeLocked(e *entry) {
	q := m.queues[e.bracketID]
	for i := range q {
		if q[i] == e {
			m.queues[e.bracketID] = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	delete(m.entries, e.lobbyID)
	metricQueuedLobbiesNow.Set(int64(len(m.entries)))
}

func (m *Matchmaker) Touch(lobbyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[lobbyID]
	if ok {
		e.lastActivity = m.now()
	}
	return ok
}

// Position returns the bracket and 1-based queue position of a lobby.
func (m *Matchmaker) Position(lobbyID string) (bracketID, position int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, found := m.entries[lobbyID]
	if !found {
		return 0, 0, false
	}
	for i, q := range m.queues[e.bracketID] {
		if q == e {
			return e.bracketID, i + 1, true
		}
	}
	return 0, 0, false
}

func (m *Matchmaker) Status(bracketID int) (QueueStatus, error) {
	b, ok := findBracket(m.brackets, bracketID)
	if !ok {
		return QueueStatus{}, fmt.Errorf("%w: %d", ErrUnknownBracket, bracketID)
	}
	m.mu.Lock()
	n := len(m.queues[bracketID])
	m.mu.Unlock()
	return QueueStatus{
		BracketID:            b.ID,
		BracketName:          b.Name,
		QueueLength:          n,
		EstimatedWaitSeconds: estimatedWait(n),
	}, nil
}

func (m *Matchmaker) Statuses() []QueueStatus {
	out := make([]QueueStatus, 0, len(m.brackets))
	for _, b := range m.brackets {
		st, _ := m.Status(b.ID)
		out = append(out, st)
	}
	return out
}

func estimatedWait(queueLength int) int {
	switch {
	case queueLength >= 2:
		return 5
	case queueLength == 1:
		return 15
	default:
		return 30
	}
}

// Run ticks until ctx is done.
func (m *Matchmaker) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Tick(ctx, m.now())
		}
	}
}

// Tick pairs waiting lobbies oldest first and then evicts idle entries.
func (m *Matchmaker) Tick(ctx context.Context, now time.Time) {
	for _, b := range m.brackets {
		m.pairBracket(ctx, b.ID)
	}
	m.evictIdle(ctx, now)
}

func (m *Matchmaker) pairBracket(ctx context.Context, bracketID int) {
	for {
		m.mu.Lock()
		q := m.queues[bracketID]
		if len(q) < 2 {
			m.mu.Unlock()
			return
		}
		host, guest := q[0], q[1]
		m.queues[bracketID] = append(q[:0:0], q[2:]...)
		delete(m.entries, host.lobbyID)
		delete(m.entries, guest.lobbyID)
		metricQueuedLobbiesNow.Set(int64(len(m.entries)))
		m.mu.Unlock()

		err := m.pairer.PairLobbies(ctx, host.lobbyID, guest.lobbyID)
		if err == nil {
			metricPairTotal.Add(1)
			log.Info().
				Int("bracket_id", bracketID).
				Str("host_lobby_id", host.lobbyID).
				Str("guest_lobby_id", guest.lobbyID).
				Msg("matchmaking paired lobbies")
			continue
		}
		metricPairErrorsTotal.Add(1)
		var dead *UnpairableError
		if errors.As(err, &dead) && (dead.LobbyID == host.lobbyID || dead.LobbyID == guest.lobbyID) {
			metricDroppedTotal.Add(1)
			log.Warn().
				Err(err).
				Int("bracket_id", bracketID).
				Str("dropped_lobby_id", dead.LobbyID).
				Msg("matchmaking dropped unpairable lobby")
			if dead.LobbyID == host.lobbyID {
				m.requeueFront(bracketID, guest)
			} else {
				m.requeueFront(bracketID, host)
			}
			continue
		}
		log.Warn().
			Err(err).
			Int("bracket_id", bracketID).
			Str("host_lobby_id", host.lobbyID).
			Str("guest_lobby_id", guest.lobbyID).
			Msg("matchmaking pair failed, requeueing")
		m.requeueFront(bracketID, host, guest)
		return
	}
}

func (m *Matchmaker) requeueFront(bracketID int, pair ...*entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	front := make([]*entry, 0, len(pair))
	for _, e := range pair {
		if _, exists := m.entries[e.lobbyID]; exists {
			continue
		}
		m.entries[e.lobbyID] = e
		front = append(front, e)
	}
	m.queues[bracketID] = append(front, m.queues[bracketID]...)
	metricQueuedLobbiesNow.Set(int64(len(m.entries)))
}

func (m *Matchmaker) evictIdle(ctx context.Context, now time.Time) {
	m.mu.Lock()
	var expired []string
	for _, b := range m.brackets {
		for _, e := range m.queues[b.ID] {
			if now.Sub(e.lastActivity) > m.idle {
				expired = append(expired, e.lobbyID)
			}
		}
	}
	for _, id := range expired {
		m.removeLocked(m.entries[id])
	}
	m.mu.Unlock()

	for _, id := range expired {
		metricEvictedTotal.Add(1)
		log.Info().Str("lobby_id", id).Msg("matchmaking evicted idle lobby")
		m.pairer.QueueExpired(ctx, id)
	}
}
