package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/bot"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/rewards"
	"pokedotduel/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultTurnTimeout       = 60 * time.Second
	defaultReconnectGrace    = 30 * time.Second
	coordinatorSweepInterval = 500 * time.Millisecond
	endedRetention           = 10 * time.Minute
	eventBufferSize          = 500
)

type Options struct {
	Broadcaster Broadcaster
	Repo        Repository
	Teams       TeamStore
	Lobbies     LobbyResolver
	Rewards     RewardDispatcher
	Scheduler   *bot.Scheduler

	TurnTimeout              time.Duration
	ReconnectGrace           time.Duration
	ParalysisSpeedMultiplier float64

	// ThinkingDelay overrides bot.ThinkingDelay.
	ThinkingDelay func(d bot.Difficulty) time.Duration
	Rand          *rand.Rand
	Now           func() time.Time
}

type endedBattle struct {
	state  State
	buffer *EventBuffer
	at     time.Time
}

// Coordinator owns every live battle. Each battle serializes on its own
// runtime mutex; c.mu only guards the registries.
type Coordinator struct {
	broadcaster    Broadcaster
	repo           Repository
	teams          TeamStore
	lobbies        LobbyResolver
	rewards        RewardDispatcher
	scheduler      *bot.Scheduler
	turnTimeout    time.Duration
	reconnectGrace time.Duration
	paralysis      float64
	thinkingDelay  func(d bot.Difficulty) time.Duration
	now            func() time.Time
	rng            lockedSource

	mu      sync.Mutex
	battles map[string]*battleRuntime
	byUser  map[string]string
	ended   map[string]endedBattle
}

func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		broadcaster:    opts.Broadcaster,
		repo:           opts.Repo,
		teams:          opts.Teams,
		lobbies:        opts.Lobbies,
		rewards:        opts.Rewards,
		scheduler:      opts.Scheduler,
		turnTimeout:    opts.TurnTimeout,
		reconnectGrace: opts.ReconnectGrace,
		paralysis:      opts.ParalysisSpeedMultiplier,
		thinkingDelay:  opts.ThinkingDelay,
		now:            opts.Now,
		battles:        map[string]*battleRuntime{},
		byUser:         map[string]string{},
		ended:          map[string]endedBattle{},
	}
	if c.broadcaster == nil {
		c.broadcaster = nopBroadcaster{}
	}
	if c.scheduler == nil {
		c.scheduler = bot.NewScheduler()
	}
	if c.turnTimeout <= 0 {
		c.turnTimeout = defaultTurnTimeout
	}
	if c.reconnectGrace <= 0 {
		c.reconnectGrace = defaultReconnectGrace
	}
	if c.now == nil {
		c.now = time.Now
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.rng = lockedSource{mu: &sync.Mutex{}, r: r}
	if c.thinkingDelay == nil {
		c.thinkingDelay = func(d bot.Difficulty) time.Duration {
			return bot.ThinkingDelay(d, c.rng)
		}
	}
	return c
}

// StartBattle builds the engine for a lobby that went IN_PROGRESS. Side A
// is the lobby creator.
func (c *Coordinator) StartBattle(ctx context.Context, intent lobby.StartIntent) error {
	if intent.BattleID == "" {
		intent.BattleID = uuid.NewString()
	}
	teamA, err := c.resolveTeam(ctx, intent.TeamA)
	if err != nil {
		return fmt.Errorf("resolve team a: %w", err)
	}
	teamB, err := c.resolveTeam(ctx, intent.TeamB)
	if err != nil {
		return fmt.Errorf("resolve team b: %w", err)
	}
	difficulty, err := bot.ParseDifficulty(intent.BotDifficulty)
	if err != nil {
		difficulty = bot.Medium
	}

	now := c.now()
	rt := &battleRuntime{
		id:            intent.BattleID,
		lobbyID:       intent.LobbyID,
		seed:          intent.Seed,
		bracketID:     intent.BracketID,
		wager:         intent.WagerLamports,
		players:       [2]string{intent.PlayerA, intent.PlayerB},
		bots:          [2]bool{bot.IsBotUser(intent.PlayerA), bot.IsBotUser(intent.PlayerB)},
		botDifficulty: difficulty,
		engine: battle.NewEngine(
			battle.Team{Members: teamA},
			battle.Team{Members: teamB},
			battle.Options{Seed: seedValue(intent.Seed), ParalysisSpeedMultiplier: c.paralysis},
		),
		buffer:    NewEventBuffer(intent.BattleID, eventBufferSize),
		status:    StatusActive,
		connected: [2]bool{true, true},
		turnUntil: now.Add(c.turnTimeout),
		startedAt: now,
	}

	if err := c.register(rt); err != nil {
		return err
	}
	if err := c.repo.CreateBattle(ctx, store.Battle{
		ID:            rt.id,
		LobbyID:       rt.lobbyID,
		PlayerA:       rt.players[battle.SideA],
		PlayerB:       rt.players[battle.SideB],
		TeamA:         intent.TeamA,
		TeamB:         intent.TeamB,
		Seed:          rt.seed,
		BracketID:     rt.bracketID,
		WagerLamports: rt.wager,
		Status:        store.BattleStatusActive,
		StartedAt:     now,
	}); err != nil {
		c.unregister(rt)
		return fmt.Errorf("create battle: %w", err)
	}

	rt.mu.Lock()
	rt.buffer.Append("battle_start", map[string]any{
		"battle_id": rt.id,
		"seed":      rt.seed,
		"players":   rt.players,
	})
	c.scheduleBotsLocked(rt)
	rt.publish.Lock()
	rt.mu.Unlock()
	defer rt.publish.Unlock()

	metricBattlesStarted.Add(1)
	log.Info().
		Str("battle_id", rt.id).
		Str("lobby_id", rt.lobbyID).
		Str("player_a", rt.players[battle.SideA]).
		Str("player_b", rt.players[battle.SideB]).
		Msg("battle started")
	c.broadcaster.BattleStart(rt.id, rt.players, rt.seed)
	return nil
}

func (c *Coordinator) resolveTeam(ctx context.Context, teamID string) ([]battle.Pokemon, error) {
	if c.teams == nil {
		return nil, fmt.Errorf("%w: no team store", lobby.ErrInvalidTeam)
	}
	members, err := c.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", lobby.ErrInvalidTeam, teamID)
	}
	return members, nil
}

func (c *Coordinator) register(rt *battleRuntime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.battles[rt.id]; ok {
		return ErrBattleExists
	}
	if _, ok := c.ended[rt.id]; ok {
		return ErrBattleExists
	}
	for _, userID := range rt.players {
		if _, busy := c.byUser[userID]; busy {
			return ErrPlayerInBattle
		}
	}
	c.battles[rt.id] = rt
	for _, userID := range rt.players {
		c.byUser[userID] = rt.id
	}
	metricActiveBattles.Set(int64(len(c.battles)))
	return nil
}

func (c *Coordinator) unregister(rt *battleRuntime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.battles, rt.id)
	for _, userID := range rt.players {
		if c.byUser[userID] == rt.id {
			delete(c.byUser, userID)
		}
	}
	metricActiveBattles.Set(int64(len(c.battles)))
}

func (c *Coordinator) runtime(battleID string) (*battleRuntime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rt, ok := c.battles[battleID]; ok {
		return rt, nil
	}
	if _, ok := c.ended[battleID]; ok {
		return nil, ErrBattleEnded
	}
	return nil, ErrBattleNotFound
}

func (c *Coordinator) runtimeOf(userID string) *battleRuntime {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.byUser[userID]; ok {
		return c.battles[id]
	}
	return nil
}

type rejection struct {
	side   battle.Side
	userID string
	err    error
}

type turnOutcome struct {
	turn     int
	events   []battle.Event
	end      *endOutcome
	rejected *rejection
	err      error
}

type endOutcome struct {
	winnerSide int
	winner     string
	loser      string
	reason     string
	turns      int
	endedAt    time.Time
	state      State
}

// SubmitTurn buffers one side's action for turn. The turn resolves once
// both sides have submitted.
func (c *Coordinator) SubmitTurn(ctx context.Context, battleID, userID string, turn int, action battle.Action) error {
	rt, err := c.runtime(battleID)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	if rt.status != StatusActive {
		rt.mu.Unlock()
		return ErrBattleEnded
	}
	side, ok := rt.sideOf(userID)
	if !ok {
		rt.mu.Unlock()
		return ErrNotParticipant
	}
	if turn != rt.engine.Turn()+1 {
		rt.mu.Unlock()
		return ErrStaleTurn
	}
	if rt.pending[side] != nil {
		rt.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if err := rt.engine.ValidateAction(side, action); err != nil {
		rt.mu.Unlock()
		return err
	}
	a := action
	rt.pending[side] = &a
	if rt.pending[side.Other()] == nil {
		rt.mu.Unlock()
		return nil
	}
	out := c.resolveLocked(rt)
	if out.err == nil && out.rejected == nil {
		rt.publish.Lock()
		defer rt.publish.Unlock()
	}
	rt.mu.Unlock()

	if out.err != nil {
		log.Error().Err(out.err).Str("battle_id", rt.id).Msg("turn resolution failed")
		return out.err
	}
	if out.rejected != nil {
		if out.rejected.side == side {
			return out.rejected.err
		}
		c.rejectOther(rt, *out.rejected)
		return nil
	}
	c.afterTurn(ctx, rt, out)
	return nil
}

func (c *Coordinator) resolveLocked(rt *battleRuntime) turnOutcome {
	events, err := rt.engine.ResolveTurn(*rt.pending[battle.SideA], *rt.pending[battle.SideB])
	if err != nil {
		var ae *battle.ActionError
		if errors.As(err, &ae) {
			rt.pending[ae.Side] = nil
			return turnOutcome{rejected: &rejection{side: ae.Side, userID: rt.players[ae.Side], err: err}}
		}
		return turnOutcome{err: err}
	}
	rt.pending = [2]*battle.Action{}
	turn := rt.engine.Turn()
	metricTurnsResolved.Add(1)
	rt.buffer.Append("turn_result", map[string]any{"turn": turn, "events": events})

	out := turnOutcome{turn: turn, events: events}
	if rt.engine.IsOver() || rt.engine.IsDraw() {
		winner := -1
		if side, ok := rt.engine.Winner(); ok {
			winner = int(side)
		}
		end := c.endLocked(rt, winner, ReasonKO)
		out.end = &end
		return out
	}
	rt.turnUntil = c.now().Add(c.turnTimeout)
	c.scheduleBotsLocked(rt)
	return out
}

// rejectOther handles an action dropped at resolution time that belonged to
// the side that did not trigger the resolve.
func (c *Coordinator) rejectOther(rt *battleRuntime, rej rejection) {
	log.Warn().Err(rej.err).Str("battle_id", rt.id).Str("user_id", rej.userID).Msg("buffered action rejected")
	if rt.bots[rej.side] {
		rt.mu.Lock()
		c.scheduleBotsLocked(rt)
		rt.mu.Unlock()
		return
	}
	c.broadcaster.ActionRejected(rt.id, rej.userID, rej.err)
}

func (c *Coordinator) afterTurn(ctx context.Context, rt *battleRuntime, out turnOutcome) {
	if err := c.repo.AppendTranscript(ctx, rt.id, out.events); err != nil {
		log.Error().Err(err).Str("battle_id", rt.id).Int("turn", out.turn).Msg("persist transcript failed")
	}
	c.broadcaster.TurnResult(rt.id, out.turn, out.events)
	if out.end != nil {
		c.completeEnd(ctx, rt, *out.end)
	}
}

// endLocked marks the battle ended. winnerSide is -1 for a draw.
func (c *Coordinator) endLocked(rt *battleRuntime, winnerSide int, reason string) endOutcome {
	now := c.now()
	rt.status = StatusEnded
	rt.reason = reason
	rt.endedAt = now
	rt.turnUntil = time.Time{}
	rt.graceUntil = [2]time.Time{}
	rt.pending = [2]*battle.Action{}
	rt.cancelBotsLocked()

	out := endOutcome{
		winnerSide: winnerSide,
		reason:     reason,
		turns:      rt.engine.Turn(),
		endedAt:    now,
	}
	if winnerSide >= 0 {
		side := battle.Side(winnerSide)
		rt.winner = rt.players[side]
		rt.winnerSide = side.String()
		out.winner = rt.winner
		out.loser = rt.players[side.Other()]
	}
	rt.buffer.Append("battle_end", map[string]any{
		"winner":      rt.winner,
		"winner_side": rt.winnerSide,
		"reason":      reason,
		"turns":       out.turns,
	})
	out.state = rt.stateLocked()
	return out
}

func (c *Coordinator) completeEnd(ctx context.Context, rt *battleRuntime, end endOutcome) {
	winnerSide := ""
	if end.winnerSide >= 0 {
		winnerSide = battle.Side(end.winnerSide).String()
	}
	if err := c.repo.FinishBattle(ctx, rt.id, store.BattleResult{
		Winner:     end.winner,
		WinnerSide: winnerSide,
		Reason:     end.reason,
		Turns:      end.turns,
		EndedAt:    end.endedAt,
	}); err != nil {
		log.Error().Err(err).Str("battle_id", rt.id).Msg("persist battle result failed")
	}
	c.broadcaster.BattleEnd(rt.id, end.winner, end.reason)
	rt.buffer.Close()

	c.mu.Lock()
	delete(c.battles, rt.id)
	for _, userID := range rt.players {
		if c.byUser[userID] == rt.id {
			delete(c.byUser, userID)
		}
	}
	c.ended[rt.id] = endedBattle{state: end.state, buffer: rt.buffer, at: end.endedAt}
	metricActiveBattles.Set(int64(len(c.battles)))
	c.mu.Unlock()
	metricBattlesEnded.Add(1)

	log.Info().
		Str("battle_id", rt.id).
		Str("lobby_id", rt.lobbyID).
		Str("winner", end.winner).
		Str("reason", end.reason).
		Int("turns", end.turns).
		Msg("battle ended")

	if c.lobbies != nil && rt.lobbyID != "" {
		if err := c.lobbies.Resolve(ctx, rt.lobbyID); err != nil {
			log.Warn().Err(err).Str("battle_id", rt.id).Str("lobby_id", rt.lobbyID).Msg("lobby resolve failed")
		}
	}
	if c.rewards != nil {
		c.rewards.Dispatch(rewards.Outcome{
			BattleID:      rt.id,
			LobbyID:       rt.lobbyID,
			Players:       rt.players,
			Humans:        rt.humans(),
			Winner:        end.winner,
			Loser:         end.loser,
			Draw:          end.winnerSide < 0,
			Reason:        end.reason,
			WagerLamports: rt.wager,
			BracketID:     rt.bracketID,
			Turns:         end.turns,
			EndedAt:       end.endedAt,
		})
	}
}

// Forfeit ends the battle in favour of the caller's opponent.
func (c *Coordinator) Forfeit(ctx context.Context, battleID, userID string) error {
	rt, err := c.runtime(battleID)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	if rt.status != StatusActive {
		rt.mu.Unlock()
		return ErrBattleEnded
	}
	side, ok := rt.sideOf(userID)
	if !ok {
		rt.mu.Unlock()
		return ErrNotParticipant
	}
	end := c.endLocked(rt, int(side.Other()), ReasonForfeit)
	rt.publish.Lock()
	rt.mu.Unlock()
	defer rt.publish.Unlock()

	metricForfeits.Add(1)
	c.completeEnd(ctx, rt, end)
	return nil
}

// Disconnect starts the reconnect grace window for the user's battle side.
func (c *Coordinator) Disconnect(userID string) bool {
	rt := c.runtimeOf(userID)
	if rt == nil {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	side, ok := rt.sideOf(userID)
	if !ok || rt.status != StatusActive || !rt.connected[side] {
		return false
	}
	deadline := c.now().Add(c.reconnectGrace)
	rt.connected[side] = false
	rt.graceUntil[side] = deadline
	rt.buffer.Append("player_disconnected", map[string]any{
		"user_id":     userID,
		"grace_ms":    c.reconnectGrace.Milliseconds(),
		"deadline_ts": deadline.UnixMilli(),
	})
	log.Info().Str("battle_id", rt.id).Str("user_id", userID).Dur("grace", c.reconnectGrace).Msg("battle reconnect grace started")
	return true
}

// Reconnect restores a disconnected side within its grace window and sends
// the current state to the user.
func (c *Coordinator) Reconnect(userID string) (State, bool) {
	rt := c.runtimeOf(userID)
	if rt == nil {
		return State{}, false
	}
	rt.mu.Lock()
	side, ok := rt.sideOf(userID)
	if !ok || rt.status != StatusActive {
		rt.mu.Unlock()
		return State{}, false
	}
	if !rt.connected[side] {
		if c.now().After(rt.graceUntil[side]) {
			rt.mu.Unlock()
			return State{}, false
		}
		rt.connected[side] = true
		rt.graceUntil[side] = time.Time{}
		rt.buffer.Append("player_reconnected", map[string]any{"user_id": userID})
		log.Info().Str("battle_id", rt.id).Str("user_id", userID).Msg("battle participant reconnected")
	}
	st := rt.stateLocked()
	rt.mu.Unlock()

	c.broadcaster.BattleState(userID, st)
	return st, true
}

// RunJanitor enforces turn deadlines and reconnect grace until ctx ends.
func (c *Coordinator) RunJanitor(ctx context.Context) error {
	ticker := time.NewTicker(coordinatorSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.scheduler.Stop()
			return nil
		case <-ticker.C:
			c.sweep(ctx, c.now())
		}
	}
}

func (c *Coordinator) sweep(ctx context.Context, now time.Time) {
	c.mu.Lock()
	live := make([]*battleRuntime, 0, len(c.battles))
	for _, rt := range c.battles {
		live = append(live, rt)
	}
	for id, e := range c.ended {
		if now.Sub(e.at) > endedRetention {
			delete(c.ended, id)
		}
	}
	c.mu.Unlock()

	for _, rt := range live {
		rt.mu.Lock()
		if rt.status != StatusActive {
			rt.mu.Unlock()
			continue
		}
		forfeiter := -1
		reason := ""
		for _, side := range []battle.Side{battle.SideA, battle.SideB} {
			if !rt.connected[side] && !rt.graceUntil[side].IsZero() && now.After(rt.graceUntil[side]) {
				forfeiter = int(side)
				reason = ReasonForfeit
				break
			}
		}
		if forfeiter < 0 && !rt.turnUntil.IsZero() && now.After(rt.turnUntil) {
			// Side A forfeits when neither side submitted.
			forfeiter = int(battle.SideA)
			if rt.pending[battle.SideA] != nil {
				forfeiter = int(battle.SideB)
			}
			reason = ReasonTimeout
		}
		if forfeiter < 0 {
			rt.mu.Unlock()
			continue
		}
		end := c.endLocked(rt, 1-forfeiter, reason)
		rt.publish.Lock()
		rt.mu.Unlock()

		if reason == ReasonTimeout {
			metricTimeouts.Add(1)
		} else {
			metricForfeits.Add(1)
		}
		log.Info().Str("battle_id", rt.id).Str("forfeiter", rt.players[forfeiter]).Str("reason", reason).Msg("battle auto-forfeited")
		c.completeEnd(ctx, rt, end)
		rt.publish.Unlock()
	}
}

func (c *Coordinator) scheduleBotsLocked(rt *battleRuntime) {
	turn := rt.engine.Turn() + 1
	for _, side := range []battle.Side{battle.SideA, battle.SideB} {
		if !rt.bots[side] || rt.pending[side] != nil || rt.botCancel[side] != nil {
			continue
		}
		s := side
		rt.botCancel[side] = c.scheduler.Schedule(c.thinkingDelay(rt.botDifficulty), func() {
			c.playBot(rt, s, turn)
		})
	}
}

func (c *Coordinator) playBot(rt *battleRuntime, side battle.Side, turn int) {
	rt.mu.Lock()
	rt.botCancel[side] = nil
	opponent, ok := bot.Target(rt.engine.Team(side.Other()))
	if rt.status != StatusActive || rt.engine.Turn()+1 != turn || rt.pending[side] != nil || !ok {
		rt.mu.Unlock()
		return
	}
	view := bot.View{Self: rt.engine.Team(side), Opponent: opponent}
	action := bot.Choose(view, rt.botDifficulty, c.rng)
	userID := rt.players[side]
	rt.mu.Unlock()

	if err := c.SubmitTurn(context.Background(), rt.id, userID, turn, action); err != nil {
		log.Warn().Err(err).Str("battle_id", rt.id).Str("user_id", userID).Int("turn", turn).Msg("bot action rejected")
	}
}

// State returns a live battle or one that ended recently.
func (c *Coordinator) State(battleID string) (State, error) {
	c.mu.Lock()
	rt, live := c.battles[battleID]
	ended, wasEnded := c.ended[battleID]
	c.mu.Unlock()
	if live {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		return rt.stateLocked(), nil
	}
	if wasEnded {
		return ended.state, nil
	}
	return State{}, ErrBattleNotFound
}

// List returns the live battles.
func (c *Coordinator) List() []State {
	c.mu.Lock()
	live := make([]*battleRuntime, 0, len(c.battles))
	for _, rt := range c.battles {
		live = append(live, rt)
	}
	c.mu.Unlock()

	out := make([]State, 0, len(live))
	for _, rt := range live {
		rt.mu.Lock()
		out = append(out, rt.stateLocked())
		rt.mu.Unlock()
	}
	sortStates(out)
	return out
}

func (c *Coordinator) BattleOf(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byUser[userID]
	return id, ok
}

// Replay returns buffered events after the given event id.
func (c *Coordinator) Replay(battleID string, after int64) ([]StreamEvent, error) {
	buf, err := c.buffer(battleID)
	if err != nil {
		return nil, err
	}
	return buf.ReplayAfter(after), nil
}

// Subscribe streams new events of a battle. The channel is closed when the
// battle ends; cancel detaches early.
func (c *Coordinator) Subscribe(battleID string) (<-chan StreamEvent, func(), error) {
	buf, err := c.buffer(battleID)
	if err != nil {
		return nil, nil, err
	}
	ch := buf.Subscribe()
	return ch, func() { buf.Unsubscribe(ch) }, nil
}

func (c *Coordinator) buffer(battleID string) (*EventBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rt, ok := c.battles[battleID]; ok {
		return rt.buffer, nil
	}
	if e, ok := c.ended[battleID]; ok {
		return e.buffer, nil
	}
	return nil, ErrBattleNotFound
}

// seedValue accepts numeric seeds as-is and hashes anything else.
func seedValue(seed string) uint64 {
	if v, err := strconv.ParseUint(seed, 10, 64); err == nil {
		return v
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return h.Sum64()
}

type lockedSource struct {
	mu *sync.Mutex
	r  *rand.Rand
}

func (s lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

func (s lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

type nopBroadcaster struct{}

func (nopBroadcaster) BattleStart(string, [2]string, string) {}
func (nopBroadcaster) TurnResult(string, int, []battle.Event) {}
func (nopBroadcaster) BattleEnd(string, string, string) {}
func (nopBroadcaster) BattleState(string, State) {}
func (nopBroadcaster) ActionRejected(string, string, error) {}
