package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/bot"
	"pokedotduel/internal/dex"
	"pokedotduel/internal/lobby"
	"pokedotduel/internal/rewards"
	"pokedotduel/internal/store"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	starts   []string
	turns    []int
	ends     []string
	states   map[string]State
	rejected []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{states: map[string]State{}}
}

func (b *recordingBroadcaster) BattleStart(battleID string, _ [2]string, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts = append(b.starts, battleID)
}

func (b *recordingBroadcaster) TurnResult(_ string, turn int, _ []battle.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, turn)
}

func (b *recordingBroadcaster) BattleEnd(_, winner, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends = append(b.ends, winner+"|"+reason)
}

func (b *recordingBroadcaster) BattleState(userID string, st State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[userID] = st
}

func (b *recordingBroadcaster) ActionRejected(_, userID string, _ error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected = append(b.rejected, userID)
}

func (b *recordingBroadcaster) Turns() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.turns...)
}

func (b *recordingBroadcaster) Ends() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ends...)
}

type resolverRecorder struct {
	mu       sync.Mutex
	resolved []string
}

func (r *resolverRecorder) Resolve(_ context.Context, lobbyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, lobbyID)
	return nil
}

type rewardRecorder struct {
	mu       sync.Mutex
	outcomes []rewards.Outcome
}

func (r *rewardRecorder) Dispatch(o rewards.Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return true
}

func (r *rewardRecorder) Outcomes() []rewards.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rewards.Outcome(nil), r.outcomes...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type harness struct {
	coord   *Coordinator
	bc      *recordingBroadcaster
	repo    *store.MemoryStore
	lobbies *resolverRecorder
	rewards *rewardRecorder
	clock   *clock
	sched   *bot.Scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithRepo(t, nil)
}

// newHarnessWithRepo lets wrap decorate the memory store the coordinator
// writes through.
func newHarnessWithRepo(t *testing.T, wrap func(*store.MemoryStore) Repository) *harness {
	t.Helper()
	h := &harness{
		bc:      newRecordingBroadcaster(),
		repo:    store.NewMemoryStore(),
		lobbies: &resolverRecorder{},
		rewards: &rewardRecorder{},
		clock:   &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
		sched:   bot.NewScheduler(),
	}
	var repo Repository = h.repo
	if wrap != nil {
		repo = wrap(h.repo)
	}
	h.coord = NewCoordinator(Options{
		Broadcaster:    h.bc,
		Repo:           repo,
		Teams:          dex.Default(),
		Lobbies:        h.lobbies,
		Rewards:        h.rewards,
		Scheduler:      h.sched,
		TurnTimeout:    60 * time.Second,
		ReconnectGrace: 30 * time.Second,
		ThinkingDelay:  func(bot.Difficulty) time.Duration { return time.Millisecond },
		Rand:           rand.New(rand.NewSource(7)),
		Now:            h.clock.Now,
	})
	t.Cleanup(h.sched.Stop)
	return h
}

func (h *harness) start(t *testing.T, battleID, a, b, teamA, teamB string) {
	t.Helper()
	err := h.coord.StartBattle(context.Background(), lobby.StartIntent{
		LobbyID:       "lobby-" + battleID,
		BattleID:      battleID,
		Seed:          "42",
		BracketID:     1,
		WagerLamports: 20_000_000,
		PlayerA:       a,
		PlayerB:       b,
		TeamA:         teamA,
		TeamB:         teamB,
	})
	if err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
}

func tackle() battle.Action {
	return battle.Action{Kind: battle.ActionMove, MoveID: "tackle"}
}

func TestTurnBuffering(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	if err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, tackle()); err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if len(h.bc.Turns()) != 0 {
		t.Fatal("one submission must not resolve the turn")
	}
	st, err := h.coord.State("b1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !st.Submitted[battle.SideA] || st.Submitted[battle.SideB] || st.Turn != 0 {
		t.Fatalf("unexpected state after one submission: %+v", st)
	}
	if err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, tackle()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second alice submit err = %v, want ErrAlreadySubmitted", err)
	}

	if err := h.coord.SubmitTurn(ctx, "b1", "bob", 1, tackle()); err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if turns := h.bc.Turns(); len(turns) != 1 || turns[0] != 1 {
		t.Fatalf("turn results = %v, want [1]", turns)
	}
	if err := h.coord.SubmitTurn(ctx, "b1", "bob", 1, tackle()); !errors.Is(err, ErrStaleTurn) {
		t.Fatalf("stale submit err = %v, want ErrStaleTurn", err)
	}

	transcript, err := h.repo.ListTranscript(ctx, "b1")
	if err != nil || len(transcript) == 0 {
		t.Fatalf("transcript = %v, %v", transcript, err)
	}
	st, _ = h.coord.State("b1")
	if st.Turn != 1 || st.Submitted[battle.SideA] || st.Submitted[battle.SideB] {
		t.Fatalf("unexpected state after resolve: %+v", st)
	}
}

func TestSubmitTurnValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, battle.Action{Kind: battle.ActionMove, MoveID: "psychic"})
	if !errors.Is(err, battle.ErrUnknownMove) {
		t.Fatalf("unknown move err = %v", err)
	}
	if code, _ := MapError(err); code != "UNKNOWN_MOVE" {
		t.Fatalf("code = %s, want UNKNOWN_MOVE", code)
	}
	st, _ := h.coord.State("b1")
	if st.Submitted[battle.SideA] {
		t.Fatal("rejected action must not be buffered")
	}
	if err := h.coord.SubmitTurn(ctx, "b1", "mallory", 1, tackle()); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("outsider err = %v", err)
	}
	if err := h.coord.SubmitTurn(ctx, "missing", "alice", 1, tackle()); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("missing battle err = %v", err)
	}
	if err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, battle.Action{Kind: battle.ActionSwitch, Switch: 0}); !errors.Is(err, battle.ErrInvalidSwitch) {
		t.Fatalf("switch to active err = %v", err)
	}
}

func TestStartBattleRejectsBusyPlayerAndBadTeam(t *testing.T) {
	h := newHarness(t)
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	err := h.coord.StartBattle(context.Background(), lobby.StartIntent{
		BattleID: "b2", PlayerA: "alice", PlayerB: "carol", TeamA: "dex:pikachu", TeamB: "dex:pikachu",
	})
	if !errors.Is(err, ErrPlayerInBattle) {
		t.Fatalf("busy player err = %v", err)
	}
	err = h.coord.StartBattle(context.Background(), lobby.StartIntent{
		BattleID: "b3", PlayerA: "dave", PlayerB: "erin", TeamA: "dex:missingno", TeamB: "dex:pikachu",
	})
	if err == nil {
		t.Fatal("expected unknown species to fail")
	}
	if _, ok := h.coord.BattleOf("dave"); ok {
		t.Fatal("failed start must not register players")
	}
}

func TestForfeitIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	if err := h.coord.Forfeit(ctx, "b1", "alice"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	if err := h.coord.Forfeit(ctx, "b1", "alice"); !errors.Is(err, ErrBattleEnded) {
		t.Fatalf("second forfeit err = %v, want ErrBattleEnded", err)
	}
	if err := h.coord.Forfeit(ctx, "b1", "bob"); !errors.Is(err, ErrBattleEnded) {
		t.Fatalf("opponent forfeit err = %v, want ErrBattleEnded", err)
	}

	outcomes := h.rewards.Outcomes()
	if len(outcomes) != 1 {
		t.Fatalf("reward dispatches = %d, want 1", len(outcomes))
	}
	if outcomes[0].Winner != "bob" || outcomes[0].Loser != "alice" || outcomes[0].Reason != ReasonForfeit {
		t.Fatalf("unexpected outcome: %+v", outcomes[0])
	}
	if ends := h.bc.Ends(); len(ends) != 1 || ends[0] != "bob|Forfeit" {
		t.Fatalf("battle end broadcasts = %v", ends)
	}
	if len(h.lobbies.resolved) != 1 || h.lobbies.resolved[0] != "lobby-b1" {
		t.Fatalf("resolved lobbies = %v", h.lobbies.resolved)
	}
	rec, err := h.repo.GetBattle(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBattle: %v", err)
	}
	if rec.Status != store.BattleStatusEnded || rec.Winner != "bob" || rec.WinnerSide != "B" {
		t.Fatalf("persisted battle = %+v", rec)
	}
	st, err := h.coord.State("b1")
	if err != nil || st.Status != StatusEnded {
		t.Fatalf("ended state = %+v, %v", st, err)
	}
	if _, ok := h.coord.BattleOf("alice"); ok {
		t.Fatal("players should be released after the battle ends")
	}
}

// gatedRepo blocks AppendTranscript until release is closed and records
// the order of transcript and result writes.
type gatedRepo struct {
	*store.MemoryStore
	entered chan struct{}
	release chan struct{}

	mu  sync.Mutex
	ops []string
}

func (g *gatedRepo) AppendTranscript(ctx context.Context, battleID string, events []battle.Event) error {
	g.entered <- struct{}{}
	<-g.release
	g.record("transcript")
	return g.MemoryStore.AppendTranscript(ctx, battleID, events)
}

func (g *gatedRepo) FinishBattle(ctx context.Context, battleID string, res store.BattleResult) error {
	g.record("finish")
	return g.MemoryStore.FinishBattle(ctx, battleID, res)
}

func (g *gatedRepo) record(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = append(g.ops, op)
}

func (g *gatedRepo) Ops() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.ops...)
}

func TestForfeitDuringTurnPublishWaitsForTurnResult(t *testing.T) {
	gate := &gatedRepo{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarnessWithRepo(t, func(m *store.MemoryStore) Repository {
		gate.MemoryStore = m
		return gate
	})
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	if err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, tackle()); err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	turnDone := make(chan error, 1)
	go func() { turnDone <- h.coord.SubmitTurn(ctx, "b1", "bob", 1, tackle()) }()
	<-gate.entered

	forfeitDone := make(chan error, 1)
	go func() { forfeitDone <- h.coord.Forfeit(ctx, "b1", "alice") }()
	time.Sleep(50 * time.Millisecond)
	if ends := h.bc.Ends(); len(ends) != 0 {
		t.Fatalf("battle end published before turn result: %v", ends)
	}
	close(gate.release)

	if err := <-turnDone; err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if err := <-forfeitDone; err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	if turns := h.bc.Turns(); len(turns) != 1 || turns[0] != 1 {
		t.Fatalf("turn results = %v, want [1]", turns)
	}
	if ends := h.bc.Ends(); len(ends) != 1 || ends[0] != "bob|Forfeit" {
		t.Fatalf("battle end broadcasts = %v", ends)
	}
	if ops := gate.Ops(); len(ops) != 2 || ops[0] != "transcript" || ops[1] != "finish" {
		t.Fatalf("repository writes = %v, want [transcript finish]", ops)
	}
}

func TestBattleRunsToKO(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:pikachu", "dex:charmander")

	pick := func(st State, side battle.Side) battle.Action {
		p := st.Teams[side].ActivePokemon()
		for _, m := range p.Moves {
			if m.PP > 0 && m.Power > 0 {
				return battle.Action{Kind: battle.ActionMove, MoveID: m.ID}
			}
		}
		t.Fatal("no usable move")
		return battle.Action{}
	}
	for i := 0; i < 100; i++ {
		st, err := h.coord.State("b1")
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if st.Status == StatusEnded {
			break
		}
		if err := h.coord.SubmitTurn(ctx, "b1", "alice", st.Turn+1, pick(st, battle.SideA)); err != nil {
			t.Fatalf("alice turn %d: %v", st.Turn+1, err)
		}
		if err := h.coord.SubmitTurn(ctx, "b1", "bob", st.Turn+1, pick(st, battle.SideB)); err != nil {
			t.Fatalf("bob turn %d: %v", st.Turn+1, err)
		}
	}

	st, err := h.coord.State("b1")
	if err != nil || st.Status != StatusEnded || st.Reason != ReasonKO {
		t.Fatalf("final state = %+v, %v", st, err)
	}
	outcomes := h.rewards.Outcomes()
	if len(outcomes) != 1 || len(outcomes[0].Humans) != 2 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if !outcomes[0].Draw && outcomes[0].Winner != st.Winner {
		t.Fatalf("outcome winner %q != state winner %q", outcomes[0].Winner, st.Winner)
	}
	events, err := h.coord.Replay("b1", 0)
	if err != nil || len(events) < 3 {
		t.Fatalf("replay = %d events, %v", len(events), err)
	}
	if events[0].Event != "battle_start" || events[len(events)-1].Event != "battle_end" {
		t.Fatalf("unexpected replay bounds: %s .. %s", events[0].Event, events[len(events)-1].Event)
	}
}

func TestTurnTimeoutForfeitsIdleSide(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	if err := h.coord.SubmitTurn(ctx, "b1", "bob", 1, tackle()); err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	h.coord.sweep(ctx, h.clock.Advance(30*time.Second))
	if st, _ := h.coord.State("b1"); st.Status != StatusActive {
		t.Fatal("battle should stay active before the deadline")
	}
	h.coord.sweep(ctx, h.clock.Advance(31*time.Second))
	st, _ := h.coord.State("b1")
	if st.Status != StatusEnded || st.Winner != "bob" || st.Reason != ReasonTimeout {
		t.Fatalf("state after timeout = %+v", st)
	}
}

func TestTurnTimeoutWithNoSubmissionsForfeitsSideA(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	h.coord.sweep(ctx, h.clock.Advance(61*time.Second))
	st, _ := h.coord.State("b1")
	if st.Status != StatusEnded || st.Winner != "bob" || st.WinnerSide != "B" || st.Reason != ReasonTimeout {
		t.Fatalf("state after timeout = %+v", st)
	}
}

func TestReconnectWithinGraceKeepsBattle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	if !h.coord.Disconnect("alice") {
		t.Fatal("expected disconnect to start grace")
	}
	if h.coord.Disconnect("alice") {
		t.Fatal("second disconnect should be a no-op")
	}
	h.coord.sweep(ctx, h.clock.Advance(10*time.Second))
	st, ok := h.coord.Reconnect("alice")
	if !ok || st.Status != StatusActive || !st.Connected[battle.SideA] {
		t.Fatalf("reconnect = %+v, %v", st, ok)
	}
	h.bc.mu.Lock()
	_, sent := h.bc.states["alice"]
	h.bc.mu.Unlock()
	if !sent {
		t.Fatal("reconnect should push the battle state to the user")
	}
	h.coord.sweep(ctx, h.clock.Advance(25*time.Second))
	if st, _ := h.coord.State("b1"); st.Status != StatusActive {
		t.Fatal("reconnected battle should stay active")
	}
}

func TestGraceExpiryForfeits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")

	h.coord.Disconnect("bob")
	h.coord.sweep(ctx, h.clock.Advance(31*time.Second))
	st, _ := h.coord.State("b1")
	if st.Status != StatusEnded || st.Winner != "alice" || st.Reason != ReasonForfeit {
		t.Fatalf("state after grace expiry = %+v", st)
	}
	if _, ok := h.coord.Reconnect("bob"); ok {
		t.Fatal("reconnect after the battle ended should fail")
	}
}

func TestEndedBattleExpiresFromCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")
	if err := h.coord.Forfeit(ctx, "b1", "bob"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	h.coord.sweep(ctx, h.clock.Advance(9*time.Minute))
	if _, err := h.coord.State("b1"); err != nil {
		t.Fatalf("ended battle should still be queryable: %v", err)
	}
	h.coord.sweep(ctx, h.clock.Advance(2*time.Minute))
	if _, err := h.coord.State("b1"); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("State after retention err = %v", err)
	}
}

func TestBotOpponentActs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bot:1", "dex:blastoise", "dex:squirtle")

	surf := battle.Action{Kind: battle.ActionMove, MoveID: "surf"}
	if err := h.coord.SubmitTurn(ctx, "b1", "alice", 1, surf); err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(h.bc.Turns()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if turns := h.bc.Turns(); len(turns) != 1 || turns[0] != 1 {
		t.Fatalf("turn results = %v, want [1]", turns)
	}

	if err := h.coord.Forfeit(ctx, "b1", "alice"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	if n := h.sched.Pending(); n != 0 {
		t.Fatalf("pending bot callbacks = %d, want 0", n)
	}
	outcomes := h.rewards.Outcomes()
	if len(outcomes) != 1 || len(outcomes[0].Humans) != 1 || outcomes[0].Humans[0] != "alice" {
		t.Fatalf("outcomes = %+v", outcomes)
	}
}

func TestListAndSubscribe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.start(t, "b1", "alice", "bob", "dex:squirtle", "dex:bulbasaur")
	h.start(t, "b2", "carol", "dave", "dex:pikachu", "dex:gengar")

	if got := h.coord.List(); len(got) != 2 || got[0].BattleID != "b1" {
		t.Fatalf("List = %+v", got)
	}
	ch, cancel, err := h.coord.Subscribe("b1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()
	if err := h.coord.Forfeit(ctx, "b1", "alice"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	ev, ok := <-ch
	if !ok || ev.Event != "battle_end" {
		t.Fatalf("subscriber got %+v, %v", ev, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("subscription should close when the battle ends")
	}
	if got := h.coord.List(); len(got) != 1 || got[0].BattleID != "b2" {
		t.Fatalf("List after end = %+v", got)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{ErrBattleNotFound, "NOT_FOUND"},
		{ErrBattleEnded, "BATTLE_ENDED"},
		{battle.ErrBattleOver, "BATTLE_ENDED"},
		{ErrStaleTurn, "STALE_TURN"},
		{ErrAlreadySubmitted, "ALREADY_SUBMITTED"},
		{ErrNotParticipant, "NOT_PARTICIPANT"},
		{&battle.ActionError{Side: battle.SideA, Err: battle.ErrNoPP}, "NO_PP"},
		{&battle.ActionError{Side: battle.SideB, Err: battle.ErrMustSwitch}, "MUST_SWITCH"},
		{battle.ErrInvalidSwitch, "INVALID_SWITCH"},
		{battle.ErrInvalidAction, "INVALID_ACTION"},
		{errors.New("boom"), "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		if code, _ := MapError(tc.err); code != tc.code {
			t.Fatalf("MapError(%v) = %s, want %s", tc.err, code, tc.code)
		}
	}
}
