package bot

import (
	"sync/atomic"
	"testing"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/dex"

	"pgregory.net/rapid"
)

type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Intn(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}

func (s fixedSource) Float64() float64 { return s.f }

func team(t *testing.T, keys ...string) battle.Team {
	t.Helper()
	members, err := dex.Default().BuildTeam(keys, 50)
	if err != nil {
		t.Fatalf("BuildTeam() error = %v", err)
	}
	return battle.Team{Members: members}
}

func opponent(t *testing.T, key string) battle.Pokemon {
	t.Helper()
	p, err := dex.Default().Build(key, 50, 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

func TestChoosePrefersSuperEffectiveMove(t *testing.T) {
	v := View{Self: team(t, "pikachu"), Opponent: opponent(t, "blastoise")}
	got := Choose(v, Medium, fixedSource{f: 0.99})
	if got.Kind != battle.ActionMove || got.MoveID != "thunder" {
		t.Fatalf("expected thunder, got %+v", got)
	}
}

func TestChooseSkipsMovesWithoutPP(t *testing.T) {
	v := View{Self: team(t, "pikachu"), Opponent: opponent(t, "blastoise")}
	p := v.Self.ActivePokemon()
	p.Moves[0].PP = 0 // thunderbolt
	p.Moves[2].PP = 0 // thunder
	got := Choose(v, Medium, fixedSource{f: 0.99})
	if got.MoveID == "thunderbolt" || got.MoveID == "thunder" {
		t.Fatalf("picked a move without pp: %+v", got)
	}
}

func TestChooseSwitchesWhenFainted(t *testing.T) {
	v := View{Self: team(t, "charizard", "machamp", "pikachu"), Opponent: opponent(t, "blastoise")}
	v.Self.Members[0].HP = 0
	got := Choose(v, Easy, fixedSource{f: 0.5})
	if got.Kind != battle.ActionSwitch || got.Switch != 2 {
		t.Fatalf("expected switch to pikachu (2), got %+v", got)
	}
}

func TestTargetSkipsFaintedActive(t *testing.T) {
	opp := team(t, "blastoise", "charizard", "pikachu")
	if got, ok := Target(opp); !ok || got.Name != "Blastoise" {
		t.Fatalf("healthy active: got %q, %v", got.Name, ok)
	}

	opp.Members[0].HP = 0
	opp.Members[1].HP = opp.Members[1].MaxHP / 3
	got, ok := Target(opp)
	if !ok || got.Name != "Pikachu" {
		t.Fatalf("fainted active: got %q, %v, want Pikachu", got.Name, ok)
	}

	for i := range opp.Members {
		opp.Members[i].HP = 0
	}
	if _, ok := Target(opp); ok {
		t.Fatal("exhausted team should have no target")
	}
}

func TestTargetIsNeverFainted(t *testing.T) {
	base := team(t, "bulbasaur", "charmander", "squirtle", "gengar")
	rapid.Check(t, func(t *rapid.T) {
		opp := battle.Team{Members: append([]battle.Pokemon(nil), base.Members...)}
		opp.Active = rapid.IntRange(0, len(opp.Members)-1).Draw(t, "active")
		alive := 0
		for i := range opp.Members {
			opp.Members[i].HP = rapid.IntRange(0, opp.Members[i].MaxHP).Draw(t, "hp")
			if opp.Members[i].HP > 0 {
				alive++
			}
		}
		got, ok := Target(opp)
		if ok != (alive > 0) {
			t.Fatalf("ok = %v with %d alive", ok, alive)
		}
		if ok && got.Fainted() {
			t.Fatalf("target %s is fainted", got.Name)
		}
	})
}

func TestHardNeedsAdvantageousMember(t *testing.T) {
	v := View{Self: team(t, "charmander", "blastoise"), Opponent: opponent(t, "gengar")}
	v.Self.Members[0].Moves = v.Self.Members[0].Moves[:1] // scratch only
	got := Choose(v, Hard, fixedSource{f: 0.1})
	if got.Kind != battle.ActionMove || got.MoveID != "scratch" {
		t.Fatalf("expected scratch without an advantageous bench, got %+v", got)
	}
}

func TestHardSwitchDependsOnRoll(t *testing.T) {
	v := View{Self: team(t, "charmander", "alakazam"), Opponent: opponent(t, "gengar")}
	v.Self.Members[0].Moves = v.Self.Members[0].Moves[:1]
	got := Choose(v, Hard, fixedSource{f: 0.9})
	if got.Kind != battle.ActionMove || got.MoveID != "scratch" {
		t.Fatalf("expected scratch, got %+v", got)
	}
	got = Choose(v, Hard, fixedSource{f: 0.1})
	if got.Kind != battle.ActionSwitch || got.Switch != 1 {
		t.Fatalf("expected switch to alakazam, got %+v", got)
	}
}

func TestThinkingDelayRanges(t *testing.T) {
	cases := []struct {
		d    Difficulty
		base time.Duration
	}{
		{Easy, time.Second},
		{Medium, 1500 * time.Millisecond},
		{Hard, 2 * time.Second},
	}
	for _, tc := range cases {
		if got := ThinkingDelay(tc.d, fixedSource{n: 0}); got != tc.base {
			t.Fatalf("%s min delay = %v, want %v", tc.d, got, tc.base)
		}
		if got := ThinkingDelay(tc.d, fixedSource{n: 5000}); got != tc.base+999*time.Millisecond {
			t.Fatalf("%s max delay = %v", tc.d, got)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, err := ParseDifficulty(""); err != nil || d != Medium {
		t.Fatalf("default = %q, %v", d, err)
	}
	if d, err := ParseDifficulty("HARD"); err != nil || d != Hard {
		t.Fatalf("HARD = %q, %v", d, err)
	}
	if _, err := ParseDifficulty("nightmare"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchedulerCancelPreventsCallback(t *testing.T) {
	s := NewScheduler()
	var fired atomic.Int32
	cancel := s.Schedule(20*time.Millisecond, func() { fired.Add(1) })
	cancel()
	done := make(chan struct{})
	s.Schedule(40*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second callback never fired")
	}
	if fired.Load() != 0 {
		t.Fatalf("cancelled callback fired %d times", fired.Load())
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
}

func TestSchedulerStopCancelsAll(t *testing.T) {
	s := NewScheduler()
	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		s.Schedule(10*time.Millisecond, func() { fired.Add(1) })
	}
	s.Stop()
	s.Schedule(time.Millisecond, func() { fired.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("fired %d callbacks after Stop", fired.Load())
	}
}

func TestChooseNeverPicksEmptyMove(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		members, err := dex.Default().RandomTeam(battle.NewSource(rapid.Uint64().Draw(rt, "seed")), dex.BotPool, 3)
		if err != nil {
			rt.Fatalf("RandomTeam() error = %v", err)
		}
		self := battle.Team{Members: members}
		p := self.ActivePokemon()
		for i := range p.Moves {
			if rapid.Bool().Draw(rt, "drain") {
				p.Moves[i].PP = 0
			}
		}
		opp, _ := dex.Default().Build(rapid.SampledFrom(dex.BotPool).Draw(rt, "opp"), 50, 0)
		d := rapid.SampledFrom([]Difficulty{Easy, Medium, Hard}).Draw(rt, "difficulty")
		a := Choose(View{Self: self, Opponent: opp}, d, battle.NewSource(rapid.Uint64().Draw(rt, "rng")))
		if a.Kind != battle.ActionMove {
			if a.Switch == self.Active || a.Switch < 0 || a.Switch >= len(self.Members) {
				rt.Fatalf("invalid switch %+v", a)
			}
			return
		}
		idx := p.MoveIndex(a.MoveID)
		if idx < 0 {
			rt.Fatalf("unknown move %q", a.MoveID)
		}
		hasPP := false
		for _, m := range p.Moves {
			hasPP = hasPP || m.PP > 0
		}
		if hasPP && p.Moves[idx].PP <= 0 {
			rt.Fatalf("picked %s with 0 pp", a.MoveID)
		}
	})
}
