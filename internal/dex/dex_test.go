package dex

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"pokedotduel/internal/battle"
)

func TestBuildComputesStats(t *testing.T) {
	c := Default()
	p, err := c.Build("pikachu", 50, 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.MaxHP != 95 || p.HP != 95 {
		t.Fatalf("hp = %d/%d, want 95/95", p.HP, p.MaxHP)
	}
	if p.Stats.Spe != 95 {
		t.Fatalf("spe = %d, want 95", p.Stats.Spe)
	}
	if len(p.Moves) != 4 || p.Moves[0].ID != "thunderbolt" || p.Moves[0].MaxPP != 15 {
		t.Fatalf("unexpected moves %+v", p.Moves)
	}
}

func TestBuildUnknownSpecies(t *testing.T) {
	if _, err := Default().Build("mewtwo", 50, 0); !errors.Is(err, ErrUnknownSpecies) {
		t.Fatalf("expected ErrUnknownSpecies, got %v", err)
	}
}

func TestGetTeamParsesCatalogIDs(t *testing.T) {
	c := Default()
	team, err := c.GetTeam(context.Background(), TeamID("charizard", "blastoise"))
	if err != nil {
		t.Fatalf("GetTeam() error = %v", err)
	}
	if len(team) != 2 || team[0].Name != "Charizard" || team[1].Name != "Blastoise" {
		t.Fatalf("unexpected team %+v", team)
	}
	if _, err := c.GetTeam(context.Background(), "team-123"); !errors.Is(err, ErrInvalidTeam) {
		t.Fatalf("expected ErrInvalidTeam, got %v", err)
	}
	if _, err := c.GetTeam(context.Background(), "dex:"); !errors.Is(err, ErrInvalidTeam) {
		t.Fatalf("expected ErrInvalidTeam for empty team, got %v", err)
	}
}

func TestRandomTeamDrawsDistinctFromPool(t *testing.T) {
	c := Default()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		team, err := c.RandomTeam(rng, BotPool, 3)
		if err != nil {
			t.Fatalf("RandomTeam() error = %v", err)
		}
		seen := map[int]bool{}
		for _, p := range team {
			if seen[p.DexNumber] {
				t.Fatalf("duplicate species in %+v", team)
			}
			seen[p.DexNumber] = true
			if _, ok := c.Species(lowerName(p.Name)); !ok {
				t.Fatalf("species %s not in catalog", p.Name)
			}
		}
	}
}

func TestNewRejectsUnknownMoves(t *testing.T) {
	_, err := New([]Species{{Key: "x", Types: []battle.Type{battle.TypeNormal}, Moves: []string{"nope"}}}, nil)
	if !errors.Is(err, ErrUnknownMove) {
		t.Fatalf("expected ErrUnknownMove, got %v", err)
	}
}

func lowerName(name string) string {
	out := []byte(name)
	for i, b := range out {
		if b >= 'A' && b <= 'Z' {
			out[i] = b + 32
		}
	}
	return string(out)
}
