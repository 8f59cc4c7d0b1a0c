package dex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pokedotduel/internal/battle"
)

const (
	DefaultLevel = 50
	TeamIDPrefix = "dex:"
	MaxTeamSize  = 6
)

var (
	ErrUnknownSpecies = errors.New("unknown_species")
	ErrUnknownMove    = errors.New("unknown_move")
	ErrInvalidTeam    = errors.New("invalid_team")
)

// BotPool is the species set bot teams are drawn from.
var BotPool = []string{"pikachu", "charizard", "blastoise", "venusaur", "alakazam", "machamp"}

type Species struct {
	Key       string
	DexNumber int
	Name      string
	Types     []battle.Type
	Base      battle.Stats
	Moves     []string
}

type Catalog struct {
	species map[string]Species
	moves   map[string]battle.Move
}

func New(species []Species, moves []battle.Move) (*Catalog, error) {
	c := &Catalog{
		species: make(map[string]Species, len(species)),
		moves:   make(map[string]battle.Move, len(moves)),
	}
	for _, m := range moves {
		if !battle.ValidType(m.Type) {
			return nil, fmt.Errorf("move %s: invalid type %q", m.ID, m.Type)
		}
		if m.MaxPP == 0 {
			m.MaxPP = m.PP
		}
		c.moves[m.ID] = m
	}
	for _, s := range species {
		if len(s.Types) == 0 || len(s.Types) > 2 {
			return nil, fmt.Errorf("species %s: needs 1-2 types", s.Key)
		}
		for _, id := range s.Moves {
			if _, ok := c.moves[id]; !ok {
				return nil, fmt.Errorf("species %s: %w %s", s.Key, ErrUnknownMove, id)
			}
		}
		c.species[s.Key] = s
	}
	return c, nil
}

// Default returns the built-in Gen 1 catalog.
func Default() *Catalog {
	c, err := New(defaultSpecies, defaultMoves)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Move(id string) (battle.Move, bool) {
	m, ok := c.moves[id]
	return m, ok
}

func (c *Catalog) Species(key string) (Species, bool) {
	s, ok := c.species[strings.ToLower(strings.TrimSpace(key))]
	return s, ok
}

func (c *Catalog) SpeciesKeys() []string {
	keys := make([]string, 0, len(c.species))
	for k := range c.species {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Build creates a full-hp battle snapshot of a species at level.
func (c *Catalog) Build(key string, level int, slot int) (battle.Pokemon, error) {
	s, ok := c.Species(key)
	if !ok {
		return battle.Pokemon{}, fmt.Errorf("%w: %s", ErrUnknownSpecies, key)
	}
	if level <= 0 {
		level = DefaultLevel
	}
	p := battle.Pokemon{
		ID:        fmt.Sprintf("%s-%d", s.Key, slot),
		DexNumber: s.DexNumber,
		Name:      s.Name,
		Level:     level,
		Types:     append([]battle.Type(nil), s.Types...),
		Base:      s.Base,
	}
	for _, id := range s.Moves {
		p.Moves = append(p.Moves, c.moves[id])
	}
	p.Recalculate()
	return p, nil
}

func (c *Catalog) BuildTeam(keys []string, level int) ([]battle.Pokemon, error) {
	if len(keys) == 0 || len(keys) > MaxTeamSize {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidTeam, len(keys))
	}
	out := make([]battle.Pokemon, 0, len(keys))
	for i, k := range keys {
		p, err := c.Build(k, level, i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Intn is satisfied by *rand.Rand and battle.Source.
type Intn interface {
	Intn(n int) int
}

// RandomKeys draws size distinct species keys from pool.
func RandomKeys(rng Intn, pool []string, size int) ([]string, error) {
	if size <= 0 || size > len(pool) {
		return nil, fmt.Errorf("%w: cannot draw %d from %d", ErrInvalidTeam, size, len(pool))
	}
	shuffled := append([]string(nil), pool...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:size], nil
}

func (c *Catalog) RandomTeam(rng Intn, pool []string, size int) ([]battle.Pokemon, error) {
	keys, err := RandomKeys(rng, pool, size)
	if err != nil {
		return nil, err
	}
	return c.BuildTeam(keys, DefaultLevel)
}

// TeamID encodes a species list as a catalog team id.
func TeamID(keys ...string) string {
	return TeamIDPrefix + strings.Join(keys, ",")
}

// GetTeam resolves team ids of the form "dex:pikachu,charizard".
func (c *Catalog) GetTeam(_ context.Context, teamID string) ([]battle.Pokemon, error) {
	if !strings.HasPrefix(teamID, TeamIDPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTeam, teamID)
	}
	raw := strings.Split(strings.TrimPrefix(teamID, TeamIDPrefix), ",")
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return c.BuildTeam(keys, DefaultLevel)
}
