package bot

import (
	"fmt"
	"strings"
	"time"

	"pokedotduel/internal/battle"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// UserPrefix marks synthetic bot participants in lobbies and battles.
const UserPrefix = "bot:"

func IsBotUser(userID string) bool {
	return strings.HasPrefix(userID, UserPrefix)
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", Medium:
		return Medium, nil
	case Easy:
		return Easy, nil
	case Hard:
		return Hard, nil
	default:
		return "", fmt.Errorf("invalid bot difficulty %q", s)
	}
}

// View is what the bot sees when deciding a turn.
type View struct {
	Self     battle.Team
	Opponent battle.Pokemon
}

const (
	hardSwitchThreshold   = 0.5
	hardSwitchChance      = 0.7
	mediumSwitchThreshold = 0.25
	mediumSwitchChance    = 0.4
	easyNoise             = 20.0
)

// Choose picks the bot's action for the next turn.
func Choose(v View, d Difficulty, rng battle.Source) battle.Action {
	active := v.Self.ActivePokemon()
	if active == nil || active.Fainted() {
		if idx, ok := bestSwitch(v, false); ok {
			return battle.Action{Kind: battle.ActionSwitch, Switch: idx}
		}
		return battle.Action{Kind: battle.ActionMove}
	}

	bestIdx, bestScore, bestEff := -1, 0.0, 0.0
	for i, m := range active.Moves {
		if m.PP <= 0 {
			continue
		}
		eff := battle.Effectiveness(m.Type, v.Opponent.Types)
		score := moveScore(m, eff, v.Opponent, d, rng)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
		if m.Category != battle.CategoryStatus && eff > bestEff {
			bestEff = eff
		}
	}

	switch d {
	case Hard:
		if bestEff < hardSwitchThreshold {
			if idx, ok := bestSwitch(v, true); ok && rng.Float64() < hardSwitchChance {
				return battle.Action{Kind: battle.ActionSwitch, Switch: idx}
			}
		}
	case Medium:
		if bestEff < mediumSwitchThreshold {
			if idx, ok := bestSwitch(v, false); ok && rng.Float64() < mediumSwitchChance {
				return battle.Action{Kind: battle.ActionSwitch, Switch: idx}
			}
		}
	}

	if bestIdx < 0 {
		// Out of PP everywhere; a switch is the only legal action left.
		if idx, ok := bestSwitch(v, false); ok {
			return battle.Action{Kind: battle.ActionSwitch, Switch: idx}
		}
		return battle.Action{Kind: battle.ActionMove, MoveID: active.Moves[0].ID}
	}
	return battle.Action{Kind: battle.ActionMove, MoveID: active.Moves[bestIdx].ID}
}

func moveScore(m battle.Move, eff float64, opp battle.Pokemon, d Difficulty, rng battle.Source) float64 {
	score := eff*float64(m.Power)*0.1 + float64(m.Accuracy)*0.01
	switch d {
	case Easy:
		score += rng.Float64() * easyNoise
	case Hard:
		frac := hpFraction(opp)
		if m.Category == battle.CategoryStatus && frac > 0.7 {
			score += 15
		}
		if m.Power > 100 && frac < 0.3 {
			score += 25
		}
	}
	return score
}

// bestSwitch returns the bench member with the best matchup score. With
// advantageous set, only members that hit the opponent super-effectively
// qualify.
// Target picks the opposing Pokemon to plan against. A fainted active member
// is about to be replaced, so the healthiest remaining member stands in.
func Target(t battle.Team) (battle.Pokemon, bool) {
	if p := t.ActivePokemon(); p != nil && !p.Fainted() {
		return *p, true
	}
	best := -1
	for i := range t.Members {
		if t.Members[i].Fainted() {
			continue
		}
		if best < 0 || hpFraction(t.Members[i]) > hpFraction(t.Members[best]) {
			best = i
		}
	}
	if best < 0 {
		return battle.Pokemon{}, false
	}
	return t.Members[best], true
}

func bestSwitch(v View, advantageous bool) (int, bool) {
	best, bestScore := -1, 0.0
	for i := range v.Self.Members {
		p := &v.Self.Members[i]
		if i == v.Self.Active || p.Fainted() {
			continue
		}
		eff := typeAdvantage(p, v.Opponent)
		if advantageous && eff <= 1 {
			continue
		}
		score := eff*10 + hpFraction(*p)*5 + float64(p.Stats.Atk+p.Stats.Spe)/20
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}

func typeAdvantage(p *battle.Pokemon, opp battle.Pokemon) float64 {
	best := 0.0
	for _, t := range p.Types {
		if eff := battle.Effectiveness(t, opp.Types); eff > best {
			best = eff
		}
	}
	return best
}

func hpFraction(p battle.Pokemon) float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return float64(p.HP) / float64(p.MaxHP)
}

// ThinkingDelay is how long the bot waits before submitting.
func ThinkingDelay(d Difficulty, rng battle.Source) time.Duration {
	base := 1500
	switch d {
	case Easy:
		base = 1000
	case Hard:
		base = 2000
	}
	return time.Duration(base+rng.Intn(1000)) * time.Millisecond
}
