package battle

import "math"

const (
	stabMultiplier = 1.5
	critMultiplier = 2.0
	maxCritChance  = 0.99
	randomFloor    = 217
	randomSpan     = 39
	randomDivisor  = 255.0
)

type DamageResult struct {
	Damage        int
	Effectiveness float64
	Critical      bool
}

// BaseDamage is floor(((2*level/5 + 2) * power * atk/def) / 50 + 2).
func BaseDamage(level, power, atk, def int) float64 {
	if def < 1 {
		def = 1
	}
	l := float64(level)
	return math.Floor(((2*l/5+2)*float64(power)*float64(atk)/float64(def))/50 + 2)
}

// CritChance is min(0.99, baseSpeed/512 * critRatio).
func CritChance(baseSpeed int, critRatio float64) float64 {
	return math.Min(maxCritChance, float64(baseSpeed)/512*critRatio)
}

// CalculateDamage rolls crit and the random factor from rng, in that order.
// Modifiers apply as crit, STAB, type effectiveness, random factor. The
// result is floored and is at least 1 unless the defender is immune.
func CalculateDamage(att, def *Pokemon, move Move, rng Source) DamageResult {
	a, d := attackStats(att, def, move.Category)
	dmg := BaseDamage(att.Level, move.Power, a, d)

	crit := rng.Float64() < CritChance(att.Base.Spe, move.critRatio())
	if crit {
		dmg *= critMultiplier
	}
	if att.HasType(move.Type) {
		dmg *= stabMultiplier
	}
	eff := Effectiveness(move.Type, def.Types)
	dmg *= eff
	dmg = dmg * float64(randomFloor+rng.Intn(randomSpan)) / randomDivisor

	out := int(math.Floor(dmg))
	if eff > 0 && out < 1 {
		out = 1
	}
	if eff == 0 {
		out = 0
	}
	return DamageResult{Damage: out, Effectiveness: eff, Critical: crit}
}
