package battle

const (
	MinStage = -6
	MaxStage = 6
)

// CalcStat is floor(((base+iv)*2 + floor(ev/4)) * level/100) + 5.
func CalcStat(base, iv, ev, level int) int {
	return ((base+iv)*2+ev/4)*level/100 + 5
}

// CalcHP uses the same core term as CalcStat plus level + 10.
func CalcHP(base, iv, ev, level int) int {
	return ((base+iv)*2+ev/4)*level/100 + level + 10
}

func ApplyStage(stat, stage int) int {
	if stage > MaxStage {
		stage = MaxStage
	}
	if stage < MinStage {
		stage = MinStage
	}
	if stage >= 0 {
		return stat * (2 + stage) / 2
	}
	return stat * 2 / (2 - stage)
}

func attackStats(att, def *Pokemon, cat Category) (int, int) {
	if cat == CategorySpecial {
		return ApplyStage(att.Stats.SpA, att.Boosts.SpA), ApplyStage(def.Stats.SpD, def.Boosts.SpD)
	}
	return ApplyStage(att.Stats.Atk, att.Boosts.Atk), ApplyStage(def.Stats.Def, def.Boosts.Def)
}
