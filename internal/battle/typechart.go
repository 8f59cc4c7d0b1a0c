package battle

// typeChart is the Gen 1 effectiveness table indexed [attack][defend].
// Missing entries are neutral.
var typeChart = map[Type]map[Type]float64{
	TypeNormal:   {TypeRock: 0.5, TypeGhost: 0},
	TypeFire:     {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 2, TypeBug: 2, TypeRock: 0.5, TypeDragon: 0.5},
	TypeWater:    {TypeFire: 2, TypeWater: 0.5, TypeGrass: 0.5, TypeGround: 2, TypeRock: 2, TypeDragon: 0.5},
	TypeElectric: {TypeWater: 2, TypeElectric: 0.5, TypeGrass: 0.5, TypeGround: 0, TypeFlying: 2, TypeDragon: 0.5},
	TypeGrass:    {TypeFire: 0.5, TypeWater: 2, TypeGrass: 0.5, TypePoison: 0.5, TypeGround: 2, TypeFlying: 0.5, TypeBug: 0.5, TypeRock: 2, TypeDragon: 0.5},
	TypeIce:      {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 0.5, TypeGround: 2, TypeFlying: 2, TypeDragon: 2},
	TypeFighting: {TypeNormal: 2, TypeIce: 2, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 0.5, TypeBug: 0.5, TypeRock: 2, TypeGhost: 0},
	TypePoison:   {TypeGrass: 2, TypePoison: 0.5, TypeGround: 0.5, TypeBug: 2, TypeRock: 0.5, TypeGhost: 0.5},
	TypeGround:   {TypeFire: 2, TypeElectric: 2, TypeGrass: 0.5, TypePoison: 2, TypeFlying: 0, TypeBug: 0.5, TypeRock: 2},
	TypeFlying:   {TypeElectric: 0.5, TypeGrass: 2, TypeFighting: 2, TypeBug: 2, TypeRock: 0.5},
	TypePsychic:  {TypeFighting: 2, TypePoison: 2, TypePsychic: 0.5},
	TypeBug:      {TypeFire: 0.5, TypeGrass: 2, TypeFighting: 0.5, TypePoison: 2, TypeFlying: 0.5, TypePsychic: 2, TypeGhost: 0.5},
	TypeRock:     {TypeFire: 2, TypeIce: 2, TypeFighting: 0.5, TypeGround: 0.5, TypeFlying: 2, TypeBug: 2},
	TypeGhost:    {TypeNormal: 0, TypePsychic: 0, TypeGhost: 2},
	TypeDragon:   {TypeDragon: 2},
}

// TypeMultiplier returns the single-type lookup for attack against defend.
func TypeMultiplier(attack, defend Type) float64 {
	row, ok := typeChart[attack]
	if !ok {
		return 1
	}
	if v, ok := row[defend]; ok {
		return v
	}
	return 1
}

// Effectiveness multiplies the chart value across every defending type.
func Effectiveness(attack Type, defend []Type) float64 {
	eff := 1.0
	for _, t := range defend {
		eff *= TypeMultiplier(attack, t)
	}
	return eff
}

func ValidType(t Type) bool {
	for _, known := range AllTypes {
		if known == t {
			return true
		}
	}
	return false
}
