package battle

import "fmt"

type Type string

const (
	TypeNormal   Type = "NORMAL"
	TypeFire     Type = "FIRE"
	TypeWater    Type = "WATER"
	TypeElectric Type = "ELECTRIC"
	TypeGrass    Type = "GRASS"
	TypeIce      Type = "ICE"
	TypeFighting Type = "FIGHTING"
	TypePoison   Type = "POISON"
	TypeGround   Type = "GROUND"
	TypeFlying   Type = "FLYING"
	TypePsychic  Type = "PSYCHIC"
	TypeBug      Type = "BUG"
	TypeRock     Type = "ROCK"
	TypeGhost    Type = "GHOST"
	TypeDragon   Type = "DRAGON"
)

var AllTypes = []Type{
	TypeNormal, TypeFire, TypeWater, TypeElectric, TypeGrass, TypeIce,
	TypeFighting, TypePoison, TypeGround, TypeFlying, TypePsychic,
	TypeBug, TypeRock, TypeGhost, TypeDragon,
}

type Category string

const (
	CategoryPhysical Category = "PHYSICAL"
	CategorySpecial  Category = "SPECIAL"
	CategoryStatus   Category = "STATUS"
)

type Status string

const (
	StatusNone      Status = ""
	StatusBurn      Status = "BURN"
	StatusParalysis Status = "PARALYSIS"
	StatusPoison    Status = "POISON"
)

type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Boosts holds stat stages in [-6, 6].
type Boosts struct {
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

type Move struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      Type     `json:"type"`
	Category  Category `json:"category"`
	Power     int      `json:"power"`
	Accuracy  int      `json:"accuracy"`
	PP        int      `json:"pp"`
	MaxPP     int      `json:"max_pp"`
	Priority  int      `json:"priority"`
	CritRatio float64  `json:"crit_ratio,omitempty"`
	Inflicts  Status   `json:"inflicts,omitempty"`
}

func (m Move) critRatio() float64 {
	if m.CritRatio <= 0 {
		return 1
	}
	return m.CritRatio
}

type Pokemon struct {
	ID        string `json:"id"`
	DexNumber int    `json:"dex_number"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Types     []Type `json:"types"`
	Base      Stats  `json:"base"`
	IVs       Stats  `json:"ivs"`
	EVs       Stats  `json:"evs"`
	Stats     Stats  `json:"stats"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Moves     []Move `json:"moves"`
	Status    Status `json:"status,omitempty"`
	Boosts    Boosts `json:"boosts"`
}

// Recalculate derives Stats and MaxHP from base stats, IVs, EVs and level
// and restores HP to full.
func (p *Pokemon) Recalculate() {
	p.Stats = Stats{
		HP:  CalcHP(p.Base.HP, p.IVs.HP, p.EVs.HP, p.Level),
		Atk: CalcStat(p.Base.Atk, p.IVs.Atk, p.EVs.Atk, p.Level),
		Def: CalcStat(p.Base.Def, p.IVs.Def, p.EVs.Def, p.Level),
		SpA: CalcStat(p.Base.SpA, p.IVs.SpA, p.EVs.SpA, p.Level),
		SpD: CalcStat(p.Base.SpD, p.IVs.SpD, p.EVs.SpD, p.Level),
		Spe: CalcStat(p.Base.Spe, p.IVs.Spe, p.EVs.Spe, p.Level),
	}
	p.MaxHP = p.Stats.HP
	p.HP = p.MaxHP
}

func (p *Pokemon) Fainted() bool {
	return p.HP <= 0
}

func (p *Pokemon) HasType(t Type) bool {
	for _, own := range p.Types {
		if own == t {
			return true
		}
	}
	return false
}

func (p *Pokemon) MoveIndex(moveID string) int {
	for i := range p.Moves {
		if p.Moves[i].ID == moveID {
			return i
		}
	}
	return -1
}

func (p Pokemon) clone() Pokemon {
	out := p
	out.Types = append([]Type(nil), p.Types...)
	out.Moves = append([]Move(nil), p.Moves...)
	return out
}

type Team struct {
	Members []Pokemon `json:"members"`
	Active  int       `json:"active"`
}

func (t *Team) ActivePokemon() *Pokemon {
	if t.Active < 0 || t.Active >= len(t.Members) {
		return nil
	}
	return &t.Members[t.Active]
}

// Exhausted reports whether every member has fainted.
func (t *Team) Exhausted() bool {
	for i := range t.Members {
		if t.Members[i].HP > 0 {
			return false
		}
	}
	return true
}

func (t Team) clone() Team {
	out := Team{Active: t.Active, Members: make([]Pokemon, len(t.Members))}
	for i := range t.Members {
		out.Members[i] = t.Members[i].clone()
	}
	return out
}

type Side int

const (
	SideA Side = 0
	SideB Side = 1
)

func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "A":
		*s = SideA
	case "B":
		*s = SideB
	default:
		return fmt.Errorf("invalid side %q", string(b))
	}
	return nil
}

type ActionKind string

const (
	ActionMove   ActionKind = "MOVE"
	ActionSwitch ActionKind = "SWITCH"
)

// Action is one side's submission for a turn. Switch is the team index to
// bring in when Kind is ActionSwitch.
type Action struct {
	Kind   ActionKind `json:"action"`
	MoveID string     `json:"move_id,omitempty"`
	Switch int        `json:"switch,omitempty"`
}

type EventType string

const (
	EventMove         EventType = "MOVE"
	EventDamage       EventType = "DAMAGE"
	EventMiss         EventType = "MISS"
	EventStatus       EventType = "STATUS"
	EventStatusDamage EventType = "STATUS_DAMAGE"
	EventSwitch       EventType = "SWITCH"
)

// Event is one entry of a turn result. Side is the acting side; Target is
// the team index of the affected Pokemon, which belongs to the opposing side
// for DAMAGE, MISS and STATUS and to Side itself otherwise.
type Event struct {
	Type          EventType `json:"type"`
	Turn          int       `json:"turn"`
	Side          Side      `json:"side"`
	Target        int       `json:"target"`
	Move          string    `json:"move,omitempty"`
	Pokemon       string    `json:"pokemon,omitempty"`
	Damage        int       `json:"damage,omitempty"`
	Effectiveness float64   `json:"effectiveness"`
	Critical      bool      `json:"critical,omitempty"`
	Status        Status    `json:"status,omitempty"`
	HPAfter       int       `json:"hp_after"`
}
