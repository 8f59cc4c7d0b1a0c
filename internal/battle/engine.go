package battle

import (
	"fmt"
	"math"
)

// ParalysisSpeedMultiplier scales the speed of a paralyzed Pokemon when
// ordering actions. Engines copy it at construction; Options can override it.
var ParalysisSpeedMultiplier = 0.25

const statusDamageDivisor = 16

type Options struct {
	Source                   Source
	Seed                     uint64
	ParalysisSpeedMultiplier float64
}

type Engine struct {
	teams      [2]Team
	turn       int
	rng        Source
	paralysis  float64
	transcript []Event
}

func NewEngine(a, b Team, opts Options) *Engine {
	rng := opts.Source
	if rng == nil {
		rng = NewSource(opts.Seed)
	}
	paralysis := opts.ParalysisSpeedMultiplier
	if paralysis <= 0 {
		paralysis = ParalysisSpeedMultiplier
	}
	return &Engine{
		teams:     [2]Team{a.clone(), b.clone()},
		rng:       rng,
		paralysis: paralysis,
	}
}

func (e *Engine) Turn() int {
	return e.turn
}

func (e *Engine) Team(side Side) Team {
	return e.teams[side].clone()
}

func (e *Engine) Active(side Side) *Pokemon {
	return e.teams[side].ActivePokemon()
}

func (e *Engine) Transcript() []Event {
	out := make([]Event, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// EffectiveSpeed applies the speed stage and the paralysis multiplier.
func (e *Engine) EffectiveSpeed(p *Pokemon) int {
	spe := ApplyStage(p.Stats.Spe, p.Boosts.Spe)
	if p.Status == StatusParalysis {
		spe = int(math.Floor(float64(spe) * e.paralysis))
	}
	return spe
}

func (e *Engine) Exhausted(side Side) bool {
	return e.teams[side].Exhausted()
}

// IsOver is true when exactly one side has no Pokemon left.
func (e *Engine) IsOver() bool {
	return e.Exhausted(SideA) != e.Exhausted(SideB)
}

// IsDraw is true when both sides ran out in the same turn.
func (e *Engine) IsDraw() bool {
	return e.Exhausted(SideA) && e.Exhausted(SideB)
}

func (e *Engine) Winner() (Side, bool) {
	if !e.IsOver() {
		return 0, false
	}
	if e.Exhausted(SideA) {
		return SideB, true
	}
	return SideA, true
}

type plannedMove struct {
	side     Side
	moveIdx  int
	priority int
	speed    int
}

// ResolveTurn applies both actions and returns the ordered events. On error
// nothing is mutated and the turn counter is unchanged.
func (e *Engine) ResolveTurn(actionA, actionB Action) ([]Event, error) {
	if e.IsOver() || e.IsDraw() {
		return nil, ErrBattleOver
	}
	actions := [2]Action{actionA, actionB}
	moveIdx := [2]int{-1, -1}
	for _, side := range []Side{SideA, SideB} {
		idx, err := e.validate(side, actions[side])
		if err != nil {
			return nil, &ActionError{Side: side, Err: err}
		}
		moveIdx[side] = idx
	}

	turn := e.turn + 1
	events := make([]Event, 0, 8)

	for _, side := range []Side{SideA, SideB} {
		if actions[side].Kind != ActionSwitch {
			continue
		}
		team := &e.teams[side]
		team.Active = actions[side].Switch
		p := team.ActivePokemon()
		events = append(events, Event{
			Type:    EventSwitch,
			Turn:    turn,
			Side:    side,
			Target:  team.Active,
			Pokemon: p.Name,
			HPAfter: p.HP,
		})
	}

	order := e.orderMoves(moveIdx)
	executed := [2]bool{}
	for _, m := range order {
		if e.Active(m.side).Fainted() {
			continue
		}
		events = e.executeMove(events, turn, m.side, m.moveIdx)
		executed[m.side] = true
	}

	for _, side := range []Side{SideA, SideB} {
		team := &e.teams[side]
		p := team.ActivePokemon()
		if p.Fainted() || (p.Status != StatusBurn && p.Status != StatusPoison) {
			continue
		}
		dmg := p.MaxHP / statusDamageDivisor
		p.HP = clampHP(p.HP-dmg, p.MaxHP)
		events = append(events, Event{
			Type:    EventStatusDamage,
			Turn:    turn,
			Side:    side,
			Target:  team.Active,
			Pokemon: p.Name,
			Damage:  dmg,
			Status:  p.Status,
			HPAfter: p.HP,
		})
	}

	for _, m := range order {
		if !executed[m.side] {
			continue
		}
		p := e.Active(m.side)
		if p.Moves[m.moveIdx].PP > 0 {
			p.Moves[m.moveIdx].PP--
		}
	}

	e.turn = turn
	e.transcript = append(e.transcript, events...)
	return events, nil
}

func (e *Engine) validate(side Side, action Action) (int, error) {
	team := &e.teams[side]
	switch action.Kind {
	case ActionMove:
		p := team.ActivePokemon()
		if p == nil {
			return -1, ErrInvalidAction
		}
		if p.Fainted() {
			return -1, ErrMustSwitch
		}
		idx := p.MoveIndex(action.MoveID)
		if idx < 0 {
			return -1, ErrUnknownMove
		}
		if p.Moves[idx].PP <= 0 {
			return -1, ErrNoPP
		}
		return idx, nil
	case ActionSwitch:
		if action.Switch < 0 || action.Switch >= len(team.Members) || action.Switch == team.Active {
			return -1, ErrInvalidSwitch
		}
		if team.Members[action.Switch].Fainted() {
			return -1, ErrInvalidSwitch
		}
		return -1, nil
	default:
		return -1, fmt.Errorf("%w: %q", ErrInvalidAction, action.Kind)
	}
}

// orderMoves sorts by priority, then effective speed, then side A first.
func (e *Engine) orderMoves(moveIdx [2]int) []plannedMove {
	planned := make([]plannedMove, 0, 2)
	for _, side := range []Side{SideA, SideB} {
		if moveIdx[side] < 0 {
			continue
		}
		p := e.Active(side)
		planned = append(planned, plannedMove{
			side:     side,
			moveIdx:  moveIdx[side],
			priority: p.Moves[moveIdx[side]].Priority,
			speed:    e.EffectiveSpeed(p),
		})
	}
	if len(planned) == 2 && movesBefore(planned[1], planned[0]) {
		planned[0], planned[1] = planned[1], planned[0]
	}
	return planned
}

func movesBefore(x, y plannedMove) bool {
	if x.priority != y.priority {
		return x.priority > y.priority
	}
	if x.speed != y.speed {
		return x.speed > y.speed
	}
	return x.side == SideA && y.side != SideA
}

func (e *Engine) executeMove(events []Event, turn int, side Side, idx int) []Event {
	attTeam := &e.teams[side]
	defTeam := &e.teams[side.Other()]
	att := attTeam.ActivePokemon()
	def := defTeam.ActivePokemon()
	move := att.Moves[idx]

	events = append(events, Event{
		Type:    EventMove,
		Turn:    turn,
		Side:    side,
		Target:  attTeam.Active,
		Move:    move.Name,
		Pokemon: att.Name,
		HPAfter: att.HP,
	})

	if !(e.rng.Float64()*100 < float64(move.Accuracy)) {
		return append(events, Event{
			Type:    EventMiss,
			Turn:    turn,
			Side:    side,
			Target:  defTeam.Active,
			Move:    move.Name,
			Pokemon: def.Name,
			HPAfter: def.HP,
		})
	}

	if move.Category == CategoryStatus {
		if move.Inflicts == StatusNone || def.Status != StatusNone || def.Fainted() {
			return events
		}
		def.Status = move.Inflicts
		return append(events, Event{
			Type:    EventStatus,
			Turn:    turn,
			Side:    side,
			Target:  defTeam.Active,
			Move:    move.Name,
			Pokemon: def.Name,
			Status:  move.Inflicts,
			HPAfter: def.HP,
		})
	}
	if move.Power <= 0 {
		return events
	}

	res := CalculateDamage(att, def, move, e.rng)
	def.HP = clampHP(def.HP-res.Damage, def.MaxHP)
	return append(events, Event{
		Type:          EventDamage,
		Turn:          turn,
		Side:          side,
		Target:        defTeam.Active,
		Move:          move.Name,
		Pokemon:       def.Name,
		Damage:        res.Damage,
		Effectiveness: res.Effectiveness,
		Critical:      res.Critical,
		HPAfter:       def.HP,
	})
}

func clampHP(hp, maxHP int) int {
	if hp < 0 {
		return 0
	}
	if hp > maxHP {
		return maxHP
	}
	return hp
}

// ValidateAction checks an action against the current state without
// resolving anything.
func (e *Engine) ValidateAction(side Side, action Action) error {
	if e.IsOver() || e.IsDraw() {
		return ErrBattleOver
	}
	if _, err := e.validate(side, action); err != nil {
		return &ActionError{Side: side, Err: err}
	}
	return nil
}
