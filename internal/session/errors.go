package session

import (
	"errors"

	"pokedotduel/internal/battle"
)

var (
	ErrBattleNotFound   = errors.New("battle_not_found")
	ErrBattleEnded      = errors.New("battle_ended")
	ErrBattleExists     = errors.New("battle_exists")
	ErrPlayerInBattle   = errors.New("player_in_battle")
	ErrNotParticipant   = errors.New("not_participant")
	ErrStaleTurn        = errors.New("stale_turn")
	ErrAlreadySubmitted = errors.New("already_submitted")
)

// MapError converts coordinator and engine errors to client error codes.
func MapError(err error) (string, string) {
	switch {
	case errors.Is(err, ErrBattleNotFound):
		return "NOT_FOUND", "battle not found"
	case errors.Is(err, ErrBattleEnded), errors.Is(err, battle.ErrBattleOver):
		return "BATTLE_ENDED", "battle already ended"
	case errors.Is(err, ErrStaleTurn):
		return "STALE_TURN", "turn does not match the current turn"
	case errors.Is(err, ErrAlreadySubmitted):
		return "ALREADY_SUBMITTED", "action already submitted for this turn"
	case errors.Is(err, ErrNotParticipant):
		return "NOT_PARTICIPANT", "not a participant in this battle"
	case errors.Is(err, ErrPlayerInBattle):
		return "ALREADY_IN_BATTLE", "player already in a battle"
	case errors.Is(err, battle.ErrUnknownMove):
		return "UNKNOWN_MOVE", "move not known by the active pokemon"
	case errors.Is(err, battle.ErrNoPP):
		return "NO_PP", "move has no pp left"
	case errors.Is(err, battle.ErrMustSwitch):
		return "MUST_SWITCH", "active pokemon fainted, switch required"
	case errors.Is(err, battle.ErrInvalidSwitch):
		return "INVALID_SWITCH", "invalid switch target"
	case errors.Is(err, battle.ErrInvalidAction):
		return "INVALID_ACTION", "invalid action"
	default:
		return "INTERNAL_ERROR", "internal error"
	}
}
