package battle

import "errors"

var (
	ErrUnknownMove   = errors.New("unknown_move")
	ErrNoPP          = errors.New("no_pp")
	ErrMustSwitch    = errors.New("must_switch")
	ErrInvalidSwitch = errors.New("invalid_switch")
	ErrInvalidAction = errors.New("invalid_action")
	ErrBattleOver    = errors.New("battle_over")
)

// ActionError attributes a rejected action to the side that submitted it.
type ActionError struct {
	Side Side
	Err  error
}

func (e *ActionError) Error() string {
	return "side " + e.Side.String() + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
