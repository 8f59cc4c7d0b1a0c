package lobby

import (
	"errors"
)

var (
	ErrLobbyNotFound      = errors.New("lobby_not_found")
	ErrInviteCodeNotFound = errors.New("invite_code_not_found")
	ErrLobbyFull          = errors.New("lobby_full")
	ErrLobbyNotOpen       = errors.New("lobby_not_open")
	ErrLobbyInProgress    = errors.New("lobby_in_progress")
	ErrSelfJoin           = errors.New("cannot_join_own_lobby")
	ErrAlreadyInLobby     = errors.New("already_in_lobby")
	ErrNotInLobby         = errors.New("not_in_lobby")
	ErrTeamNotSelected    = errors.New("team_not_selected")
	ErrInvalidTeam        = errors.New("invalid_team")
	ErrInvalidWager       = errors.New("invalid_wager")
	ErrInvalidLobbyType   = errors.New("invalid_lobby_type")
	ErrQueuedLobby        = errors.New("lobby_matched_by_queue")
)

// MapError turns a lobby error into a client error code and message.
func MapError(err error) (string, string) {
	switch {
	case errors.Is(err, ErrLobbyNotFound):
		return "NOT_FOUND", "lobby not found"
	case errors.Is(err, ErrInviteCodeNotFound):
		return "NOT_FOUND", "invite code not found"
	case errors.Is(err, ErrLobbyFull):
		return "LOBBY_FULL", "lobby is full"
	case errors.Is(err, ErrLobbyNotOpen):
		return "LOBBY_NOT_OPEN", "lobby is not open"
	case errors.Is(err, ErrQueuedLobby):
		return "LOBBY_NOT_OPEN", "lobby is matched by the queue"
	case errors.Is(err, ErrLobbyInProgress):
		return "LOBBY_IN_PROGRESS", "battle already in progress"
	case errors.Is(err, ErrSelfJoin):
		return "SELF_JOIN", "cannot join your own lobby"
	case errors.Is(err, ErrAlreadyInLobby):
		return "ALREADY_IN_LOBBY", "already in a lobby"
	case errors.Is(err, ErrNotInLobby):
		return "NOT_IN_LOBBY", "not in a lobby"
	case errors.Is(err, ErrTeamNotSelected):
		return "TEAM_NOT_SELECTED", "select a team first"
	case errors.Is(err, ErrInvalidTeam):
		return "INVALID_TEAM", "invalid team"
	case errors.Is(err, ErrInvalidWager):
		return "INVALID_WAGER", "invalid wager"
	case errors.Is(err, ErrInvalidLobbyType):
		return "INVALID_LOBBY_TYPE", "invalid lobby type"
	default:
		return "INTERNAL_ERROR", "internal error"
	}
}
