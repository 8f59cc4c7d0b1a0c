package matchmaking

import (
	"errors"
	"fmt"
	"math"
)

const LamportsPerSOL int64 = 1_000_000_000

var (
	ErrNoBracket       = errors.New("no_bracket_for_wager")
	ErrUnknownBracket  = errors.New("unknown_bracket")
	ErrInvalidBrackets = errors.New("invalid_brackets")
)

type Bracket struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MinWager    int64  `json:"min_wager"`
	MaxWager    int64  `json:"max_wager"`
	Description string `json:"description"`
}

// DefaultBrackets covers [0.01 SOL, MaxInt64]. Every range is [min, max)
// except the last, which includes its max.
var DefaultBrackets = []Bracket{
	{ID: 1, Name: "Bronze", MinWager: LamportsPerSOL / 100, MaxWager: LamportsPerSOL / 20, Description: "0.01-0.05 SOL"},
	{ID: 2, Name: "Silver", MinWager: LamportsPerSOL / 20, MaxWager: LamportsPerSOL / 10, Description: "0.05-0.1 SOL"},
	{ID: 3, Name: "Gold", MinWager: LamportsPerSOL / 10, MaxWager: LamportsPerSOL / 2, Description: "0.1-0.5 SOL"},
	{ID: 4, Name: "Platinum", MinWager: LamportsPerSOL / 2, MaxWager: LamportsPerSOL, Description: "0.5-1 SOL"},
	{ID: 5, Name: "Diamond", MinWager: LamportsPerSOL, MaxWager: 5 * LamportsPerSOL, Description: "1-5 SOL"},
	{ID: 6, Name: "Master", MinWager: 5 * LamportsPerSOL, MaxWager: math.MaxInt64, Description: "5+ SOL"},
}

// ValidateBrackets requires a non-empty, sorted, contiguous list with unique ids.
func ValidateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidBrackets)
	}
	seen := map[int]bool{}
	for i, b := range brackets {
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidBrackets, b.ID)
		}
		seen[b.ID] = true
		if b.MinWager < 0 || b.MaxWager <= b.MinWager {
			return fmt.Errorf("%w: bracket %d has empty range", ErrInvalidBrackets, b.ID)
		}
		if i > 0 && brackets[i-1].MaxWager != b.MinWager {
			return fmt.Errorf("%w: gap or overlap before bracket %d", ErrInvalidBrackets, b.ID)
		}
	}
	return nil
}

func BracketForWager(brackets []Bracket, wager int64) (Bracket, error) {
	for i, b := range brackets {
		last := i == len(brackets)-1
		if wager >= b.MinWager && (wager < b.MaxWager || (last && wager == b.MaxWager)) {
			return b, nil
		}
	}
	return Bracket{}, fmt.Errorf("%w: %d", ErrNoBracket, wager)
}

func findBracket(brackets []Bracket, id int) (Bracket, bool) {
	for _, b := range brackets {
		if b.ID == id {
			return b, true
		}
	}
	return Bracket{}, false
}
