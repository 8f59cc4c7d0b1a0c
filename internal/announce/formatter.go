package announce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pokedotduel/internal/bot"
	"pokedotduel/internal/rewards"
)

const (
	colorWin     = 0x57F287
	colorDraw    = 0xFEE75C
	colorForfeit = 0xED4245

	shortIDLimit     = 8
	lamportsPerSOL   = 1_000_000_000
	defaultFooter    = "pokedotduel battle results"
	botDisplayPrefix = "bot"
)

// FormatOutcome renders a finished battle as a webhook message.
func FormatOutcome(o rewards.Outcome) Message {
	msg := Message{
		Footer:    defaultFooter,
		Timestamp: timestamp(o.EndedAt),
	}
	battleShort := shortID(o.BattleID)
	switch {
	case o.Draw:
		msg.Title = fmt.Sprintf("Draw · B:%s", battleShort)
		msg.Content = fmt.Sprintf("%s and %s drew", displayName(o.Players[0]), displayName(o.Players[1]))
		msg.Color = colorDraw
	default:
		msg.Title = fmt.Sprintf("Victory · B:%s", battleShort)
		msg.Content = fmt.Sprintf("%s defeated %s", displayName(o.Winner), displayName(o.Loser))
		msg.Color = colorWin
		if o.Reason != "KO" {
			msg.Color = colorForfeit
		}
	}
	msg.Description = fmt.Sprintf("%s after %d turns (%s).", msg.Content, o.Turns, fallback(o.Reason, "-"))
	msg.Fields = []Field{
		{Name: "Wager", Value: solText(o.WagerLamports), Inline: true},
		{Name: "Bracket", Value: strconv.Itoa(o.BracketID), Inline: true},
		{Name: "Turns", Value: strconv.Itoa(o.Turns), Inline: true},
		{Name: "Reason", Value: fallback(o.Reason, "-"), Inline: true},
	}
	return msg
}

func displayName(userID string) string {
	if userID == "" {
		return "-"
	}
	if bot.IsBotUser(userID) {
		return botDisplayPrefix
	}
	return shortID(userID)
}

func solText(lamports int64) string {
	return strconv.FormatFloat(float64(lamports)/lamportsPerSOL, 'f', -1, 64) + " SOL"
}

func shortID(v string) string {
	if len(v) <= shortIDLimit {
		return v
	}
	return v[:shortIDLimit]
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
