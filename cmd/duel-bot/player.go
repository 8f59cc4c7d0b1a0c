package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"pokedotduel/internal/battle"
	"pokedotduel/internal/bot"
	"pokedotduel/internal/config"
	"pokedotduel/internal/session"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second

	maxTurnRetries = 2
)

// player queues for matches over the WebSocket API and plays each battle
// with the same policy the server uses for its own bots.
type player struct {
	cfg        config.BotConfig
	difficulty bot.Difficulty
	rng        *rand.Rand
	client     *http.Client

	conn      *websocket.Conn
	userID    string
	battleID  string
	side      battle.Side
	acted     int
	retries   int
	retryTurn int
	played    int
	wins      int
}

type frame struct {
	Type     string          `json:"type"`
	UserID   string          `json:"userId"`
	BattleID string          `json:"battleId"`
	Players  [2]string       `json:"players"`
	Turn     int             `json:"turn"`
	Winner   string          `json:"winner"`
	Reason   string          `json:"reason"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	State    json.RawMessage `json:"state"`
}

type lobbyView struct {
	Status  string `json:"status"`
	Creator struct {
		UserID string `json:"user_id"`
		TeamID string `json:"team_id"`
		Ready  bool   `json:"ready"`
	} `json:"creator"`
	Opponent *struct {
		UserID string `json:"user_id"`
		TeamID string `json:"team_id"`
		Ready  bool   `json:"ready"`
	} `json:"opponent"`
}

func (p *player) run(ctx context.Context) error {
	if p.client == nil {
		p.client = &http.Client{Timeout: 5 * time.Second}
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dctx, p.cfg.WSURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + p.cfg.Token}},
	})
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.cfg.WSURL, err)
	}
	defer conn.CloseNow()
	p.conn = conn

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn().Err(err).Msg("bad frame")
			continue
		}
		done, err := p.handle(ctx, f)
		if err != nil {
			return err
		}
		if done {
			return conn.Close(websocket.StatusNormalClosure, "done")
		}
	}
}

func (p *player) handle(ctx context.Context, f frame) (bool, error) {
	switch f.Type {
	case "AUTHENTICATED":
		p.userID = f.UserID
		log.Info().Str("user_id", p.userID).Msg("authenticated")
		return false, p.queue(ctx)
	case "LOBBY_STATE":
		var lv lobbyView
		if err := json.Unmarshal(f.State, &lv); err != nil {
			return false, nil
		}
		return false, p.onLobby(ctx, lv)
	case "BATTLE_START":
		p.battleID = f.BattleID
		p.acted = 0
		p.side = battle.SideA
		if f.Players[1] == p.userID {
			p.side = battle.SideB
		}
		log.Info().Str("battle_id", p.battleID).Str("side", p.side.String()).Msg("battle started")
		return false, p.act(ctx)
	case "BATTLE_STATE":
		var st session.State
		if err := json.Unmarshal(f.State, &st); err == nil && st.Status == session.StatusActive {
			p.battleID = st.BattleID
			if side, ok := st.SideOf(p.userID); ok {
				p.side = side
			}
			return false, p.act(ctx)
		}
		return false, nil
	case "TURN_RESULT":
		return false, p.act(ctx)
	case "BATTLE_END":
		p.played++
		if f.Winner == p.userID {
			p.wins++
		}
		log.Info().Str("battle_id", f.BattleID).Str("winner", f.Winner).Str("reason", f.Reason).Msg("battle ended")
		p.battleID = ""
		if p.played >= p.cfg.Games {
			return true, nil
		}
		return false, p.queue(ctx)
	case "ERROR":
		log.Warn().Str("code", f.Code).Str("message", f.Message).Msg("server rejected request")
		switch f.Code {
		case "MUST_SWITCH", "NO_PP", "UNKNOWN_MOVE", "INVALID_SWITCH":
			if p.retryTurn != p.acted {
				p.retryTurn, p.retries = p.acted, 0
			}
			if p.retries < maxTurnRetries && p.acted > 0 {
				p.retries++
				p.acted--
				return false, p.act(ctx)
			}
		}
	}
	return false, nil
}

func (p *player) queue(ctx context.Context) error {
	return p.send(ctx, map[string]any{"type": "QUEUE_JOIN", "wagerLamports": p.cfg.WagerLamports})
}

func (p *player) onLobby(ctx context.Context, lv lobbyView) error {
	if lv.Status != "FULL" || lv.Opponent == nil {
		return nil
	}
	teamID, ready := lv.Creator.TeamID, lv.Creator.Ready
	if lv.Opponent.UserID == p.userID {
		teamID, ready = lv.Opponent.TeamID, lv.Opponent.Ready
	}
	switch {
	case teamID == "":
		return p.send(ctx, map[string]any{"type": "SELECT_TEAM", "teamId": p.cfg.TeamID})
	case !ready:
		return p.send(ctx, map[string]any{"type": "READY"})
	}
	return nil
}

// act fetches the battle state and submits an action for the next turn
// unless one was already sent for it.
func (p *player) act(ctx context.Context) error {
	if p.battleID == "" {
		return nil
	}
	st, err := p.fetchState(ctx)
	if err != nil {
		log.Warn().Err(err).Str("battle_id", p.battleID).Msg("fetch battle state failed")
		return nil
	}
	if st.Status != session.StatusActive {
		return nil
	}
	turn := st.Turn + 1
	if p.acted >= turn || st.Submitted[p.side] {
		return nil
	}
	action := chooseAction(st, p.side, p.difficulty, p.rng)
	p.acted = turn
	return p.send(ctx, turnActionMessage(turn, action))
}

func chooseAction(st session.State, side battle.Side, d bot.Difficulty, rng battle.Source) battle.Action {
	view := bot.View{Self: st.Teams[side]}
	opp := st.Teams[side.Other()]
	if active := opp.ActivePokemon(); active != nil {
		view.Opponent = *active
	}
	return bot.Choose(view, d, rng)
}

func turnActionMessage(turn int, a battle.Action) map[string]any {
	move := map[string]any{"slot": 0, "action": string(a.Kind)}
	if a.Kind == battle.ActionSwitch {
		move["target"] = a.Switch
	} else {
		move["moveId"] = a.MoveID
	}
	return map[string]any{"type": "TURN_ACTION", "turn": turn, "move": move}
}

func (p *player) fetchState(ctx context.Context) (session.State, error) {
	base, err := httpBase(p.cfg.WSURL)
	if err != nil {
		return session.State{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/public/battles/"+p.battleID, nil)
	if err != nil {
		return session.State{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return session.State{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return session.State{}, fmt.Errorf("battle state: status %d", resp.StatusCode)
	}
	var body struct {
		Source string        `json:"source"`
		Battle session.State `json:"battle"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return session.State{}, err
	}
	if body.Source != "live" {
		return session.State{}, errors.New("battle is no longer live")
	}
	return body.Battle, nil
}

// httpBase turns ws://host/ws into http://host.
func httpBase(wsURL string) (string, error) {
	var base string
	switch {
	case strings.HasPrefix(wsURL, "wss://"):
		base = "https://" + strings.TrimPrefix(wsURL, "wss://")
	case strings.HasPrefix(wsURL, "ws://"):
		base = "http://" + strings.TrimPrefix(wsURL, "ws://")
	default:
		return "", fmt.Errorf("unsupported websocket url %q", wsURL)
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/ws"), nil
}

func (p *player) send(ctx context.Context, msg map[string]any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.conn.Write(wctx, websocket.MessageText, b)
}
