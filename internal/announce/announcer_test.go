package announce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pokedotduel/internal/config"
	"pokedotduel/internal/rewards"
)

type recordingAdapter struct {
	name string

	mu    sync.Mutex
	fail  map[string]bool
	sends map[string]int
}

func newRecordingAdapter(name string) *recordingAdapter {
	return &recordingAdapter{name: name, fail: map[string]bool{}, sends: map[string]int{}}
}

func (a *recordingAdapter) Name() string { return a.name }

func (a *recordingAdapter) Send(_ context.Context, endpoint, _ string, _ Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sends[endpoint]++
	if a.fail[endpoint] {
		return errors.New("boom")
	}
	return nil
}

func (a *recordingAdapter) count(endpoint string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sends[endpoint]
}

func (a *recordingAdapter) setFail(endpoint string, fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail[endpoint] = fail
}

func sampleOutcome() rewards.Outcome {
	return rewards.Outcome{
		BattleID:      "0123456789abcdef",
		Players:       [2]string{"alice-user-id", "bot:42"},
		Winner:        "alice-user-id",
		Loser:         "bot:42",
		Reason:        "KO",
		WagerLamports: 250_000_000,
		BracketID:     3,
		Turns:         7,
		EndedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAnnounceSkipsDeliveredTargetsOnRetry(t *testing.T) {
	discord := newRecordingAdapter("discord")
	a := NewWithAdapters([]Target{
		{Platform: "discord", Endpoint: "a", Enabled: true},
		{Platform: "discord", Endpoint: "b", Enabled: true},
	}, discord)
	discord.setFail("b", true)

	if err := a.AnnounceBattle(context.Background(), sampleOutcome()); err == nil {
		t.Fatal("expected error when one target fails")
	}
	discord.setFail("b", false)
	if err := a.AnnounceBattle(context.Background(), sampleOutcome()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if discord.count("a") != 1 || discord.count("b") != 2 {
		t.Fatalf("sends a=%d b=%d, want 1 and 2", discord.count("a"), discord.count("b"))
	}
}

func TestAnnounceHonoursMinWager(t *testing.T) {
	discord := newRecordingAdapter("discord")
	a := NewWithAdapters([]Target{{Platform: "discord", Endpoint: "big", Enabled: true, MinWagerLamports: 1_000_000_000}}, discord)
	if err := a.AnnounceBattle(context.Background(), sampleOutcome()); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if discord.count("big") != 0 {
		t.Fatal("expected small wager battle to be skipped")
	}
}

func TestFormatOutcome(t *testing.T) {
	msg := FormatOutcome(sampleOutcome())
	if msg.Title != "Victory · B:01234567" {
		t.Fatalf("title = %q", msg.Title)
	}
	if msg.Content != "alice-us defeated bot" {
		t.Fatalf("content = %q", msg.Content)
	}
	if msg.Color != colorWin || msg.Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected color/timestamp: %+v", msg)
	}
	if msg.Fields[0].Value != "0.25 SOL" {
		t.Fatalf("wager field = %q", msg.Fields[0].Value)
	}

	draw := sampleOutcome()
	draw.Draw, draw.Winner, draw.Loser = true, "", ""
	if got := FormatOutcome(draw); !strings.HasPrefix(got.Title, "Draw") || got.Color != colorDraw {
		t.Fatalf("unexpected draw message: %+v", got)
	}

	forfeit := sampleOutcome()
	forfeit.Reason = "Forfeit"
	if got := FormatOutcome(forfeit); got.Color != colorForfeit {
		t.Fatalf("forfeit color = %x", got.Color)
	}
}

func TestConfigFromServerFiltersTargets(t *testing.T) {
	cfg, err := ConfigFromServer(config.ServerConfig{
		AnnounceTargetsJSON: `[
			{"platform":" Discord ","endpoint":"https://d.example","enabled":true},
			{"platform":"slack","endpoint":"https://s.example","enabled":true},
			{"platform":"feishu","endpoint":"","enabled":true},
			{"platform":"feishu","endpoint":"https://f.example","enabled":false}
		]`,
		AnnounceTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("ConfigFromServer: %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Platform != "discord" {
		t.Fatalf("unexpected targets: %+v", cfg.Targets)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}

	if _, err := ConfigFromServer(config.ServerConfig{AnnounceTargetsJSON: "{"}); err == nil {
		t.Fatal("expected parse error")
	}
}
