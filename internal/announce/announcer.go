package announce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pokedotduel/internal/rewards"

	"github.com/rs/zerolog/log"
)

const deliveredRetention = time.Hour

// Announcer posts finished battles to every configured webhook target.
// Targets that already accepted a battle are skipped when the dispatcher
// retries it.
type Announcer struct {
	targets  []Target
	adapters map[string]Adapter

	mu        sync.Mutex
	delivered map[string]time.Time
}

func New(cfg Config) *Announcer {
	client := NewHTTPClient(cfg.RequestTimeout)
	return NewWithAdapters(cfg.Targets, NewDiscordAdapter(client), NewFeishuAdapter(client))
}

func NewWithAdapters(targets []Target, adapters ...Adapter) *Announcer {
	a := &Announcer{
		targets:   append([]Target(nil), targets...),
		adapters:  make(map[string]Adapter, len(adapters)),
		delivered: map[string]time.Time{},
	}
	for _, ad := range adapters {
		a.adapters[ad.Name()] = ad
	}
	return a
}

func (a *Announcer) Enabled() bool {
	return len(a.targets) > 0
}

func (a *Announcer) AnnounceBattle(ctx context.Context, o rewards.Outcome) error {
	msg := FormatOutcome(o)
	var errs []error
	for i, t := range a.targets {
		if t.MinWagerLamports > 0 && o.WagerLamports < t.MinWagerLamports {
			continue
		}
		key := fmt.Sprintf("%s|%d", o.BattleID, i)
		if a.wasDelivered(key) {
			continue
		}
		adapter, ok := a.adapters[t.Platform]
		if !ok {
			continue
		}
		if err := adapter.Send(ctx, t.Endpoint, t.Secret, msg); err != nil {
			metricAnnounceFailedTotal.Add(1)
			errs = append(errs, fmt.Errorf("%s target %d: %w", t.Platform, i, err))
			continue
		}
		metricAnnounceSentTotal.Add(1)
		a.markDelivered(key)
	}
	if len(errs) > 0 {
		log.Warn().Err(errors.Join(errs...)).Str("battle_id", o.BattleID).Msg("battle announce failed")
	}
	return errors.Join(errs...)
}

func (a *Announcer) wasDelivered(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.delivered[key]
	return ok
}

func (a *Announcer) markDelivered(key string) {
	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, at := range a.delivered {
		if now.Sub(at) > deliveredRetention {
			delete(a.delivered, k)
		}
	}
	a.delivered[key] = now
}
