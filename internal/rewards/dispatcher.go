package rewards

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const processedRetention = time.Hour

var errNoCollaborator = errors.New("no_collaborator")

// Dispatcher fans finished battles out to the economy, progression and
// collection services. Each call is retried with exponential backoff and
// every battle is dispatched at most once.
type Dispatcher struct {
	cfg         Config
	economy     Economy
	progression Progression
	collection  Collection
	announcer   Announcer

	dispatchCh chan job
	retryQ     *retryQueue
	done       chan struct{}

	mu        sync.Mutex
	started   bool
	processed map[string]time.Time
}

func NewDispatcher(cfg Config, economy Economy, progression Progression, collection Collection) *Dispatcher {
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	d := &Dispatcher{
		cfg:         cfg,
		economy:     economy,
		progression: progression,
		collection:  collection,
		dispatchCh:  make(chan job, cfg.DispatchBuffer),
		done:        make(chan struct{}),
		processed:   map[string]time.Time{},
	}
	d.retryQ = newRetryQueue(d.dispatchCh, d.done)
	return d
}

// SetAnnouncer adds a result announcer. It must be called before Dispatch.
func (d *Dispatcher) SetAnnouncer(a Announcer) {
	d.announcer = a
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			d.worker(ctx)
			return nil
		})
	}
	<-ctx.Done()
	close(d.done)
	return g.Wait()
}

// Dispatch queues the reward jobs for a finished battle. It returns false
// when the battle was already dispatched.
func (d *Dispatcher) Dispatch(o Outcome) bool {
	now := time.Now()
	d.mu.Lock()
	for id, at := range d.processed {
		if now.Sub(at) > processedRetention {
			delete(d.processed, id)
		}
	}
	if _, seen := d.processed[o.BattleID]; seen {
		d.mu.Unlock()
		metricRewardDuplicateTotal.Add(1)
		return false
	}
	d.processed[o.BattleID] = now
	d.mu.Unlock()

	jobs := []job{{Kind: jobSettle, Outcome: o}}
	for _, userID := range o.Humans {
		jobs = append(jobs,
			job{Kind: jobXP, UserID: userID, Outcome: o},
			job{Kind: jobRecord, UserID: userID, Outcome: o},
		)
	}
	if d.announcer != nil {
		jobs = append(jobs, job{Kind: jobAnnounce, Outcome: o})
	}
	for _, j := range jobs {
		select {
		case d.dispatchCh <- j:
			metricRewardQueuedTotal.Add(1)
		default:
			metricRewardDroppedTotal.Add(1)
			log.Warn().Str("battle_id", o.BattleID).Str("job", string(j.Kind)).Msg("reward queue full, dropping job")
		}
	}
	metricRewardQueueLen.Set(int64(len(d.dispatchCh)))
	return true
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case j := <-d.dispatchCh:
			metricRewardQueueLen.Set(int64(len(d.dispatchCh)))
			d.process(ctx, j)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	err := d.send(ctx, j)
	if err == nil {
		metricRewardSentTotal.Add(1)
		return
	}
	if errors.Is(err, errNoCollaborator) {
		return
	}
	metricRewardFailedTotal.Add(1)
	if !d.retryOrDrop(j) {
		log.Error().Err(err).
			Str("battle_id", j.Outcome.BattleID).
			Str("user_id", j.UserID).
			Str("job", string(j.Kind)).
			Int("attempt", j.Attempt).
			Msg("reward dispatch dropped")
	}
}

func (d *Dispatcher) send(ctx context.Context, j job) error {
	switch j.Kind {
	case jobSettle:
		if d.economy == nil {
			return errNoCollaborator
		}
		return d.economy.SettleWager(ctx, j.Outcome)
	case jobXP:
		if d.progression == nil {
			return errNoCollaborator
		}
		return d.progression.AwardBattleXP(ctx, j.UserID, XPFor(j.Outcome.ResultFor(j.UserID)), j.Outcome)
	case jobRecord:
		if d.collection == nil {
			return errNoCollaborator
		}
		return d.collection.RecordBattle(ctx, j.UserID, j.Outcome.ResultFor(j.UserID), j.Outcome)
	case jobAnnounce:
		if d.announcer == nil {
			return errNoCollaborator
		}
		return d.announcer.AnnounceBattle(ctx, j.Outcome)
	default:
		return errNoCollaborator
	}
}

func (d *Dispatcher) retryOrDrop(j job) bool {
	if j.Attempt >= d.cfg.RetryMax {
		metricRewardRetryDroppedTotal.Add(1)
		return false
	}
	j.Attempt++
	metricRewardRetryTotal.Add(1)
	delay := d.cfg.RetryBase * time.Duration(1<<(j.Attempt-1))
	d.retryQ.Enqueue(j, delay)
	return true
}
