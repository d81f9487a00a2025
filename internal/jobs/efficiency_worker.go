package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// EfficiencyRecomputer recomputes one card's effectiveness from history
type EfficiencyRecomputer interface {
	RecomputeEfficiency(ctx context.Context, cardID string) (*model.Effectiveness, error)
}

type pendingCard struct {
	attempts  int
	notBefore time.Time
	// seq changes on every Enqueue so a recompute that raced a new
	// response does not clear the newer request
	seq int
}

// EfficiencyWorker recomputes card effectiveness off the request path.
// Cards are queued by id; a card queued several times before the worker
// gets to it is recomputed once.
type EfficiencyWorker struct {
	recomputer  EfficiencyRecomputer
	interval    time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	timeout     time.Duration
	now         func() time.Time
	log         *logger.Logger

	pendingMu sync.Mutex
	pending   map[string]*pendingCard

	wake    chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// EfficiencyWorkerConfig holds configuration for the efficiency worker
type EfficiencyWorkerConfig struct {
	Recomputer EfficiencyRecomputer
	// Interval is how often the worker checks for cards whose backoff passed
	Interval time.Duration
	// MaxAttempts bounds retries of one card before it is dropped
	MaxAttempts int
	// Backoff is the delay after the first failure, doubled per attempt
	Backoff time.Duration
	Logger  *logger.Logger
}

// NewEfficiencyWorker creates a new efficiency worker
func NewEfficiencyWorker(cfg EfficiencyWorkerConfig) *EfficiencyWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &EfficiencyWorker{
		recomputer:  cfg.Recomputer,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		maxBackoff:  5 * time.Minute,
		timeout:     30 * time.Second,
		now:         time.Now,
		log:         cfg.Logger.With("job", "efficiency_worker"),
		pending:     make(map[string]*pendingCard),
		wake:        make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

// Enqueue schedules a recompute of cardID. It never blocks.
func (w *EfficiencyWorker) Enqueue(cardID string) {
	if cardID == "" {
		return
	}

	w.pendingMu.Lock()
	if p, ok := w.pending[cardID]; ok {
		p.seq++
	} else {
		w.pending[cardID] = &pendingCard{}
	}
	w.pendingMu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns how many cards are waiting for a recompute
func (w *EfficiencyWorker) Pending() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.pending)
}

// Start begins the efficiency worker
func (w *EfficiencyWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()
	w.log.Info("efficiency worker started", "interval", w.interval.String())
}

// Stop gracefully stops the efficiency worker. Cards still pending are
// logged and dropped; their effectiveness is fixed by the next recompute.
func (w *EfficiencyWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("efficiency worker stopped", "pending", w.Pending())
}

// run is the main loop
func (w *EfficiencyWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.wake:
		case <-ticker.C:
		case <-w.stopCh:
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-w.stopCh:
				cancel()
			case <-ctx.Done():
			}
		}()
		_ = w.RunOnce(ctx)
		cancel()
	}
}

// RunOnce recomputes every card whose backoff has passed
func (w *EfficiencyWorker) RunOnce(ctx context.Context) error {
	var errs []error
	for cardID, seq := range w.due() {
		if ctx.Err() != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		_, err := w.recomputer.RecomputeEfficiency(callCtx, cardID)
		cancel()

		if err != nil {
			errs = append(errs, fmt.Errorf("card %s: %w", cardID, err))
			w.fail(cardID, err)
			continue
		}
		w.done(cardID, seq)
	}
	return errors.Join(errs...)
}

// due returns the cards whose backoff has passed, with their current seq
func (w *EfficiencyWorker) due() map[string]int {
	now := w.now()
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	ids := make(map[string]int, len(w.pending))
	for id, p := range w.pending {
		if !p.notBefore.After(now) {
			ids[id] = p.seq
		}
	}
	return ids
}

func (w *EfficiencyWorker) done(cardID string, seq int) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	p, ok := w.pending[cardID]
	if !ok {
		return
	}
	if p.seq != seq {
		// enqueued again mid-recompute: run once more
		p.attempts = 0
		p.notBefore = time.Time{}
		return
	}
	delete(w.pending, cardID)
}

func (w *EfficiencyWorker) fail(cardID string, err error) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	p, ok := w.pending[cardID]
	if !ok {
		return
	}
	p.attempts++
	if p.attempts >= w.maxAttempts {
		delete(w.pending, cardID)
		w.log.Error("efficiency recompute abandoned", "card_id", cardID, "attempts", p.attempts, "error", err)
		return
	}

	delay := w.backoff << (p.attempts - 1)
	if delay <= 0 || delay > w.maxBackoff {
		delay = w.maxBackoff
	}
	p.notBefore = w.now().Add(delay)
	w.log.Warn("efficiency recompute failed", "card_id", cardID, "attempts", p.attempts, "retry_in", delay.String(), "error", err)
}

// IsRunning returns whether the worker is running
func (w *EfficiencyWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
