package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/pausemo/api/internal/logger"
)

// SessionExpirer drops sessions that have been idle too long
type SessionExpirer interface {
	ExpireIdle(ctx context.Context) int
}

// SessionSweeper periodically expires idle sessions so they stop blocking
// their topic
type SessionSweeper struct {
	expirer  SessionExpirer
	interval time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSessionSweeper creates a new session sweeper job
func NewSessionSweeper(expirer SessionExpirer, interval time.Duration, log *logger.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionSweeper{
		expirer:  expirer,
		interval: interval,
		log:      log.With("job", "session_sweeper"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the session sweeper
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	s.log.Info("session sweeper started", "interval", s.interval.String())
}

// Stop gracefully stops the session sweeper
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("session sweeper stopped")
}

// run is the main loop
func (s *SessionSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce expires idle sessions once and returns how many were dropped
func (s *SessionSweeper) RunOnce(ctx context.Context) int {
	n := s.expirer.ExpireIdle(ctx)
	if n > 0 {
		s.log.Info("expired idle sessions", "count", n)
	}
	return n
}

// IsRunning returns whether the sweeper is running
func (s *SessionSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
