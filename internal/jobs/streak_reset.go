package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/pausemo/api/internal/logger"
)

// StreakResetter runs the daily streak maintenance
type StreakResetter interface {
	ResetStreaks(ctx context.Context) (int, error)
}

// StreakResetJob runs streak maintenance shortly after every local midnight
// - topics with no response yesterday or today lose their streak
// - todayResponded is cleared on topics not answered today
type StreakResetJob struct {
	resetter StreakResetter
	location *time.Location
	offset   time.Duration
	now      func() time.Time
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewStreakResetJob creates a new streak reset job. Midnight is taken in loc.
func NewStreakResetJob(resetter StreakResetter, loc *time.Location, log *logger.Logger) *StreakResetJob {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &StreakResetJob{
		resetter: resetter,
		location: loc,
		offset:   time.Minute,
		now:      time.Now,
		log:      log.With("job", "streak_reset"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the streak reset job
func (j *StreakResetJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.log.Info("streak reset job started", "timezone", j.location.String())
}

// Stop gracefully stops the streak reset job
func (j *StreakResetJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.log.Info("streak reset job stopped")
}

// run is the main loop
func (j *StreakResetJob) run() {
	defer j.wg.Done()

	// catch up on a missed midnight
	j.resetStreaks()

	for {
		timer := time.NewTimer(nextRun(j.now(), j.location, j.offset).Sub(j.now()))
		select {
		case <-timer.C:
			j.resetStreaks()
		case <-j.stopCh:
			timer.Stop()
			return
		}
	}
}

func (j *StreakResetJob) resetStreaks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.log.Error("streak reset failed", "error", err)
	}
}

// RunOnce runs the streak maintenance once (for testing or manual trigger)
func (j *StreakResetJob) RunOnce(ctx context.Context) (int, error) {
	return j.resetter.ResetStreaks(ctx)
}

// IsRunning returns whether the job is running
func (j *StreakResetJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// nextRun returns the first local midnight plus offset strictly after now
func nextRun(now time.Time, loc *time.Location, offset time.Duration) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset)
	for !next.After(now) {
		y, m, d = next.Date()
		next = time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(offset)
	}
	return next
}
