package service

import (
	"context"
	"errors"
	"time"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// ErrVersionMismatch is returned by TopicRepository.UpdateProgress when the
// stored version no longer matches the expected one
var ErrVersionMismatch = errors.New("topic version mismatch")

// TopicRepository defines the interface for topic storage
type TopicRepository interface {
	Create(ctx context.Context, topic *model.Topic) error
	GetByID(ctx context.Context, id string) (*model.Topic, error)
	ListByUser(ctx context.Context, userID string, state *model.TopicState) ([]*model.Topic, error)
	// UpdateProgress writes every progress field and bumps the version, but
	// only if the stored version equals expectedVersion. Otherwise it
	// returns ErrVersionMismatch.
	UpdateProgress(ctx context.Context, id string, expectedVersion int, update model.TopicProgressUpdate) (*model.Topic, error)
	// SetState changes only the lifecycle state, with the same
	// compare-and-swap contract as UpdateProgress
	SetState(ctx context.Context, id string, expectedVersion int, state model.TopicState) (*model.Topic, error)
	// ResetStreaks zeroes consecutiveDays for topics whose last response is
	// before staleBefore, and clears todayResponded for topics whose last
	// response is before today. It returns the number of topics touched.
	ResetStreaks(ctx context.Context, staleBefore, today time.Time) (int, error)
}

const maxProgressBackoff = 500 * time.Millisecond

// QuestService advances topic progress and streaks
type QuestService struct {
	topicRepo   TopicRepository
	clock       Clock
	location    *time.Location
	maxAttempts int
	backoff     time.Duration
	log         *logger.Logger
}

// QuestServiceConfig holds configuration for the quest service
type QuestServiceConfig struct {
	TopicRepo TopicRepository
	Clock     Clock
	// Location decides calendar days (default UTC)
	Location *time.Location
	// MaxAttempts bounds compare-and-swap retries (default 5)
	MaxAttempts int
	// Backoff is the delay before the first retry, doubled each attempt
	Backoff time.Duration
	Logger  *logger.Logger
}

// NewQuestService creates a new quest service
func NewQuestService(cfg QuestServiceConfig) *QuestService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 10 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &QuestService{
		topicRepo:   cfg.TopicRepo,
		clock:       cfg.Clock,
		location:    cfg.Location,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		log:         cfg.Logger,
	}
}

// AdvanceTopicProgress applies a completed session result to its topic.
// The topic is read, every derived field is computed from that snapshot and
// the whole set is written with one compare-and-swap on the version. A result
// whose session was already applied leaves the topic untouched.
func (s *QuestService) AdvanceTopicProgress(ctx context.Context, topicID string, result *model.SessionResult) (*model.Topic, error) {
	if result == nil || !result.Completed {
		return nil, ErrSessionNotCompleted
	}

	delay := s.backoff
	for attempt := 1; ; attempt++ {
		topic, err := s.topicRepo.GetByID(ctx, topicID)
		if err != nil {
			return nil, err
		}
		if topic == nil {
			return nil, ErrTopicNotFound
		}

		// Idempotency: this session already counted
		if result.SessionID != "" && topic.LastSessionID == result.SessionID {
			return topic, nil
		}

		update := nextProgress(topic, s.clock.Now(), s.location)
		update.LastSessionID = result.SessionID

		updated, err := s.topicRepo.UpdateProgress(ctx, topicID, topic.Version, update)
		if err == nil {
			if updated.State == model.TopicStateCompleted && topic.State != model.TopicStateCompleted {
				s.log.Info("topic completed", "topic_id", topicID, "user_id", topic.UserID)
			}
			return updated, nil
		}
		if !errors.Is(err, ErrVersionMismatch) {
			return nil, err
		}
		if attempt >= s.maxAttempts {
			s.log.Warn("topic progress contention", "topic_id", topicID, "attempts", attempt)
			return nil, ErrProgressContention
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxProgressBackoff {
			delay *= 2
		}
	}
}

// nextProgress computes the post-session values of a topic snapshot
func nextProgress(topic *model.Topic, now time.Time, loc *time.Location) model.TopicProgressUpdate {
	today := calendarDay(now, loc)

	update := model.TopicProgressUpdate{
		State:            topic.State,
		Progress:         topic.Progress,
		DaysActive:       topic.DaysActive,
		ConsecutiveDays:  topic.ConsecutiveDays,
		TotalResponses:   topic.TotalResponses + 1,
		TodayResponded:   true,
		LastResponseDate: today,
	}

	if topic.LastResponseDate == nil {
		update.DaysActive++
		update.ConsecutiveDays = 1
	} else {
		switch daysBetween(*topic.LastResponseDate, now, loc) {
		case 0:
			// same day: nothing to add
		case 1:
			update.DaysActive++
			update.ConsecutiveDays++
		default:
			update.DaysActive++
			update.ConsecutiveDays = 1
		}
	}

	if update.Progress < model.MaxProgress {
		update.Progress++
	}
	if update.Progress >= model.MaxProgress {
		update.Progress = model.MaxProgress
		update.State = model.TopicStateCompleted
	}
	return update
}

// ResetStreaks runs the daily streak maintenance: topics with no response
// yesterday or today lose their streak, and todayResponded is cleared on
// topics not answered today.
func (s *QuestService) ResetStreaks(ctx context.Context) (int, error) {
	today := calendarDay(s.clock.Now(), s.location)
	yesterday := today.AddDate(0, 0, -1)
	n, err := s.topicRepo.ResetStreaks(ctx, yesterday, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("streaks reset", "topics", n)
	}
	return n, nil
}
