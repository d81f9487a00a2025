package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// ResponseRepository defines the interface for the append-only response log
type ResponseRepository interface {
	Create(ctx context.Context, response *model.Response) error
	// CountByCard returns the total and completed response counts for a card
	CountByCard(ctx context.Context, cardID string) (total int, completed int, err error)
}

// PresentationRepository defines the interface for card presentation records
type PresentationRepository interface {
	Create(ctx context.Context, presentation *model.Presentation) error
	CountByCard(ctx context.Context, cardID string) (int, error)
}

// KeyedLocker serializes work on a single key. The returned unlock func must
// be called exactly once.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EfficiencyQueue accepts cards whose effectiveness should be recomputed
// asynchronously
type EfficiencyQueue interface {
	Enqueue(cardID string)
}

// EfficiencyService recomputes card effectiveness from full history
type EfficiencyService struct {
	cardRepo         CardRepository
	responseRepo     ResponseRepository
	presentationRepo PresentationRepository
	locker           KeyedLocker
	clock            Clock
	log              *logger.Logger
	group            singleflight.Group
}

// EfficiencyServiceConfig holds configuration for the efficiency service
type EfficiencyServiceConfig struct {
	CardRepo         CardRepository
	ResponseRepo     ResponseRepository
	PresentationRepo PresentationRepository
	Locker           KeyedLocker
	Clock            Clock
	Logger           *logger.Logger
}

// NewEfficiencyService creates a new efficiency service
func NewEfficiencyService(cfg EfficiencyServiceConfig) *EfficiencyService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &EfficiencyService{
		cardRepo:         cfg.CardRepo,
		responseRepo:     cfg.ResponseRepo,
		presentationRepo: cfg.PresentationRepo,
		locker:           cfg.Locker,
		clock:            cfg.Clock,
		log:              cfg.Logger,
	}
}

// RecomputeEfficiency rebuilds a card's effectiveness from its response and
// presentation history and stores it. Calls that arrive before a computation
// starts reading share it; later calls start a fresh one behind the locker.
func (s *EfficiencyService) RecomputeEfficiency(ctx context.Context, cardID string) (*model.Effectiveness, error) {
	v, err, _ := s.group.Do(cardID, func() (interface{}, error) {
		// history read from here on may already be stale for the next caller
		s.group.Forget(cardID)
		return s.recompute(ctx, cardID)
	})
	if err != nil {
		return nil, err
	}
	eff := v.(model.Effectiveness)
	return &eff, nil
}

func (s *EfficiencyService) recompute(ctx context.Context, cardID string) (model.Effectiveness, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "card:"+cardID)
		if err != nil {
			return model.Effectiveness{}, fmt.Errorf("lock card %s: %w", cardID, err)
		}
		defer unlock()
	}

	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return model.Effectiveness{}, err
	}
	if card == nil {
		return model.Effectiveness{}, ErrCardNotFound
	}

	total, completed, err := s.responseRepo.CountByCard(ctx, cardID)
	if err != nil {
		return model.Effectiveness{}, fmt.Errorf("count responses: %w", err)
	}
	presented, err := s.presentationRepo.CountByCard(ctx, cardID)
	if err != nil {
		return model.Effectiveness{}, fmt.Errorf("count presentations: %w", err)
	}

	eff := computeEffectiveness(total, completed, presented)
	eff.LastUpdated = s.clock.Now().UTC()

	if err := s.cardRepo.UpdateEffectiveness(ctx, cardID, eff); err != nil {
		return model.Effectiveness{}, err
	}

	s.log.Debug("card effectiveness recomputed",
		"card_id", cardID,
		"responses", total,
		"completed", completed,
		"presentations", presented,
		"response_rate", eff.ResponseRate,
		"completion_rate", eff.CompletionRate,
	)
	return eff, nil
}

// computeEffectiveness derives both rates from raw counts. Each rate is in
// [0,1] and is 0 when its denominator is 0.
func computeEffectiveness(total, completed, presented int) model.Effectiveness {
	var eff model.Effectiveness
	if total > 0 {
		eff.CompletionRate = clampUnit(float64(completed) / float64(total))
	}
	if presented > 0 {
		eff.ResponseRate = clampUnit(float64(total) / float64(presented))
	}
	return eff
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
