package service

import (
	"context"
	"sort"

	"github.com/pausemo/api/internal/model"
)

// CardRepository defines the interface for card storage
type CardRepository interface {
	GetByID(ctx context.Context, id string) (*model.Card, error)
	// ListByTopic returns the active cards of a topic that match the filter,
	// in no particular order.
	ListByTopic(ctx context.Context, filter model.CardFilter) ([]*model.Card, error)
	CreateBatch(ctx context.Context, cards []*model.Card) error
	UpdateEffectiveness(ctx context.Context, id string, eff model.Effectiveness) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CardSelector ranks a topic's content by historical effectiveness
type CardSelector struct {
	cardRepo CardRepository
}

// CardSelectorConfig holds configuration for the card selector
type CardSelectorConfig struct {
	CardRepo CardRepository
}

// NewCardSelector creates a new card selector
func NewCardSelector(cfg CardSelectorConfig) *CardSelector {
	return &CardSelector{
		cardRepo: cfg.CardRepo,
	}
}

// SelectCards returns the active cards of a topic matching the optional
// phase, difficulty and archetype filters, best responseRate first. Ties are
// broken by lastUpdated (newest first) and then by id. An empty result is
// not an error.
func (s *CardSelector) SelectCards(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
	if err := validateCardFilter(filter); err != nil {
		return nil, err
	}

	cards, err := s.cardRepo.ListByTopic(ctx, filter)
	if err != nil {
		return nil, err
	}

	// The repository is trusted for the coarse filter; re-check here so the
	// ordering contract never includes a stray inactive or mismatched card.
	matched := make([]*model.Card, 0, len(cards))
	for _, c := range cards {
		if cardMatches(c, filter) {
			matched = append(matched, c)
		}
	}

	rankCards(matched)
	return matched, nil
}

// SelectBest returns the top-ranked card for a phase. When the difficulty or
// archetype filters leave nothing, it retries with the phase alone and fails
// with ErrNoCards only if the topic has no active card for that phase.
func (s *CardSelector) SelectBest(ctx context.Context, filter model.CardFilter) (*model.Card, error) {
	cards, err := s.SelectCards(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 && (filter.Difficulty != nil || filter.Archetype != nil) {
		cards, err = s.SelectCards(ctx, model.CardFilter{TopicID: filter.TopicID, Phase: filter.Phase})
		if err != nil {
			return nil, err
		}
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	return cards[0], nil
}

func validateCardFilter(filter model.CardFilter) error {
	if filter.Phase != nil && !filter.Phase.IsValid() {
		return ErrInvalidPhase
	}
	if filter.Difficulty != nil && !model.ValidDifficulty(*filter.Difficulty) {
		return ErrInvalidDifficulty
	}
	if filter.Archetype != nil && !filter.Archetype.IsValid() {
		return ErrInvalidArchetype
	}
	return nil
}

func cardMatches(c *model.Card, filter model.CardFilter) bool {
	if c == nil || !c.Active || c.TopicID != filter.TopicID {
		return false
	}
	if filter.Phase != nil && c.Phase != *filter.Phase {
		return false
	}
	if filter.Difficulty != nil && c.Difficulty != *filter.Difficulty {
		return false
	}
	if filter.Archetype != nil && !c.TargetArchetype.Matches(*filter.Archetype) {
		return false
	}
	return true
}

func rankCards(cards []*model.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Effectiveness.ResponseRate != b.Effectiveness.ResponseRate {
			return a.Effectiveness.ResponseRate > b.Effectiveness.ResponseRate
		}
		if !a.Effectiveness.LastUpdated.Equal(b.Effectiveness.LastUpdated) {
			return a.Effectiveness.LastUpdated.After(b.Effectiveness.LastUpdated)
		}
		return a.ID < b.ID
	})
}
