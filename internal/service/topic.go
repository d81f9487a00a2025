package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// maxCompleteAttempts bounds compare-and-swap retries for manual completion
const maxCompleteAttempts = 3

// CardCatalog supplies starter cards for a category
type CardCatalog interface {
	CardsFor(category model.Category) []*model.Card
}

// TopicService handles topic lifecycle and ownership
type TopicService struct {
	topicRepo TopicRepository
	cardRepo  CardRepository
	catalog   CardCatalog
	clock     Clock
	log       *logger.Logger
}

// TopicServiceConfig holds configuration for the topic service
type TopicServiceConfig struct {
	TopicRepo TopicRepository
	CardRepo  CardRepository
	Catalog   CardCatalog
	Clock     Clock
	Logger    *logger.Logger
}

// NewTopicService creates a new topic service
func NewTopicService(cfg TopicServiceConfig) *TopicService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &TopicService{
		topicRepo: cfg.TopicRepo,
		cardRepo:  cfg.CardRepo,
		catalog:   cfg.Catalog,
		clock:     cfg.Clock,
		log:       cfg.Logger,
	}
}

// CreateTopic starts a new active topic and copies the category's starter
// cards into it
func (s *TopicService) CreateTopic(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error) {
	if !req.Category.IsValid() {
		return nil, ErrInvalidCategory
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrTopicNameRequired
	}
	if utf8.RuneCountInString(name) > model.MaxTopicNameLength {
		return nil, ErrTopicNameTooLong
	}

	topic := &model.Topic{
		UserID:    userID,
		Category:  req.Category,
		Name:      name,
		State:     model.TopicStateActive,
		StartDate: s.clock.Now().UTC(),
		Version:   1,
	}
	if err := s.topicRepo.Create(ctx, topic); err != nil {
		return nil, err
	}

	seeded, err := s.SeedCards(ctx, topic)
	if err != nil {
		return nil, err
	}

	s.log.Info("topic created",
		"topic_id", topic.ID,
		"user_id", userID,
		"category", string(topic.Category),
		"cards", seeded,
	)
	return topic, nil
}

// SeedCards instantiates the catalog cards for an existing topic and returns
// how many were written
func (s *TopicService) SeedCards(ctx context.Context, topic *model.Topic) (int, error) {
	if s.catalog == nil {
		return 0, nil
	}
	cards := s.catalog.CardsFor(topic.Category)
	if len(cards) == 0 {
		return 0, nil
	}
	now := s.clock.Now().UTC()
	for _, c := range cards {
		c.TopicID = topic.ID
		c.Category = topic.Category
		c.Active = true
		c.CreatedOn = now
		c.Effectiveness = model.Effectiveness{LastUpdated: now}
	}
	if err := s.cardRepo.CreateBatch(ctx, cards); err != nil {
		return 0, err
	}
	return len(cards), nil
}

// GetTopic returns a topic owned by userID. Topics owned by someone else are
// reported as not found.
func (s *TopicService) GetTopic(ctx context.Context, userID, topicID string) (*model.Topic, error) {
	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}
	if topic.UserID != userID {
		return nil, ErrNotTopicOwner
	}
	return topic, nil
}

// ListActiveTopics returns the user's topics in the active state
func (s *TopicService) ListActiveTopics(ctx context.Context, userID string) ([]*model.Topic, error) {
	state := model.TopicStateActive
	topics, err := s.topicRepo.ListByUser(ctx, userID, &state)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []*model.Topic{}
	}
	return topics, nil
}

// CompleteTopic marks a topic completed at the user's request, whatever its
// progress. Completing an already completed topic returns it unchanged.
func (s *TopicService) CompleteTopic(ctx context.Context, userID, topicID string) (*model.Topic, error) {
	for attempt := 1; ; attempt++ {
		topic, err := s.GetTopic(ctx, userID, topicID)
		if err != nil {
			return nil, err
		}
		switch topic.State {
		case model.TopicStateCompleted:
			return topic, nil
		case model.TopicStateLocked:
			return nil, ErrTopicLocked
		}

		updated, err := s.topicRepo.SetState(ctx, topicID, topic.Version, model.TopicStateCompleted)
		if err == nil {
			s.log.Info("topic completed manually",
				"topic_id", topicID,
				"user_id", userID,
				"progress", updated.Progress,
			)
			return updated, nil
		}
		if !errors.Is(err, ErrVersionMismatch) {
			return nil, err
		}
		if attempt >= maxCompleteAttempts {
			return nil, ErrProgressContention
		}
	}
}

// SetCardActive retires or restores a card. Retired cards are never selected.
func (s *TopicService) SetCardActive(ctx context.Context, cardID string, active bool) (*model.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	if card.Active == active {
		return card, nil
	}

	if err := s.cardRepo.SetActive(ctx, cardID, active); err != nil {
		return nil, err
	}
	card.Active = active
	s.log.Info("card activity changed", "card_id", cardID, "topic_id", card.TopicID, "active", active)
	return card, nil
}
