// Package fixtures provides test data factories for integration tests.
//
// Each factory method creates an entity with sensible defaults, allows
// customization via option functions, stores it through the real
// repositories and returns the stored model.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	topic := f.CreateTopic(t, "user:alice")
//	card := f.CreateCard(t, topic, model.PhaseObservation, 1)
package fixtures

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	Topics        *repository.TopicRepository
	Cards         *repository.CardRepository
	Responses     *repository.ResponseRepository
	Presentations *repository.PresentationRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		Topics:        repository.NewTopicRepository(db),
		Cards:         repository.NewCardRepository(db),
		Responses:     repository.NewResponseRepository(db),
		Presentations: repository.NewPresentationRepository(db),
	}
}

// RandomUserID returns a fresh "user:<hex>" identifier
func RandomUserID() string {
	return "user:" + randomID()
}

func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// ============================================================================
// Topic Fixtures
// ============================================================================

// TopicOpts customizes topic creation
type TopicOpts struct {
	Category         model.Category
	Name             string
	State            model.TopicState
	Progress         int
	ConsecutiveDays  int
	DaysActive       int
	TodayResponded   bool
	LastResponseDate *time.Time
}

// WithCategory sets the topic category
func WithCategory(c model.Category) func(*TopicOpts) {
	return func(o *TopicOpts) { o.Category = c }
}

// WithStreak sets the streak fields and the last response day
func WithStreak(consecutive int, last time.Time, today bool) func(*TopicOpts) {
	return func(o *TopicOpts) {
		o.ConsecutiveDays = consecutive
		o.DaysActive = consecutive
		o.LastResponseDate = &last
		o.TodayResponded = today
	}
}

// WithTopicState sets the lifecycle state
func WithTopicState(s model.TopicState) func(*TopicOpts) {
	return func(o *TopicOpts) { o.State = s }
}

// CreateTopic creates an active topic owned by userID
func (f *Factory) CreateTopic(t *testing.T, userID string, opts ...func(*TopicOpts)) *model.Topic {
	t.Helper()

	o := &TopicOpts{
		Category: model.CategoryHabitAddiction,
		Name:     "Topic " + randomID(),
		State:    model.TopicStateActive,
	}
	for _, opt := range opts {
		opt(o)
	}

	topic := &model.Topic{
		UserID:           userID,
		Category:         o.Category,
		Name:             o.Name,
		State:            o.State,
		Progress:         o.Progress,
		DaysActive:       o.DaysActive,
		TodayResponded:   o.TodayResponded,
		StartDate:        time.Now().UTC(),
		LastResponseDate: o.LastResponseDate,
		ConsecutiveDays:  o.ConsecutiveDays,
		Version:          1,
	}

	c, cancel := ctx()
	defer cancel()
	if err := f.Topics.Create(c, topic); err != nil {
		t.Fatalf("fixtures: failed to create topic: %v", err)
	}
	return topic
}

// ============================================================================
// Card Fixtures
// ============================================================================

// CardOpts customizes card creation
type CardOpts struct {
	Text      string
	Primary   model.Archetype
	Secondary *model.Archetype
	Inactive  bool
	Rate      float64
}

// WithTarget sets the target archetypes
func WithTarget(primary model.Archetype, secondary *model.Archetype) func(*CardOpts) {
	return func(o *CardOpts) {
		o.Primary = primary
		o.Secondary = secondary
	}
}

// WithResponseRate seeds the stored effectiveness
func WithResponseRate(rate float64) func(*CardOpts) {
	return func(o *CardOpts) { o.Rate = rate }
}

// Inactive creates the card switched off
func Inactive() func(*CardOpts) {
	return func(o *CardOpts) { o.Inactive = true }
}

// CreateCard creates a card in topic
func (f *Factory) CreateCard(t *testing.T, topic *model.Topic, phase model.Phase, difficulty int, opts ...func(*CardOpts)) *model.Card {
	t.Helper()

	o := &CardOpts{
		Text:    string(phase) + " card " + randomID(),
		Primary: model.ArchetypeSilentObserver,
	}
	for _, opt := range opts {
		opt(o)
	}

	now := time.Now().UTC()
	card := &model.Card{
		TopicID:         topic.ID,
		Phase:           phase,
		Difficulty:      difficulty,
		Text:            o.Text,
		Category:        topic.Category,
		TargetArchetype: model.ArchetypePair{Primary: o.Primary, Secondary: o.Secondary},
		Active:          !o.Inactive,
		Effectiveness:   model.Effectiveness{ResponseRate: o.Rate, LastUpdated: now},
		CreatedOn:       now,
	}

	c, cancel := ctx()
	defer cancel()
	if err := f.Cards.Create(c, card); err != nil {
		t.Fatalf("fixtures: failed to create card: %v", err)
	}
	return card
}

// ============================================================================
// History Fixtures
// ============================================================================

// Present records n presentations of card
func (f *Factory) Present(t *testing.T, card *model.Card, n int) {
	t.Helper()

	c, cancel := ctx()
	defer cancel()
	for i := 0; i < n; i++ {
		err := f.Presentations.Create(c, &model.Presentation{
			CardID:    card.ID,
			TopicID:   card.TopicID,
			SessionID: "session-" + randomID(),
			Phase:     card.Phase,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("fixtures: failed to create presentation: %v", err)
		}
	}
}

// Respond records one answer to card
func (f *Factory) Respond(t *testing.T, card *model.Card, userID string, answer model.Answer, completed bool) *model.Response {
	t.Helper()

	resp := &model.Response{
		UserID:              userID,
		CardID:              card.ID,
		TopicID:             card.TopicID,
		Answer:              answer,
		ResponseTimeSeconds: 2.5,
		Completed:           completed,
		Timestamp:           time.Now().UTC(),
		Context:             model.ResponseContext{TimeOfDay: "morning"},
	}

	c, cancel := ctx()
	defer cancel()
	if err := f.Responses.Create(c, resp); err != nil {
		t.Fatalf("fixtures: failed to create response: %v", err)
	}
	return resp
}
