package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausemo/api/internal/model"
)

type stubCatalog map[model.Category][]model.Card

func (c stubCatalog) CardsFor(category model.Category) []*model.Card {
	var out []*model.Card
	for _, card := range c[category] {
		card := card
		out = append(out, &card)
	}
	return out
}

func newTopicFixture() (*TopicService, *memTopicRepo, *memCardRepo) {
	topics := newMemTopicRepo()
	cards := newMemCardRepo()
	catalog := stubCatalog{
		model.CategoryHabitAddiction: {
			{Phase: model.PhaseObservation, Difficulty: 1, Text: "Scrolling?", TargetArchetype: model.ArchetypePair{Primary: model.ArchetypeSilentObserver}},
			{Phase: model.PhaseGap, Difficulty: 1, Text: "Breathe.", TargetArchetype: model.ArchetypePair{Primary: model.ArchetypeSilentObserver}},
			{Phase: model.PhaseReinforcement, Difficulty: 1, Text: "Did it pass?", TargetArchetype: model.ArchetypePair{Primary: model.ArchetypeSilentObserver}},
		},
	}
	svc := NewTopicService(TopicServiceConfig{
		TopicRepo: topics,
		CardRepo:  cards,
		Catalog:   catalog,
		Clock:     newFixedClock(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, topics, cards
}

func TestCreateTopic(t *testing.T) {
	t.Parallel()

	svc, _, cards := newTopicFixture()
	ctx := context.Background()

	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "  Less scrolling  "})
	require.NoError(t, err)
	assert.NotEmpty(t, topic.ID)
	assert.Equal(t, "Less scrolling", topic.Name)
	assert.Equal(t, model.TopicStateActive, topic.State)
	assert.Zero(t, topic.Progress)
	assert.Nil(t, topic.LastResponseDate)
	assert.Equal(t, 1, topic.Version)

	seeded, err := cards.ListByTopic(ctx, model.CardFilter{TopicID: topic.ID})
	require.NoError(t, err)
	assert.Len(t, seeded, 3)
	for _, c := range seeded {
		assert.Equal(t, model.CategoryHabitAddiction, c.Category)
		assert.True(t, c.Active)
		assert.Zero(t, c.Effectiveness.ResponseRate)
	}
}

func TestCreateTopic_Validation(t *testing.T) {
	t.Parallel()

	svc, topics, _ := newTopicFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.CreateTopicRequest
		want error
	}{
		{"unknown category", &model.CreateTopicRequest{Category: "cooking", Name: "x"}, ErrInvalidCategory},
		{"blank name", &model.CreateTopicRequest{Category: model.CategoryGrowthChange, Name: "   "}, ErrTopicNameRequired},
		{"long name", &model.CreateTopicRequest{Category: model.CategoryGrowthChange, Name: strings.Repeat("a", model.MaxTopicNameLength+1)}, ErrTopicNameTooLong},
	}
	for _, tt := range tests {
		_, err := svc.CreateTopic(ctx, "user:1", tt.req)
		assert.True(t, errors.Is(err, tt.want), tt.name)
		assert.True(t, errors.Is(err, ErrValidation), tt.name)
	}

	listed, err := topics.ListByUser(ctx, "user:1", nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateTopic_CategoryWithoutCatalog(t *testing.T) {
	t.Parallel()

	svc, _, cards := newTopicFixture()
	ctx := context.Background()

	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryGrowthChange, Name: "Start small"})
	require.NoError(t, err)
	seeded, _ := cards.ListByTopic(ctx, model.CardFilter{TopicID: topic.ID})
	assert.Empty(t, seeded)
}

func TestGetTopic_Ownership(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTopicFixture()
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "Mine"})
	require.NoError(t, err)

	got, err := svc.GetTopic(ctx, "user:1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, topic.ID, got.ID)

	_, err = svc.GetTopic(ctx, "user:2", topic.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.GetTopic(ctx, "user:1", "topic:missing")
	assert.True(t, errors.Is(err, ErrTopicNotFound))
}

func TestListActiveTopics(t *testing.T) {
	t.Parallel()

	svc, topics, _ := newTopicFixture()
	ctx := context.Background()

	empty, err := svc.ListActiveTopics(ctx, "user:1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "B"})
	require.NoError(t, err)
	_, err = svc.CreateTopic(ctx, "user:2", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "C"})
	require.NoError(t, err)

	// complete b
	_, err = topics.UpdateProgress(ctx, b.ID, b.Version, model.TopicProgressUpdate{State: model.TopicStateCompleted, Progress: model.MaxProgress})
	require.NoError(t, err)

	active, err := svc.ListActiveTopics(ctx, "user:1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestCompleteTopic(t *testing.T) {
	t.Parallel()

	svc, topics, _ := newTopicFixture()
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "Done early"})
	require.NoError(t, err)

	done, err := svc.CompleteTopic(ctx, "user:1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TopicStateCompleted, done.State)
	assert.Zero(t, done.Progress, "manual completion leaves progress alone")
	assert.Equal(t, topic.Version+1, done.Version)

	again, err := svc.CompleteTopic(ctx, "user:1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, done.Version, again.Version)
	assert.Equal(t, 1, topics.updateCalls)

	active, err := svc.ListActiveTopics(ctx, "user:1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCompleteTopic_Rejects(t *testing.T) {
	t.Parallel()

	svc, topics, _ := newTopicFixture()
	ctx := context.Background()
	require.NoError(t, topics.Create(ctx, &model.Topic{UserID: "user:1", State: model.TopicStateLocked, Version: 1}))
	locked := "topic:t1"

	_, err := svc.CompleteTopic(ctx, "user:1", locked)
	assert.True(t, errors.Is(err, ErrTopicLocked))

	_, err = svc.CompleteTopic(ctx, "user:2", locked)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.CompleteTopic(ctx, "user:1", "topic:missing")
	assert.True(t, errors.Is(err, ErrTopicNotFound))
	assert.Zero(t, topics.updateCalls)
}

func TestCompleteTopic_Contention(t *testing.T) {
	t.Parallel()

	svc, topics, _ := newTopicFixture()
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "Busy"})
	require.NoError(t, err)

	topics.beforeUpdate = topics.bump
	_, err = svc.CompleteTopic(ctx, "user:1", topic.ID)
	assert.True(t, errors.Is(err, ErrProgressContention))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, maxCompleteAttempts, topics.updateCalls)
}

func TestSetCardActive(t *testing.T) {
	t.Parallel()

	svc, _, cards := newTopicFixture()
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, "user:1", &model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "Cards"})
	require.NoError(t, err)
	seeded, err := cards.ListByTopic(ctx, model.CardFilter{TopicID: topic.ID})
	require.NoError(t, err)
	require.NotEmpty(t, seeded)
	cardID := seeded[0].ID

	retired, err := svc.SetCardActive(ctx, cardID, false)
	require.NoError(t, err)
	assert.False(t, retired.Active)

	remaining, err := cards.ListByTopic(ctx, model.CardFilter{TopicID: topic.ID})
	require.NoError(t, err)
	assert.Len(t, remaining, len(seeded)-1)

	restored, err := svc.SetCardActive(ctx, cardID, true)
	require.NoError(t, err)
	assert.True(t, restored.Active)

	_, err = svc.SetCardActive(ctx, "card:missing", false)
	assert.True(t, errors.Is(err, ErrCardNotFound))
}
