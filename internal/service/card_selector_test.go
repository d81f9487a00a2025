package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausemo/api/internal/model"
)

func cardIDs(cards []*model.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func TestSelectCards_OrdersByResponseRate(t *testing.T) {
	t.Parallel()

	newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	low := testCard("card:low", "topic:1", model.PhaseObservation, 1, 0.2)
	high := testCard("card:high", "topic:1", model.PhaseObservation, 1, 0.9)
	tieOld := testCard("card:tie-old", "topic:1", model.PhaseObservation, 1, 0.5)
	tieOld.Effectiveness.LastUpdated = older
	tieNewB := testCard("card:tie-b", "topic:1", model.PhaseObservation, 1, 0.5)
	tieNewB.Effectiveness.LastUpdated = newer
	tieNewA := testCard("card:tie-a", "topic:1", model.PhaseObservation, 1, 0.5)
	tieNewA.Effectiveness.LastUpdated = newer

	selector := NewCardSelector(CardSelectorConfig{CardRepo: newMemCardRepo(low, high, tieOld, tieNewB, tieNewA)})

	cards, err := selector.SelectCards(context.Background(), model.CardFilter{TopicID: "topic:1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"card:high", "card:tie-a", "card:tie-b", "card:tie-old", "card:low"}, cardIDs(cards))

	for i := 1; i < len(cards); i++ {
		assert.GreaterOrEqual(t, cards[i-1].Effectiveness.ResponseRate, cards[i].Effectiveness.ResponseRate)
	}
}

func TestSelectCards_Filters(t *testing.T) {
	t.Parallel()

	inactive := testCard("card:inactive", "topic:1", model.PhaseObservation, 1, 1.0)
	inactive.Active = false
	otherTopic := testCard("card:other", "topic:2", model.PhaseObservation, 1, 1.0)
	obsD1 := testCard("card:obs-d1", "topic:1", model.PhaseObservation, 1, 0.3)
	obsD2 := testCard("card:obs-d2", "topic:1", model.PhaseObservation, 2, 0.4)
	gapD1 := testCard("card:gap-d1", "topic:1", model.PhaseGap, 1, 0.5)
	anxious := testCard("card:anxious", "topic:1", model.PhaseReinforcement, 1, 0.1)
	secondary := testCard("card:secondary", "topic:1", model.PhaseReinforcement, 1, 0.2)
	secondary.TargetArchetype = model.ArchetypePair{Primary: model.ArchetypeDisplayExpressive, Secondary: ptr(model.ArchetypeSilentObserver)}

	selector := NewCardSelector(CardSelectorConfig{CardRepo: newMemCardRepo(inactive, otherTopic, obsD1, obsD2, gapD1, anxious, secondary)})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter model.CardFilter
		want   []string
	}{
		{"topic only", model.CardFilter{TopicID: "topic:1"}, []string{"card:gap-d1", "card:obs-d2", "card:obs-d1", "card:secondary", "card:anxious"}},
		{"phase", model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseObservation)}, []string{"card:obs-d2", "card:obs-d1"}},
		{"phase and difficulty", model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseObservation), Difficulty: ptr(1)}, []string{"card:obs-d1"}},
		{"archetype matches secondary", model.CardFilter{TopicID: "topic:1", Archetype: ptr(model.ArchetypeSilentObserver)}, []string{"card:secondary"}},
		{"nothing matches", model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseGap), Difficulty: ptr(4)}, []string{}},
		{"unknown topic", model.CardFilter{TopicID: "topic:9"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cards, err := selector.SelectCards(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cardIDs(cards))
		})
	}
}

func TestSelectCards_DropsStrayRepositoryRows(t *testing.T) {
	t.Parallel()

	stray := testCard("card:stray", "topic:1", model.PhaseGap, 1, 0.9)
	stray.Active = false
	good := testCard("card:good", "topic:1", model.PhaseGap, 1, 0.1)

	repo := &mockCardRepo{
		listByTopicFunc: func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
			return []*model.Card{stray, nil, good}, nil
		},
	}
	selector := NewCardSelector(CardSelectorConfig{CardRepo: repo})

	cards, err := selector.SelectCards(context.Background(), model.CardFilter{TopicID: "topic:1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"card:good"}, cardIDs(cards))
}

func TestSelectCards_Validation(t *testing.T) {
	t.Parallel()

	called := false
	repo := &mockCardRepo{
		listByTopicFunc: func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
			called = true
			return nil, nil
		},
	}
	selector := NewCardSelector(CardSelectorConfig{CardRepo: repo})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter model.CardFilter
		want   error
	}{
		{"difficulty zero", model.CardFilter{TopicID: "topic:1", Difficulty: ptr(0)}, ErrInvalidDifficulty},
		{"difficulty five", model.CardFilter{TopicID: "topic:1", Difficulty: ptr(5)}, ErrInvalidDifficulty},
		{"unknown phase", model.CardFilter{TopicID: "topic:1", Phase: ptr(model.Phase("rest"))}, ErrInvalidPhase},
		{"unknown archetype", model.CardFilter{TopicID: "topic:1", Archetype: ptr(model.Archetype("wizard"))}, ErrInvalidArchetype},
	}

	for _, tt := range tests {
		_, err := selector.SelectCards(ctx, tt.filter)
		assert.True(t, errors.Is(err, tt.want), tt.name)
		assert.True(t, errors.Is(err, ErrValidation), tt.name)
	}
	assert.False(t, called)
}

func TestSelectBest(t *testing.T) {
	t.Parallel()

	gapD1 := testCard("card:gap-d1", "topic:1", model.PhaseGap, 1, 0.2)
	gapD3 := testCard("card:gap-d3", "topic:1", model.PhaseGap, 3, 0.6)
	selector := NewCardSelector(CardSelectorConfig{CardRepo: newMemCardRepo(gapD1, gapD3)})
	ctx := context.Background()

	t.Run("filtered hit", func(t *testing.T) {
		card, err := selector.SelectBest(ctx, model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseGap), Difficulty: ptr(1)})
		require.NoError(t, err)
		assert.Equal(t, "card:gap-d1", card.ID)
	})

	t.Run("falls back without difficulty", func(t *testing.T) {
		card, err := selector.SelectBest(ctx, model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseGap), Difficulty: ptr(4)})
		require.NoError(t, err)
		assert.Equal(t, "card:gap-d3", card.ID)
	})

	t.Run("falls back without archetype", func(t *testing.T) {
		card, err := selector.SelectBest(ctx, model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseGap), Archetype: ptr(model.ArchetypeRebellionDifferentiation)})
		require.NoError(t, err)
		assert.Equal(t, "card:gap-d3", card.ID)
	})

	t.Run("nothing for phase", func(t *testing.T) {
		_, err := selector.SelectBest(ctx, model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseReinforcement), Difficulty: ptr(2)})
		assert.True(t, errors.Is(err, ErrNoCards))
		assert.True(t, errors.Is(err, ErrNoContent))
	})

	t.Run("validation is not masked by fallback", func(t *testing.T) {
		_, err := selector.SelectBest(ctx, model.CardFilter{TopicID: "topic:1", Phase: ptr(model.PhaseGap), Difficulty: ptr(9)})
		assert.True(t, errors.Is(err, ErrInvalidDifficulty))
	})
}
