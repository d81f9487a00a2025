package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

func TestListTopics_Empty(t *testing.T) {
	t.Parallel()

	rr := newTestServices().serve(http.MethodGet, "/v1/topics", nil)
	expectStatus(t, rr, http.StatusOK)

	var topics []*model.Topic
	decodeData(t, rr, &topics)
	if topics == nil || len(topics) != 0 {
		t.Errorf("expected empty list, got %v", topics)
	}
}

func TestCreateTopic_Success(t *testing.T) {
	t.Parallel()

	svcs := newTestServices()
	svcs.topics.createTopicFunc = func(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error) {
		return &model.Topic{ID: "topic:1", UserID: userID, Category: req.Category, Name: req.Name, State: model.TopicStateActive, Version: 1}, nil
	}

	rr := svcs.serve(http.MethodPost, "/v1/topics", model.CreateTopicRequest{Category: model.CategoryHabitAddiction, Name: "Less scrolling"})
	expectStatus(t, rr, http.StatusCreated)

	var topic model.Topic
	decodeData(t, rr, &topic)
	if topic.UserID != "user:1" {
		t.Errorf("expected owner user:1, got %s", topic.UserID)
	}
	if topic.State != model.TopicStateActive {
		t.Errorf("expected active state, got %s", topic.State)
	}
}

func TestCreateTopic_Validation(t *testing.T) {
	t.Parallel()

	svcs := newTestServices()
	svcs.topics.createTopicFunc = func(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error) {
		return nil, service.ErrTopicNameRequired
	}

	rr := svcs.serve(http.MethodPost, "/v1/topics", model.CreateTopicRequest{Category: model.CategoryHabitAddiction})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	problem := decodeProblem(t, rr)
	if len(problem.Errors) == 0 || problem.Errors[0].Field != "name" {
		t.Errorf("expected name field error, got %+v", problem.Errors)
	}
}

func TestGetTopic_OtherUser(t *testing.T) {
	t.Parallel()

	svcs := newTestServices()
	svcs.topics.getTopicFunc = func(ctx context.Context, userID, topicID string) (*model.Topic, error) {
		if userID != "user:owner" {
			return nil, service.ErrNotTopicOwner
		}
		return &model.Topic{ID: topicID, UserID: userID}, nil
	}

	rr := svcs.serveAs("user:owner", http.MethodGet, "/v1/topics/topic:1", nil)
	expectStatus(t, rr, http.StatusOK)

	rr = svcs.serveAs("user:stranger", http.MethodGet, "/v1/topics/topic:1", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestListCards_PassesFilters(t *testing.T) {
	t.Parallel()

	var got model.CardFilter
	svcs := newTestServices()
	svcs.cards.selectCardsFunc = func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
		got = filter
		return []*model.Card{
			{ID: "card:a", Phase: model.PhaseObservation, Difficulty: 2, Effectiveness: model.Effectiveness{ResponseRate: 0.9}},
			{ID: "card:b", Phase: model.PhaseObservation, Difficulty: 2, Effectiveness: model.Effectiveness{ResponseRate: 0.5}},
		}, nil
	}

	rr := svcs.serve(http.MethodGet, "/v1/topics/topic:1/cards?phase=observation&difficulty=2&archetype=silent_observer", nil)
	expectStatus(t, rr, http.StatusOK)

	if got.TopicID != "topic:1" {
		t.Errorf("expected topic:1, got %s", got.TopicID)
	}
	if got.Phase == nil || *got.Phase != model.PhaseObservation {
		t.Errorf("expected observation phase filter, got %v", got.Phase)
	}
	if got.Difficulty == nil || *got.Difficulty != 2 {
		t.Errorf("expected difficulty 2, got %v", got.Difficulty)
	}
	if got.Archetype == nil || *got.Archetype != "silent_observer" {
		t.Errorf("expected archetype filter, got %v", got.Archetype)
	}

	var cards []*model.Card
	decodeData(t, rr, &cards)
	if len(cards) != 2 || cards[0].ID != "card:a" {
		t.Errorf("expected ranked order to be kept, got %v", cards)
	}
}

func TestListCards_BadDifficulty(t *testing.T) {
	t.Parallel()

	rr := newTestServices().serve(http.MethodGet, "/v1/topics/topic:1/cards?difficulty=hard", nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestListCards_OutOfRangeDifficulty(t *testing.T) {
	t.Parallel()

	svcs := newTestServices()
	svcs.cards.selectCardsFunc = func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
		return nil, service.ErrInvalidDifficulty
	}

	rr := svcs.serve(http.MethodGet, "/v1/topics/topic:1/cards?difficulty=5", nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestListCards_ForeignTopicSkipsSelection(t *testing.T) {
	t.Parallel()

	called := false
	svcs := newTestServices()
	svcs.topics.getTopicFunc = func(ctx context.Context, userID, topicID string) (*model.Topic, error) {
		return nil, service.ErrNotTopicOwner
	}
	svcs.cards.selectCardsFunc = func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
		called = true
		return nil, nil
	}

	rr := svcs.serve(http.MethodGet, "/v1/topics/topic:1/cards", nil)
	expectStatus(t, rr, http.StatusNotFound)
	if called {
		t.Error("expected card selection to be skipped for a foreign topic")
	}
}

func TestCompleteTopic_Success(t *testing.T) {
	t.Parallel()

	svcs := newTestServices()
	var gotUser, gotTopic string
	svcs.topics.completeTopicFunc = func(ctx context.Context, userID, topicID string) (*model.Topic, error) {
		gotUser, gotTopic = userID, topicID
		return &model.Topic{ID: topicID, UserID: userID, State: model.TopicStateCompleted, Progress: 2}, nil
	}

	rr := svcs.serve(http.MethodPatch, "/v1/topics/topic:1/complete", nil)
	expectStatus(t, rr, http.StatusOK)

	var topic model.Topic
	decodeData(t, rr, &topic)
	if topic.State != model.TopicStateCompleted {
		t.Errorf("expected completed state, got %s", topic.State)
	}
	if gotUser != "user:1" || gotTopic != "topic:1" {
		t.Errorf("unexpected call (%s, %s)", gotUser, gotTopic)
	}
}

func TestCompleteTopic_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"locked", service.ErrTopicLocked, http.StatusConflict},
		{"not owner", service.ErrNotTopicOwner, http.StatusNotFound},
		{"contention", service.ErrProgressContention, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcs := newTestServices()
			svcs.topics.completeTopicFunc = func(ctx context.Context, userID, topicID string) (*model.Topic, error) {
				return nil, tt.err
			}
			rr := svcs.serve(http.MethodPatch, "/v1/topics/topic:1/complete", nil)
			expectStatus(t, rr, tt.status)
		})
	}
}
