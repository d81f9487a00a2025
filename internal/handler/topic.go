package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pausemo/api/internal/middleware"
	"github.com/pausemo/api/internal/model"
)

// TopicService is the subset of the topic service used over HTTP
type TopicService interface {
	CreateTopic(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error)
	GetTopic(ctx context.Context, userID, topicID string) (*model.Topic, error)
	ListActiveTopics(ctx context.Context, userID string) ([]*model.Topic, error)
	CompleteTopic(ctx context.Context, userID, topicID string) (*model.Topic, error)
}

// CardSelector ranks a topic's cards
type CardSelector interface {
	SelectCards(ctx context.Context, filter model.CardFilter) ([]*model.Card, error)
}

// TopicHandler handles topic and card listing endpoints
type TopicHandler struct {
	topicService TopicService
	cardSelector CardSelector
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(topicService TopicService, cardSelector CardSelector) *TopicHandler {
	return &TopicHandler{
		topicService: topicService,
		cardSelector: cardSelector,
	}
}

// List handles GET /v1/topics - list the caller's active topics
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	topics, err := h.topicService.ListActiveTopics(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list topics"))
		return
	}

	WriteCollection(w, http.StatusOK, topics, nil, map[string]string{
		"self": "/v1/topics",
	})
}

// Create handles POST /v1/topics - start a new topic
func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.CreateTopicRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	topic, err := h.topicService.CreateTopic(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create topic"))
		return
	}

	WriteData(w, http.StatusCreated, topic, topicLinks(topic.ID))
}

// Complete handles PATCH /v1/topics/{topicId}/complete - close a topic
// before it reaches full progress
func (h *TopicHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID := r.PathValue("topicId")

	topic, err := h.topicService.CompleteTopic(r.Context(), userID, topicID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "complete topic"))
		return
	}

	WriteData(w, http.StatusOK, topic, topicLinks(topic.ID))
}

// Get handles GET /v1/topics/{topicId}
func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID := r.PathValue("topicId")

	topic, err := h.topicService.GetTopic(r.Context(), userID, topicID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, topic, topicLinks(topicID))
}

// ListCards handles GET /v1/topics/{topicId}/cards?phase=&difficulty=&archetype=
// - list the topic's active cards, best first
func (h *TopicHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID := r.PathValue("topicId")

	filter, problem := parseCardFilter(r)
	if problem != nil {
		WriteError(w, problem)
		return
	}
	filter.TopicID = topicID

	if _, err := h.topicService.GetTopic(r.Context(), userID, topicID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	cards, err := h.cardSelector.SelectCards(r.Context(), filter)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list cards"))
		return
	}

	WriteCollection(w, http.StatusOK, cards, nil, map[string]string{
		"self":  "/v1/topics/" + topicID + "/cards",
		"topic": "/v1/topics/" + topicID,
	})
}

func parseCardFilter(r *http.Request) (model.CardFilter, *model.ProblemDetails) {
	var filter model.CardFilter
	q := r.URL.Query()

	if v := q.Get("phase"); v != "" {
		phase := model.Phase(v)
		filter.Phase = &phase
	}
	if v := q.Get("difficulty"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return filter, model.NewValidationError([]model.FieldError{{Field: "difficulty", Message: "must be an integer"}})
		}
		filter.Difficulty = &d
	}
	if v := q.Get("archetype"); v != "" {
		a := model.Archetype(v)
		filter.Archetype = &a
	}
	return filter, nil
}

func topicLinks(topicID string) map[string]string {
	return map[string]string{
		"self":     "/v1/topics/" + topicID,
		"cards":    "/v1/topics/" + topicID + "/cards",
		"progress": "/v1/topics/" + topicID + "/progress",
		"complete": "/v1/topics/" + topicID + "/complete",
	}
}
