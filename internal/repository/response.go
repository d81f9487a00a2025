package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
)

// ResponseRepository handles the append-only response log
type ResponseRepository struct {
	db database.Database
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db database.Database) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Create appends a response
func (r *ResponseRepository) Create(ctx context.Context, response *model.Response) error {
	query := `
		CREATE response CONTENT {
			userId: $userId,
			cardId: type::record($cardId),
			topicId: type::record($topicId),
			answer: $answer,
			responseTimeSeconds: $responseTimeSeconds,
			completed: $completed,
			timestamp: $timestamp,
			context: $context
		}
	`
	vars := map[string]interface{}{
		"userId":              response.UserID,
		"cardId":              response.CardID,
		"topicId":             response.TopicID,
		"answer":              string(response.Answer),
		"responseTimeSeconds": response.ResponseTimeSeconds,
		"completed":           response.Completed,
		"timestamp":           response.Timestamp,
		"context":             contextFields(response.Context),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created response: %w", err)
	}

	response.ID = created.ID
	return nil
}

// CountByCard returns the total and completed response counts for a card
func (r *ResponseRepository) CountByCard(ctx context.Context, cardID string) (int, int, error) {
	query := `
		SELECT count() AS total, count(completed = true) AS completed
		FROM response
		WHERE cardId = type::record($cardId)
		GROUP ALL
	`
	vars := map[string]interface{}{"cardId": cardID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	row, _ := result.(map[string]interface{})
	return extractCount(row, "total"), extractCount(row, "completed"), nil
}

// ListByTopic returns a topic's responses, newest first
func (r *ResponseRepository) ListByTopic(ctx context.Context, topicID string, limit int) ([]*model.Response, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT * FROM response
		WHERE topicId = type::record($topicId)
		ORDER BY timestamp DESC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"topicId": topicID,
		"limit":   limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	rows := extractRows(result)
	responses := make([]*model.Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, parseResponse(row))
	}
	return responses, nil
}

// contextFields drops empty context values so the stored object stays sparse
func contextFields(c model.ResponseContext) map[string]interface{} {
	fields := map[string]interface{}{}
	if c.TimeOfDay != "" {
		fields["timeOfDay"] = c.TimeOfDay
	}
	if c.Location != "" {
		fields["location"] = c.Location
	}
	if c.Mood != "" {
		fields["mood"] = c.Mood
	}
	return fields
}

func parseResponse(data map[string]interface{}) *model.Response {
	resp := &model.Response{
		ID:                  convertSurrealID(data["id"]),
		UserID:              getString(data, "userId"),
		CardID:              convertSurrealID(data["cardId"]),
		TopicID:             convertSurrealID(data["topicId"]),
		Answer:              model.Answer(getString(data, "answer")),
		ResponseTimeSeconds: getFloat(data, "responseTimeSeconds"),
		Completed:           getBool(data, "completed"),
		Timestamp:           getTimeValue(data, "timestamp"),
	}
	if ctxData, ok := data["context"].(map[string]interface{}); ok {
		resp.Context = model.ResponseContext{
			TimeOfDay: getString(ctxData, "timeOfDay"),
			Location:  getString(ctxData, "location"),
			Mood:      getString(ctxData, "mood"),
		}
	}
	return resp
}
