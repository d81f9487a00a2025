package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

// TopicRepository handles topic data access
type TopicRepository struct {
	db database.Database
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db database.Database) *TopicRepository {
	return &TopicRepository{db: db}
}

// Create creates a new topic
func (r *TopicRepository) Create(ctx context.Context, topic *model.Topic) error {
	vars := map[string]interface{}{
		"userId":          topic.UserID,
		"category":        string(topic.Category),
		"name":            topic.Name,
		"state":           string(topic.State),
		"progress":        topic.Progress,
		"daysActive":      topic.DaysActive,
		"todayResponded":  topic.TodayResponded,
		"startDate":       topic.StartDate,
		"consecutiveDays": topic.ConsecutiveDays,
		"totalResponses":  topic.TotalResponses,
		"version":         topic.Version,
	}

	optionalFields := ""
	if topic.LastResponseDate != nil {
		optionalFields += ",\n\t\t\tlastResponseDate: $lastResponseDate"
		vars["lastResponseDate"] = *topic.LastResponseDate
	}

	query := `
		CREATE topic CONTENT {
			userId: $userId,
			category: $category,
			name: $name,
			state: $state,
			progress: $progress,
			daysActive: $daysActive,
			todayResponded: $todayResponded,
			startDate: $startDate,
			consecutiveDays: $consecutiveDays,
			totalResponses: $totalResponses,
			version: $version,
			createdOn: time::now()` + optionalFields + `
		}
	`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created topic: %w", err)
	}

	topic.ID = created.ID
	return nil
}

// GetByID retrieves a topic by ID
func (r *TopicRepository) GetByID(ctx context.Context, id string) (*model.Topic, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return parseTopic(data), nil
}

// ListByUser returns a user's topics, optionally narrowed to one state
func (r *TopicRepository) ListByUser(ctx context.Context, userID string, state *model.TopicState) ([]*model.Topic, error) {
	query := `SELECT * FROM topic WHERE userId = $userId`
	vars := map[string]interface{}{"userId": userID}
	if state != nil {
		query += ` AND state = $state`
		vars["state"] = string(*state)
	}
	query += ` ORDER BY createdOn ASC`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	rows := extractRows(result)
	topics := make([]*model.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, parseTopic(row))
	}
	return topics, nil
}

// UpdateProgress writes every progress field in one compare-and-swap on the
// version column
func (r *TopicRepository) UpdateProgress(ctx context.Context, id string, expectedVersion int, update model.TopicProgressUpdate) (*model.Topic, error) {
	query := `
		UPDATE type::record($id) SET
			state = $state,
			progress = $progress,
			daysActive = $daysActive,
			todayResponded = $todayResponded,
			lastResponseDate = $lastResponseDate,
			consecutiveDays = $consecutiveDays,
			totalResponses = $totalResponses,
			lastSessionId = $lastSessionId,
			version = version + 1
		WHERE version = $version
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":               id,
		"version":          expectedVersion,
		"state":            string(update.State),
		"progress":         update.Progress,
		"daysActive":       update.DaysActive,
		"todayResponded":   update.TodayResponded,
		"lastResponseDate": update.LastResponseDate,
		"consecutiveDays":  update.ConsecutiveDays,
		"totalResponses":   update.TotalResponses,
		"lastSessionId":    update.LastSessionID,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, service.ErrVersionMismatch
		}
		return nil, fmt.Errorf("failed to update topic progress: %w", err)
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, service.ErrVersionMismatch
	}
	return parseTopic(data), nil
}

// SetState changes a topic's lifecycle state in one compare-and-swap on the
// version column
func (r *TopicRepository) SetState(ctx context.Context, id string, expectedVersion int, state model.TopicState) (*model.Topic, error) {
	query := `
		UPDATE type::record($id) SET
			state = $state,
			version = version + 1
		WHERE version = $version
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":      id,
		"version": expectedVersion,
		"state":   string(state),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, service.ErrVersionMismatch
		}
		return nil, fmt.Errorf("failed to set topic state: %w", err)
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, service.ErrVersionMismatch
	}
	return parseTopic(data), nil
}

// ResetStreaks runs the daily streak maintenance in one transaction
func (r *TopicRepository) ResetStreaks(ctx context.Context, staleBefore, today time.Time) (int, error) {
	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE topic SET consecutiveDays = 0, version = version + 1
		WHERE lastResponseDate != NONE
			AND lastResponseDate < $staleBefore
			AND consecutiveDays != 0
		RETURN id
	`, map[string]interface{}{"staleBefore": staleBefore})
	batch.Add(`
		UPDATE topic SET todayResponded = false, version = version + 1
		WHERE todayResponded = true
			AND (lastResponseDate = NONE OR lastResponseDate < $today)
		RETURN id
	`, map[string]interface{}{"today": today})

	result, err := batch.Execute(ctx, r.db)
	if err != nil {
		return 0, fmt.Errorf("failed to reset streaks: %w", err)
	}

	touched := make(map[string]struct{})
	for _, stmt := range result {
		for _, row := range extractRows([]interface{}{stmt}) {
			touched[convertSurrealID(row["id"])] = struct{}{}
		}
	}
	return len(touched), nil
}

func parseTopic(data map[string]interface{}) *model.Topic {
	return &model.Topic{
		ID:               convertSurrealID(data["id"]),
		UserID:           getString(data, "userId"),
		Category:         model.Category(getString(data, "category")),
		Name:             getString(data, "name"),
		State:            model.TopicState(getString(data, "state")),
		Progress:         getInt(data, "progress"),
		DaysActive:       getInt(data, "daysActive"),
		TodayResponded:   getBool(data, "todayResponded"),
		StartDate:        getTimeValue(data, "startDate"),
		LastResponseDate: getTime(data, "lastResponseDate"),
		ConsecutiveDays:  getInt(data, "consecutiveDays"),
		TotalResponses:   getInt(data, "totalResponses"),
		Version:          getInt(data, "version"),
		LastSessionID:    getString(data, "lastSessionId"),
	}
}
