package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
)

// PresentationRepository records every card shown in a session
type PresentationRepository struct {
	db database.Database
}

// NewPresentationRepository creates a new presentation repository
func NewPresentationRepository(db database.Database) *PresentationRepository {
	return &PresentationRepository{db: db}
}

// Create records a presentation
func (r *PresentationRepository) Create(ctx context.Context, p *model.Presentation) error {
	query := `
		CREATE presentation CONTENT {
			cardId: type::record($cardId),
			topicId: type::record($topicId),
			sessionId: $sessionId,
			phase: $phase,
			timestamp: $timestamp
		}
	`
	vars := map[string]interface{}{
		"cardId":    p.CardID,
		"topicId":   p.TopicID,
		"sessionId": p.SessionID,
		"phase":     string(p.Phase),
		"timestamp": p.Timestamp,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create presentation: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created presentation: %w", err)
	}

	p.ID = created.ID
	return nil
}

// CountByCard returns how many times a card has been presented
func (r *PresentationRepository) CountByCard(ctx context.Context, cardID string) (int, error) {
	query := `SELECT count() AS count FROM presentation WHERE cardId = type::record($cardId) GROUP ALL`
	vars := map[string]interface{}{"cardId": cardID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count presentations: %w", err)
	}

	row, _ := result.(map[string]interface{})
	return extractCount(row, "count"), nil
}
