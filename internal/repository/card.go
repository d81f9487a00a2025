package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
)

// CardRepository handles card data access
type CardRepository struct {
	db database.Database
}

// NewCardRepository creates a new card repository
func NewCardRepository(db database.Database) *CardRepository {
	return &CardRepository{db: db}
}

// cardCreateQuery builds the CREATE statement for one card. The optional
// secondary target is left out entirely when unset so it stays NONE.
func cardCreateQuery(card *model.Card) (string, map[string]interface{}) {
	vars := map[string]interface{}{
		"topicId":        card.TopicID,
		"phase":          string(card.Phase),
		"difficulty":     card.Difficulty,
		"text":           card.Text,
		"category":       string(card.Category),
		"primary":        string(card.TargetArchetype.Primary),
		"active":         card.Active,
		"responseRate":   card.Effectiveness.ResponseRate,
		"completionRate": card.Effectiveness.CompletionRate,
	}

	target := "{ primary: $primary }"
	if card.TargetArchetype.Secondary != nil {
		target = "{ primary: $primary, secondary: $secondary }"
		vars["secondary"] = string(*card.TargetArchetype.Secondary)
	}

	query := `
		CREATE card CONTENT {
			topicId: type::record($topicId),
			phase: $phase,
			difficulty: $difficulty,
			text: $text,
			category: $category,
			targetArchetype: ` + target + `,
			active: $active,
			effectiveness: {
				responseRate: $responseRate,
				completionRate: $completionRate,
				lastUpdated: time::now()
			},
			createdOn: time::now()
		}
	`
	return query, vars
}

// Create creates a single card
func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	query, vars := cardCreateQuery(card)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return fmt.Errorf("failed to extract created card: %w", err)
	}

	card.ID = created.ID
	card.CreatedOn = created.CreatedOn
	return nil
}

// CreateBatch creates all cards in one transaction and fills in their ids
func (r *CardRepository) CreateBatch(ctx context.Context, cards []*model.Card) error {
	if len(cards) == 0 {
		return nil
	}

	batch := database.NewAtomicBatch()
	for _, card := range cards {
		query, vars := cardCreateQuery(card)
		batch.Add(query, vars)
	}

	result, err := batch.Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("failed to create cards: %w", err)
	}

	var ids []string
	for _, stmt := range result {
		for _, row := range extractRows([]interface{}{stmt}) {
			id := convertSurrealID(row["id"])
			if strings.HasPrefix(id, "card:") {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) != len(cards) {
		return fmt.Errorf("failed to create cards: expected %d ids, got %d", len(cards), len(ids))
	}
	for i, card := range cards {
		card.ID = ids[i]
	}
	return nil
}

// GetByID retrieves a card by ID
func (r *CardRepository) GetByID(ctx context.Context, id string) (*model.Card, error) {
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
	return parseCard(data), nil
}

// ListByTopic returns the active cards of a topic matching the filter
func (r *CardRepository) ListByTopic(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
	conditions := []string{"topicId = type::record($topicId)", "active = true"}
	vars := map[string]interface{}{"topicId": filter.TopicID}

	if filter.Phase != nil {
		conditions = append(conditions, "phase = $phase")
		vars["phase"] = string(*filter.Phase)
	}
	if filter.Difficulty != nil {
		conditions = append(conditions, "difficulty = $difficulty")
		vars["difficulty"] = *filter.Difficulty
	}
	if filter.Archetype != nil {
		conditions = append(conditions, "(targetArchetype.primary = $archetype OR targetArchetype.secondary = $archetype)")
		vars["archetype"] = string(*filter.Archetype)
	}

	query := "SELECT * FROM card WHERE " + strings.Join(conditions, " AND ")

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	rows := extractRows(result)
	cards := make([]*model.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, parseCard(row))
	}
	return cards, nil
}

// UpdateEffectiveness overwrites a card's rolling metrics
func (r *CardRepository) UpdateEffectiveness(ctx context.Context, id string, eff model.Effectiveness) error {
	query := `
		UPDATE type::record($id) SET
			effectiveness.responseRate = $responseRate,
			effectiveness.completionRate = $completionRate,
			effectiveness.lastUpdated = $lastUpdated
	`
	vars := map[string]interface{}{
		"id":             id,
		"responseRate":   eff.ResponseRate,
		"completionRate": eff.CompletionRate,
		"lastUpdated":    eff.LastUpdated,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update card effectiveness: %w", err)
	}
	return nil
}

// SetActive retires or restores a card
func (r *CardRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE type::record($id) SET active = $active`
	vars := map[string]interface{}{
		"id":     id,
		"active": active,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to set card active: %w", err)
	}
	return nil
}

// ListIDs returns the ids of every active card, for batch recomputation
func (r *CardRepository) ListIDs(ctx context.Context) ([]string, error) {
	result, err := r.db.Query(ctx, `SELECT id FROM card WHERE active = true`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list card ids: %w", err)
	}

	rows := extractRows(result)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := convertSurrealID(row["id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseCard(data map[string]interface{}) *model.Card {
	target := getMap(data, "targetArchetype")
	eff := getMap(data, "effectiveness")
	card := &model.Card{
		ID:         convertSurrealID(data["id"]),
		TopicID:    convertSurrealID(data["topicId"]),
		Phase:      model.Phase(getString(data, "phase")),
		Difficulty: getInt(data, "difficulty"),
		Text:       getString(data, "text"),
		Category:   model.Category(getString(data, "category")),
		TargetArchetype: model.ArchetypePair{
			Primary: model.Archetype(getString(target, "primary")),
		},
		Active: getBool(data, "active"),
		Effectiveness: model.Effectiveness{
			ResponseRate:   getFloat(eff, "responseRate"),
			CompletionRate: getFloat(eff, "completionRate"),
			LastUpdated:    getTimeValue(eff, "lastUpdated"),
		},
		CreatedOn: getTimeValue(data, "createdOn"),
	}
	if s := getString(target, "secondary"); s != "" {
		secondary := model.Archetype(s)
		card.TargetArchetype.Secondary = &secondary
	}
	return card
}
