package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/model"
)

// DiagnosisRepository handles diagnosis profile data access
type DiagnosisRepository struct {
	db database.Database
}

// NewDiagnosisRepository creates a new diagnosis repository
func NewDiagnosisRepository(db database.Database) *DiagnosisRepository {
	return &DiagnosisRepository{db: db}
}

// Upsert stores a profile, replacing any earlier one for the same user and
// category
func (r *DiagnosisRepository) Upsert(ctx context.Context, profile *model.DiagnosisProfile) error {
	vars := map[string]interface{}{
		"userId":      profile.UserID,
		"category":    string(profile.Category),
		"primary":     string(profile.Result.Primary),
		"answers":     profile.Answers,
		"diagnosedAt": profile.DiagnosedAt,
	}

	secondary := "NONE"
	if profile.Result.Secondary != nil {
		secondary = "$secondary"
		vars["secondary"] = string(*profile.Result.Secondary)
	}

	batch := database.NewAtomicBatch()
	batch.Add(`DELETE diagnosis_profile WHERE userId = $userId AND category = $category`, vars)
	batch.Add(`
		CREATE diagnosis_profile CONTENT {
			userId: $userId,
			category: $category,
			primary: $primary,
			secondary: `+secondary+`,
			answers: $answers,
			diagnosedAt: $diagnosedAt
		}
	`, vars)

	result, err := batch.Execute(ctx, r.db)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
		}
		return fmt.Errorf("failed to upsert diagnosis profile: %w", err)
	}

	for _, stmt := range result {
		for _, row := range extractRows([]interface{}{stmt}) {
			if id := convertSurrealID(row["id"]); id != "" {
				profile.ID = id
			}
		}
	}
	return nil
}

// GetByUser returns the profile for a user and category
func (r *DiagnosisRepository) GetByUser(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error) {
	query := `SELECT * FROM diagnosis_profile WHERE userId = $userId AND category = $category LIMIT 1`
	vars := map[string]interface{}{
		"userId":   userID,
		"category": string(category),
	}

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
	return parseDiagnosisProfile(data), nil
}

func parseDiagnosisProfile(data map[string]interface{}) *model.DiagnosisProfile {
	profile := &model.DiagnosisProfile{
		ID:       convertSurrealID(data["id"]),
		UserID:   getString(data, "userId"),
		Category: model.Category(getString(data, "category")),
		Result: model.ArchetypePair{
			Primary: model.Archetype(getString(data, "primary")),
		},
		Answers:     getBoolSlice(data, "answers"),
		DiagnosedAt: getTimeValue(data, "diagnosedAt"),
	}
	if s := getString(data, "secondary"); s != "" {
		secondary := model.Archetype(s)
		profile.Result.Secondary = &secondary
	}
	return profile
}
