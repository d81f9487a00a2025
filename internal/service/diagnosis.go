package service

import (
	"context"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// DiagnosisRepository defines the interface for diagnosis profile storage
type DiagnosisRepository interface {
	// Upsert stores the profile, replacing any earlier one for the same
	// user and category
	Upsert(ctx context.Context, profile *model.DiagnosisProfile) error
	GetByUser(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error)
}

// DiagnosisService runs onboarding classification and keeps the result
type DiagnosisService struct {
	classifier    *Classifier
	diagnosisRepo DiagnosisRepository
	clock         Clock
	log           *logger.Logger
}

// DiagnosisServiceConfig holds configuration for the diagnosis service
type DiagnosisServiceConfig struct {
	Classifier    *Classifier
	DiagnosisRepo DiagnosisRepository
	Clock         Clock
	Logger        *logger.Logger
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(cfg DiagnosisServiceConfig) *DiagnosisService {
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &DiagnosisService{
		classifier:    cfg.Classifier,
		diagnosisRepo: cfg.DiagnosisRepo,
		clock:         cfg.Clock,
		log:           cfg.Logger,
	}
}

// QuestionSet reports the active question set for a category
func (s *DiagnosisService) QuestionSet(category model.Category) (*model.QuestionSetInfo, error) {
	return s.classifier.QuestionSet(category)
}

// QuestionCount returns how many answers a category's questionnaire expects
func (s *DiagnosisService) QuestionCount(category model.Category) (int, error) {
	info, err := s.classifier.QuestionSet(category)
	if err != nil {
		return 0, err
	}
	return info.QuestionCount, nil
}

// Diagnose classifies the answers and saves the result as the user's profile
// for that category
func (s *DiagnosisService) Diagnose(ctx context.Context, userID string, req *model.DiagnosisRequest) (*model.DiagnosisProfile, error) {
	result, rule, err := s.classifier.Explain(req.Category, req.Answers)
	if err != nil {
		return nil, err
	}

	answers := make([]bool, len(req.Answers))
	copy(answers, req.Answers)

	profile := &model.DiagnosisProfile{
		UserID:      userID,
		Category:    req.Category,
		Result:      result,
		Answers:     answers,
		DiagnosedAt: s.clock.Now().UTC(),
	}
	if err := s.diagnosisRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.log.Info("diagnosis recorded",
		"user_id", userID,
		"category", string(req.Category),
		"primary", string(result.Primary),
		"rule", rule,
	)
	return profile, nil
}

// GetProfile returns the user's stored profile for a category
func (s *DiagnosisService) GetProfile(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error) {
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	profile, err := s.diagnosisRepo.GetByUser(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}
