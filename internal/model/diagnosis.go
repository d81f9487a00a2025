package model

import "time"

// DiagnosisProfile is the archetype tag assigned to a user at onboarding
type DiagnosisProfile struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Category    Category      `json:"category"`
	Result      ArchetypePair `json:"userType"`
	Answers     []bool        `json:"answers"`
	DiagnosedAt time.Time     `json:"diagnosedAt"`
}

// DiagnosisRequest submits a full answer sequence for a category
type DiagnosisRequest struct {
	Category Category `json:"category"`
	Answers  []bool   `json:"answers"`
}

// QuestionSetInfo describes the active question set for a category
type QuestionSetInfo struct {
	Category      Category `json:"category"`
	QuestionSet   string   `json:"questionSet"`
	QuestionCount int      `json:"questionCount"`
}
