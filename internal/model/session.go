package model

import "time"

// SessionPhase is the state of an intervention session
type SessionPhase string

const (
	SessionPhaseObservation   SessionPhase = "observation"
	SessionPhaseGap           SessionPhase = "gap"
	SessionPhaseReinforcement SessionPhase = "reinforcement"
	SessionPhaseComplete      SessionPhase = "complete"
)

// DefaultGapMinimum is the enforced pause between observation and reinforcement
const DefaultGapMinimum = 3 * time.Second

// SessionState is a snapshot of one in-flight session
type SessionState struct {
	SessionID           string         `json:"sessionId"`
	UserID              string         `json:"userId"`
	TopicID             string         `json:"topicId"`
	Phase               SessionPhase   `json:"phase"`
	SessionStart        time.Time      `json:"sessionStart"`
	ObservationCardID   string         `json:"observationCardId"`
	GapCardID           string         `json:"gapCardId"`
	ReinforcementCardID string         `json:"reinforcementCardId"`
	ObservationAnswer   *Answer        `json:"observationAnswer,omitempty"`
	GapElapsed          bool           `json:"gapElapsed"`
	ReinforcementAnswer *Answer        `json:"reinforcementAnswer,omitempty"`
	Result              *SessionResult `json:"result,omitempty"`
}

// SessionResult is exposed once a session reaches the complete phase
type SessionResult struct {
	SessionID                string  `json:"sessionId"`
	TopicID                  string  `json:"topicId"`
	ObservationAnswer        Answer  `json:"observationAnswer"`
	GapCompleted             bool    `json:"gapCompleted"`
	ReinforcementAnswer      *Answer `json:"reinforcementAnswer,omitempty"`
	TotalResponseTimeSeconds float64 `json:"totalResponseTimeSeconds"`
	Completed                bool    `json:"completed"`
}

// StartSessionRequest starts a session on a topic. ObservationCardID and
// Difficulty are optional.
type StartSessionRequest struct {
	TopicID           string `json:"topicId"`
	ObservationCardID string `json:"observationCardId,omitempty"`
	Difficulty        *int   `json:"difficulty,omitempty"`
}

// AnswerRequest is a Y/N submission for the observation or reinforcement phase
type AnswerRequest struct {
	Answer              Answer          `json:"answer"`
	ResponseTimeSeconds float64         `json:"responseTimeSeconds"`
	Context             ResponseContext `json:"context,omitempty"`
}

// PhaseTransition is returned by phase operations
type PhaseTransition struct {
	SessionID string         `json:"sessionId"`
	Phase     SessionPhase   `json:"phase"`
	Result    *SessionResult `json:"result,omitempty"`
}
