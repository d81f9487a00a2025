package model

import "time"

// Phase is one step of an intervention session
type Phase string

const (
	PhaseObservation   Phase = "observation"
	PhaseGap           Phase = "gap"
	PhaseReinforcement Phase = "reinforcement"
)

// IsValid reports whether p names one of the three card phases
func (p Phase) IsValid() bool {
	return p == PhaseObservation || p == PhaseGap || p == PhaseReinforcement
}

// Difficulty bounds (D1 ~ D4)
const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

// ValidDifficulty reports whether d is within D1..D4
func ValidDifficulty(d int) bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// Card is a single piece of intervention content. Everything except Active
// and Effectiveness is fixed once the card is created.
type Card struct {
	ID              string        `json:"id"`
	TopicID         string        `json:"topicId"`
	Phase           Phase         `json:"phase"`
	Difficulty      int           `json:"difficulty"`
	Text            string        `json:"text"`
	Category        Category      `json:"category"`
	TargetArchetype ArchetypePair `json:"targetArchetype"`
	Active          bool          `json:"active"`
	Effectiveness   Effectiveness `json:"effectiveness"`
	CreatedOn       time.Time     `json:"createdOn"`
}

// Effectiveness holds the rolling metrics recomputed from a card's history
type Effectiveness struct {
	ResponseRate   float64   `json:"responseRate"`
	CompletionRate float64   `json:"completionRate"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// CardFilter narrows card selection for a topic
type CardFilter struct {
	TopicID    string
	Phase      *Phase
	Difficulty *int
	Archetype  *Archetype
}

// Presentation records one showing of a card inside a session
type Presentation struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	TopicID   string    `json:"topicId"`
	SessionID string    `json:"sessionId"`
	Phase     Phase     `json:"phase"`
	Timestamp time.Time `json:"timestamp"`
}
