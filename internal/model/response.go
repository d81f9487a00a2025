package model

import "time"

// Answer is a Y/N reply to a card
type Answer string

const (
	AnswerYes Answer = "Y"
	AnswerNo  Answer = "N"
)

// IsValid reports whether a is Y or N
func (a Answer) IsValid() bool {
	return a == AnswerYes || a == AnswerNo
}

// Response is one recorded answer to a card. Rows are append-only.
type Response struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	CardID              string          `json:"cardId"`
	TopicID             string          `json:"topicId"`
	Answer              Answer          `json:"answer"`
	ResponseTimeSeconds float64         `json:"responseTimeSeconds"`
	Completed           bool            `json:"completed"`
	Timestamp           time.Time       `json:"timestamp"`
	Context             ResponseContext `json:"context"`
}

// ResponseContext is optional free-form context captured with an answer
type ResponseContext struct {
	TimeOfDay string `json:"timeOfDay,omitempty"`
	Location  string `json:"location,omitempty"`
	Mood      string `json:"mood,omitempty"`
}
