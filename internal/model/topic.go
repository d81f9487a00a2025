package model

import "time"

// TopicState is the lifecycle state of a topic
type TopicState string

const (
	TopicStateActive    TopicState = "active"
	TopicStateCompleted TopicState = "completed"
	TopicStateLocked    TopicState = "locked"
)

// MaxProgress is the progress value at which a topic completes
const MaxProgress = 5

// Topic is a user's behavior-change goal within a category ("quest")
type Topic struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Category         Category   `json:"category"`
	Name             string     `json:"name"`
	State            TopicState `json:"state"`
	Progress         int        `json:"progress"`
	DaysActive       int        `json:"daysActive"`
	TodayResponded   bool       `json:"todayResponded"`
	StartDate        time.Time  `json:"startDate"`
	LastResponseDate *time.Time `json:"lastResponseDate,omitempty"`
	ConsecutiveDays  int        `json:"consecutiveDays"`
	TotalResponses   int        `json:"totalResponses"`

	// Version guards compare-and-swap writes of the progress fields
	Version int `json:"version"`
	// LastSessionID is the last session whose result was applied
	LastSessionID string `json:"lastSessionId,omitempty"`
}

// TopicProgressUpdate carries every field QuestProgressor writes in one go
type TopicProgressUpdate struct {
	State            TopicState
	Progress         int
	DaysActive       int
	TodayResponded   bool
	LastResponseDate time.Time
	ConsecutiveDays  int
	TotalResponses   int
	LastSessionID    string
}

// CreateTopicRequest is the input for starting a new topic
type CreateTopicRequest struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
}

// MaxTopicNameLength bounds topic names
const MaxTopicNameLength = 100
