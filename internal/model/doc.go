// Package model defines domain entities and data structures for the Pausemo engine.
//
// The model package contains the persisted entities (Card, Topic, Response,
// Presentation, DiagnosisProfile), the transient session types, and the
// RFC 9457 error representation used by the HTTP layer.
//
// # Domain Entities
//
//   - Card: a single piece of intervention content for one phase of a session
//   - Topic: a user's behavior-change goal ("quest") with progress and streak
//   - Response: one recorded Y/N answer to a card
//   - Presentation: one showing of a card inside a session
//   - DiagnosisProfile: the archetype assigned to a user at onboarding
//
// # JSON Serialization
//
// Persisted field names follow the existing schema, so JSON tags are camelCase:
//
//	type Topic struct {
//	    ID              string `json:"id"`
//	    ConsecutiveDays int    `json:"consecutiveDays"`
//	}
//
// # Validation Constants
//
//	const (
//	    MinDifficulty = 1
//	    MaxDifficulty = 4
//	    MaxProgress   = 5
//	)
package model
