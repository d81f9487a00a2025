package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// Every specific error wraps one of the taxonomy sentinels below, so callers
// can match either the precise error or its class with errors.Is.

// ===== Taxonomy =====
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrNoContent    = errors.New("no content available")
)

// ===== Diagnosis Errors =====
var (
	ErrInvalidAnswerCount = fmt.Errorf("%w: answer count does not match the question set", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrProfileNotFound    = fmt.Errorf("diagnosis profile %w", ErrNotFound)
)

// ===== Card Errors =====
var (
	ErrCardNotFound       = fmt.Errorf("card %w", ErrNotFound)
	ErrInvalidDifficulty  = fmt.Errorf("%w: difficulty must be between 1 and 4", ErrValidation)
	ErrInvalidPhase       = fmt.Errorf("%w: unknown phase", ErrValidation)
	ErrInvalidArchetype   = fmt.Errorf("%w: unknown archetype", ErrValidation)
	ErrCardNotObservation = fmt.Errorf("%w: card is not an active observation card of this topic", ErrValidation)
	ErrNoCards            = fmt.Errorf("%w: no active cards for this topic and phase", ErrNoContent)
)

// ===== Topic Errors =====
var (
	ErrTopicNotFound       = fmt.Errorf("topic %w", ErrNotFound)
	ErrTopicLocked         = fmt.Errorf("%w: topic is locked", ErrInvalidState)
	ErrTopicNameRequired   = fmt.Errorf("%w: topic name is required", ErrValidation)
	ErrTopicNameTooLong    = fmt.Errorf("%w: topic name exceeds maximum length", ErrValidation)
	ErrNotTopicOwner       = fmt.Errorf("topic %w", ErrNotFound)
	ErrSessionNotCompleted = fmt.Errorf("%w: session result is not completed", ErrInvalidState)
	ErrProgressContention  = fmt.Errorf("%w: topic was modified concurrently", ErrConflict)
)

// ===== Session Errors =====
var (
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrSessionActive       = fmt.Errorf("%w: a session is already active for this topic", ErrConflict)
	ErrWrongPhase          = fmt.Errorf("%w: operation does not match the session phase", ErrInvalidState)
	ErrGapTooShort         = fmt.Errorf("%w: gap duration is below the enforced minimum", ErrInvalidState)
	ErrInvalidAnswer       = fmt.Errorf("%w: answer must be Y or N", ErrValidation)
	ErrInvalidResponseTime = fmt.Errorf("%w: response time must be non-negative", ErrValidation)
	ErrInvalidGapDuration  = fmt.Errorf("%w: gap duration must be non-negative", ErrValidation)

	// ErrProgressPending is joined with the cause when a session completed
	// but its topic was not advanced. The completed transition is still
	// returned alongside it.
	ErrProgressPending = errors.New("topic progress pending")
)
