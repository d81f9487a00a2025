package handler

import (
	"errors"

	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Specific errors are matched first, then the taxonomy they wrap.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidAnswerCount):
		return fieldError("answers", err)
	case errors.Is(err, service.ErrInvalidCategory):
		return fieldError("category", err)
	case errors.Is(err, service.ErrInvalidDifficulty):
		return fieldError("difficulty", err)
	case errors.Is(err, service.ErrInvalidPhase):
		return fieldError("phase", err)
	case errors.Is(err, service.ErrInvalidArchetype):
		return fieldError("archetype", err)
	case errors.Is(err, service.ErrCardNotObservation):
		return fieldError("observationCardId", err)
	case errors.Is(err, service.ErrTopicNameRequired),
		errors.Is(err, service.ErrTopicNameTooLong):
		return fieldError("name", err)
	case errors.Is(err, service.ErrInvalidAnswer):
		return fieldError("answer", err)
	case errors.Is(err, service.ErrInvalidResponseTime):
		return fieldError("responseTimeSeconds", err)
	case errors.Is(err, service.ErrInvalidGapDuration):
		return fieldError("durationSeconds", err)
	case errors.Is(err, service.ErrValidation):
		return fieldError("request", err)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrProfileNotFound):
		return model.NewNotFoundError("diagnosis profile")
	case errors.Is(err, service.ErrCardNotFound):
		return model.NewNotFoundError("card")
	case errors.Is(err, service.ErrTopicNotFound),
		errors.Is(err, service.ErrNotTopicOwner):
		return model.NewNotFoundError("topic")
	case errors.Is(err, service.ErrSessionNotFound):
		return model.NewNotFoundError("session")
	case errors.Is(err, service.ErrNotFound):
		return model.NewNotFoundError("resource")

	// ===== State Errors → 409 =====
	case errors.Is(err, service.ErrInvalidState):
		return model.NewInvalidStateError(err.Error())
	case errors.Is(err, service.ErrConflict):
		return model.NewConflictError(err.Error())

	// ===== Empty Content → 422 =====
	case errors.Is(err, service.ErrNoContent):
		return model.NewNoContentError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

func fieldError(field string, err error) *model.ProblemDetails {
	return model.NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
}
