package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   model.ErrorCode
		field  string
	}{
		{"answer count", service.ErrInvalidAnswerCount, http.StatusUnprocessableEntity, model.ErrCodeValidation, "answers"},
		{"invalid answer", service.ErrInvalidAnswer, http.StatusUnprocessableEntity, model.ErrCodeValidation, "answer"},
		{"negative gap", service.ErrInvalidGapDuration, http.StatusUnprocessableEntity, model.ErrCodeValidation, "durationSeconds"},
		{"wrapped validation", fmt.Errorf("seed: %w", service.ErrValidation), http.StatusUnprocessableEntity, model.ErrCodeValidation, "request"},
		{"topic missing", service.ErrTopicNotFound, http.StatusNotFound, model.ErrCodeNotFound, ""},
		{"session missing", service.ErrSessionNotFound, http.StatusNotFound, model.ErrCodeNotFound, ""},
		{"wrong phase", service.ErrWrongPhase, http.StatusConflict, model.ErrCodeInvalidState, ""},
		{"topic locked", service.ErrTopicLocked, http.StatusConflict, model.ErrCodeInvalidState, ""},
		{"active session", service.ErrSessionActive, http.StatusConflict, model.ErrCodeConflict, ""},
		{"no cards", service.ErrNoCards, http.StatusUnprocessableEntity, model.ErrCodeNoContent, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, model.ErrCodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pd := MapServiceError(tt.err)
			if pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, pd.Status)
			}
			if pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, pd.Code)
			}
			if tt.field != "" && (len(pd.Errors) != 1 || pd.Errors[0].Field != tt.field) {
				t.Errorf("expected field %q, got %+v", tt.field, pd.Errors)
			}
		})
	}
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()

	if MapServiceError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestMapServiceError_UnknownDoesNotLeak(t *testing.T) {
	t.Parallel()

	pd := MapServiceError(errors.New("db password is hunter2"))
	if pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected generic detail, got %q", pd.Detail)
	}
}
