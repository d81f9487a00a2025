package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/pausemo/api/internal/middleware"
	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/service"
)

// SessionService is the subset of the session manager used over HTTP
type SessionService interface {
	StartSession(ctx context.Context, userID string, req *model.StartSessionRequest) (*model.SessionState, error)
	SubmitObservation(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error)
	ElapseGap(ctx context.Context, userID, sessionID string, durationSeconds float64) (*model.PhaseTransition, error)
	SubmitReinforcement(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error)
	ApplyProgress(ctx context.Context, userID, sessionID string) (*model.Topic, error)
	AbortSession(ctx context.Context, userID, sessionID string) error
	GetSession(ctx context.Context, userID, sessionID string) (*model.SessionState, error)
}

// GapRequest reports how long the user paused during the gap phase
type GapRequest struct {
	DurationSeconds float64 `json:"durationSeconds"`
}

// ProgressRequest names the completed session whose result should be applied
type ProgressRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionHandler handles intervention session endpoints
type SessionHandler struct {
	sessionService SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Start handles POST /v1/sessions - open a session on a topic
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.StartSessionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.TopicID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "topicId", Message: "topicId is required"}}))
		return
	}

	state, err := h.sessionService.StartSession(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "start session"))
		return
	}

	WriteData(w, http.StatusCreated, state, sessionLinks(state.SessionID))
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionId")

	state, err := h.sessionService.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, state, sessionLinks(sessionID))
}

// Abort handles DELETE /v1/sessions/{sessionId}
func (h *SessionHandler) Abort(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionId")

	if err := h.sessionService.AbortSession(r.Context(), userID, sessionID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// Observation handles POST /v1/sessions/{sessionId}/observation
func (h *SessionHandler) Observation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionId")

	var req model.AnswerRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	transition, err := h.sessionService.SubmitObservation(r.Context(), userID, sessionID, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "submit observation"))
		return
	}

	WriteData(w, http.StatusOK, transition, sessionLinks(sessionID))
}

// Gap handles POST /v1/sessions/{sessionId}/gap
func (h *SessionHandler) Gap(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionId")

	var req GapRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	transition, err := h.sessionService.ElapseGap(r.Context(), userID, sessionID, req.DurationSeconds)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "elapse gap"))
		return
	}

	WriteData(w, http.StatusOK, transition, sessionLinks(sessionID))
}

// Reinforcement handles POST /v1/sessions/{sessionId}/reinforcement
func (h *SessionHandler) Reinforcement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := r.PathValue("sessionId")

	var req model.AnswerRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	transition, err := h.sessionService.SubmitReinforcement(r.Context(), userID, sessionID, &req)
	if err != nil && errors.Is(err, service.ErrProgressPending) && transition != nil && transition.Result != nil {
		// session is complete; the client retries the topic advance
		links := sessionLinks(sessionID)
		links["progress"] = "/v1/topics/" + transition.Result.TopicID + "/progress"
		WriteData(w, http.StatusAccepted, transition, links)
		return
	}
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "submit reinforcement"))
		return
	}

	WriteData(w, http.StatusOK, transition, sessionLinks(sessionID))
}

// ApplyProgress handles POST /v1/topics/{topicId}/progress - re-apply a
// completed session to its topic. Repeating the call does not advance the
// topic twice.
func (h *SessionHandler) ApplyProgress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	topicID := r.PathValue("topicId")

	var req ProgressRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.SessionID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "sessionId", Message: "sessionId is required"}}))
		return
	}

	state, err := h.sessionService.GetSession(r.Context(), userID, req.SessionID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	if state.TopicID != topicID {
		WriteError(w, model.NewNotFoundError("session"))
		return
	}

	topic, err := h.sessionService.ApplyProgress(r.Context(), userID, req.SessionID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "apply progress"))
		return
	}
	if topic == nil {
		WriteNoContent(w)
		return
	}

	WriteData(w, http.StatusOK, topic, topicLinks(topicID))
}

func sessionLinks(sessionID string) map[string]string {
	base := "/v1/sessions/" + sessionID
	return map[string]string{
		"self":          base,
		"observation":   base + "/observation",
		"gap":           base + "/gap",
		"reinforcement": base + "/reinforcement",
	}
}
