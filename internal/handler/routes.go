package handler

import (
	"net/http"

	"github.com/pausemo/api/internal/middleware"
)

// Handlers groups every handler served by the API
type Handlers struct {
	Health    *HealthHandler
	Diagnosis *DiagnosisHandler
	Topic     *TopicHandler
	Session   *SessionHandler
	Card      *CardHandler
}

// Register mounts all routes on mux. Everything under /v1 requires a caller
// identity; /health does not.
func Register(mux *http.ServeMux, h Handlers) {
	user := func(fn http.HandlerFunc) http.Handler {
		return middleware.UserContext(fn)
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", h.Health.Health)

	// Diagnosis
	mux.Handle("GET /v1/diagnosis/questions", user(h.Diagnosis.GetQuestions))
	mux.Handle("POST /v1/diagnosis", user(h.Diagnosis.Diagnose))
	mux.Handle("GET /v1/diagnosis/profiles/{category}", user(h.Diagnosis.GetProfile))

	// Topics
	mux.Handle("GET /v1/topics", user(h.Topic.List))
	mux.Handle("POST /v1/topics", user(h.Topic.Create))
	mux.Handle("GET /v1/topics/{topicId}", user(h.Topic.Get))
	mux.Handle("GET /v1/topics/{topicId}/cards", user(h.Topic.ListCards))
	mux.Handle("PATCH /v1/topics/{topicId}/complete", user(h.Topic.Complete))
	mux.Handle("POST /v1/topics/{topicId}/progress", user(h.Session.ApplyProgress))

	// Sessions
	mux.Handle("POST /v1/sessions", user(h.Session.Start))
	mux.Handle("GET /v1/sessions/{sessionId}", user(h.Session.Get))
	mux.Handle("DELETE /v1/sessions/{sessionId}", user(h.Session.Abort))
	mux.Handle("POST /v1/sessions/{sessionId}/observation", user(h.Session.Observation))
	mux.Handle("POST /v1/sessions/{sessionId}/gap", user(h.Session.Gap))
	mux.Handle("POST /v1/sessions/{sessionId}/reinforcement", user(h.Session.Reinforcement))

	// Cards
	mux.Handle("POST /v1/cards/{cardId}/efficiency", user(h.Card.RecomputeEfficiency))
}
