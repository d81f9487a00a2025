package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pausemo/api/internal/middleware"
	"github.com/pausemo/api/internal/model"
)

// ============================================================================
// Mock Services
// ============================================================================

type mockDiagnosisService struct {
	questionSetFunc func(category model.Category) (*model.QuestionSetInfo, error)
	diagnoseFunc    func(ctx context.Context, userID string, req *model.DiagnosisRequest) (*model.DiagnosisProfile, error)
	getProfileFunc  func(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error)
}

func (m *mockDiagnosisService) QuestionSet(category model.Category) (*model.QuestionSetInfo, error) {
	if m.questionSetFunc != nil {
		return m.questionSetFunc(category)
	}
	return nil, nil
}

func (m *mockDiagnosisService) Diagnose(ctx context.Context, userID string, req *model.DiagnosisRequest) (*model.DiagnosisProfile, error) {
	if m.diagnoseFunc != nil {
		return m.diagnoseFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *mockDiagnosisService) GetProfile(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error) {
	if m.getProfileFunc != nil {
		return m.getProfileFunc(ctx, userID, category)
	}
	return nil, nil
}

type mockTopicService struct {
	createTopicFunc      func(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error)
	getTopicFunc         func(ctx context.Context, userID, topicID string) (*model.Topic, error)
	listActiveTopicsFunc func(ctx context.Context, userID string) ([]*model.Topic, error)
	completeTopicFunc    func(ctx context.Context, userID, topicID string) (*model.Topic, error)
}

func (m *mockTopicService) CreateTopic(ctx context.Context, userID string, req *model.CreateTopicRequest) (*model.Topic, error) {
	if m.createTopicFunc != nil {
		return m.createTopicFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *mockTopicService) GetTopic(ctx context.Context, userID, topicID string) (*model.Topic, error) {
	if m.getTopicFunc != nil {
		return m.getTopicFunc(ctx, userID, topicID)
	}
	return &model.Topic{ID: topicID, UserID: userID}, nil
}

func (m *mockTopicService) ListActiveTopics(ctx context.Context, userID string) ([]*model.Topic, error) {
	if m.listActiveTopicsFunc != nil {
		return m.listActiveTopicsFunc(ctx, userID)
	}
	return []*model.Topic{}, nil
}

func (m *mockTopicService) CompleteTopic(ctx context.Context, userID, topicID string) (*model.Topic, error) {
	if m.completeTopicFunc != nil {
		return m.completeTopicFunc(ctx, userID, topicID)
	}
	return &model.Topic{ID: topicID, UserID: userID, State: model.TopicStateCompleted}, nil
}

type mockCardSelector struct {
	selectCardsFunc func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error)
}

func (m *mockCardSelector) SelectCards(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
	if m.selectCardsFunc != nil {
		return m.selectCardsFunc(ctx, filter)
	}
	return []*model.Card{}, nil
}

type mockSessionService struct {
	startSessionFunc        func(ctx context.Context, userID string, req *model.StartSessionRequest) (*model.SessionState, error)
	submitObservationFunc   func(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error)
	elapseGapFunc           func(ctx context.Context, userID, sessionID string, durationSeconds float64) (*model.PhaseTransition, error)
	submitReinforcementFunc func(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error)
	applyProgressFunc       func(ctx context.Context, userID, sessionID string) (*model.Topic, error)
	abortSessionFunc        func(ctx context.Context, userID, sessionID string) error
	getSessionFunc          func(ctx context.Context, userID, sessionID string) (*model.SessionState, error)
}

func (m *mockSessionService) StartSession(ctx context.Context, userID string, req *model.StartSessionRequest) (*model.SessionState, error) {
	if m.startSessionFunc != nil {
		return m.startSessionFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *mockSessionService) SubmitObservation(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error) {
	if m.submitObservationFunc != nil {
		return m.submitObservationFunc(ctx, userID, sessionID, req)
	}
	return nil, nil
}

func (m *mockSessionService) ElapseGap(ctx context.Context, userID, sessionID string, durationSeconds float64) (*model.PhaseTransition, error) {
	if m.elapseGapFunc != nil {
		return m.elapseGapFunc(ctx, userID, sessionID, durationSeconds)
	}
	return nil, nil
}

func (m *mockSessionService) SubmitReinforcement(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error) {
	if m.submitReinforcementFunc != nil {
		return m.submitReinforcementFunc(ctx, userID, sessionID, req)
	}
	return nil, nil
}

func (m *mockSessionService) ApplyProgress(ctx context.Context, userID, sessionID string) (*model.Topic, error) {
	if m.applyProgressFunc != nil {
		return m.applyProgressFunc(ctx, userID, sessionID)
	}
	return nil, nil
}

func (m *mockSessionService) AbortSession(ctx context.Context, userID, sessionID string) error {
	if m.abortSessionFunc != nil {
		return m.abortSessionFunc(ctx, userID, sessionID)
	}
	return nil
}

func (m *mockSessionService) GetSession(ctx context.Context, userID, sessionID string) (*model.SessionState, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, userID, sessionID)
	}
	return nil, nil
}

type mockEfficiencyService struct {
	recomputeFunc func(ctx context.Context, cardID string) (*model.Effectiveness, error)
}

func (m *mockEfficiencyService) RecomputeEfficiency(ctx context.Context, cardID string) (*model.Effectiveness, error) {
	if m.recomputeFunc != nil {
		return m.recomputeFunc(ctx, cardID)
	}
	return &model.Effectiveness{}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// ============================================================================
// Test Helpers
// ============================================================================

type testServices struct {
	diagnosis  *mockDiagnosisService
	topics     *mockTopicService
	cards      *mockCardSelector
	sessions   *mockSessionService
	efficiency *mockEfficiencyService
	db         *mockPinger
}

func newTestServices() *testServices {
	return &testServices{
		diagnosis:  &mockDiagnosisService{},
		topics:     &mockTopicService{},
		cards:      &mockCardSelector{},
		sessions:   &mockSessionService{},
		efficiency: &mockEfficiencyService{},
		db:         &mockPinger{},
	}
}

func (s *testServices) mux() *http.ServeMux {
	mux := http.NewServeMux()
	Register(mux, Handlers{
		Health:    NewHealthHandler(s.db),
		Diagnosis: NewDiagnosisHandler(s.diagnosis),
		Topic:     NewTopicHandler(s.topics, s.cards),
		Session:   NewSessionHandler(s.sessions),
		Card:      NewCardHandler(s.efficiency),
	})
	return mux
}

// serve sends a request through the full route table as user:1
func (s *testServices) serve(method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.serveAs("user:1", method, path, body)
}

func (s *testServices) serveAs(userID, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rr := httptest.NewRecorder()
	s.mux().ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return problem
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}
