package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/model"
)

// ProgressAdvancer applies a completed session to its topic
type ProgressAdvancer interface {
	AdvanceTopicProgress(ctx context.Context, topicID string, result *model.SessionResult) (*model.Topic, error)
}

// SessionManager runs the observation, gap and reinforcement ritual. Each
// live session is addressed by an opaque handle and at most one live session
// may exist per topic.
type SessionManager struct {
	topicRepo        TopicRepository
	cardRepo         CardRepository
	responseRepo     ResponseRepository
	presentationRepo PresentationRepository
	diagnosisRepo    DiagnosisRepository
	selector         *CardSelector
	progress         ProgressAdvancer
	efficiency       EfficiencyQueue
	clock            Clock
	location         *time.Location
	gapMinimum       time.Duration
	ttl              time.Duration
	log              *logger.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
	byTopic  map[string]string
}

// SessionManagerConfig holds configuration for the session manager
type SessionManagerConfig struct {
	TopicRepo        TopicRepository
	CardRepo         CardRepository
	ResponseRepo     ResponseRepository
	PresentationRepo PresentationRepository
	// DiagnosisRepo is optional. When set, the user's profile for the topic
	// category steers card selection toward their primary archetype.
	DiagnosisRepo DiagnosisRepository
	Selector      *CardSelector
	Progress      ProgressAdvancer
	Efficiency    EfficiencyQueue
	Clock         Clock
	Location      *time.Location
	// GapMinimum is the shortest accepted pause (default 3s)
	GapMinimum time.Duration
	// TTL is how long a session may sit idle before ExpireIdle drops it
	TTL    time.Duration
	Logger *logger.Logger
}

type liveSession struct {
	mu              sync.Mutex
	state           model.SessionState
	observationTime float64
	reinforceTime   float64
	lastActivity    time.Time
	closed          bool
}

// NewSessionManager creates a new session manager
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.GapMinimum <= 0 {
		cfg.GapMinimum = model.DefaultGapMinimum
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Selector == nil {
		cfg.Selector = NewCardSelector(CardSelectorConfig{CardRepo: cfg.CardRepo})
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &SessionManager{
		topicRepo:        cfg.TopicRepo,
		cardRepo:         cfg.CardRepo,
		responseRepo:     cfg.ResponseRepo,
		presentationRepo: cfg.PresentationRepo,
		diagnosisRepo:    cfg.DiagnosisRepo,
		selector:         cfg.Selector,
		progress:         cfg.Progress,
		efficiency:       cfg.Efficiency,
		clock:            cfg.Clock,
		location:         cfg.Location,
		gapMinimum:       cfg.GapMinimum,
		ttl:              cfg.TTL,
		log:              cfg.Logger,
		sessions:         make(map[string]*liveSession),
		byTopic:          make(map[string]string),
	}
}

// ============================================================================
// Start
// ============================================================================

// StartSession opens a session on a topic and picks its three cards
func (m *SessionManager) StartSession(ctx context.Context, userID string, req *model.StartSessionRequest) (*model.SessionState, error) {
	if req.Difficulty != nil && !model.ValidDifficulty(*req.Difficulty) {
		return nil, ErrInvalidDifficulty
	}

	topic, err := m.topicRepo.GetByID(ctx, req.TopicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, ErrTopicNotFound
	}
	if topic.UserID != userID {
		return nil, ErrNotTopicOwner
	}
	if topic.State == model.TopicStateLocked {
		return nil, ErrTopicLocked
	}

	sessionID := uuid.New().String()
	if !m.reserveTopic(topic.ID, sessionID) {
		return nil, ErrSessionActive
	}
	reserved := true
	defer func() {
		if reserved {
			m.releaseTopic(topic.ID, sessionID)
		}
	}()

	cards, err := m.pickCards(ctx, topic, req)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now().UTC()
	if err := m.present(ctx, sessionID, topic.ID, cards.observation, model.PhaseObservation, now); err != nil {
		return nil, err
	}

	sess := &liveSession{
		state: model.SessionState{
			SessionID:           sessionID,
			UserID:              userID,
			TopicID:             topic.ID,
			Phase:               model.SessionPhaseObservation,
			SessionStart:        now,
			ObservationCardID:   cards.observation,
			GapCardID:           cards.gap,
			ReinforcementCardID: cards.reinforcement,
		},
		lastActivity: now,
	}

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()
	reserved = false

	m.log.Debug("session started", "session_id", sessionID, "topic_id", topic.ID, "user_id", userID)
	return snapshot(sess), nil
}

type sessionCards struct {
	observation   string
	gap           string
	reinforcement string
}

func (m *SessionManager) pickCards(ctx context.Context, topic *model.Topic, req *model.StartSessionRequest) (sessionCards, error) {
	var picked sessionCards

	filter := model.CardFilter{TopicID: topic.ID, Difficulty: req.Difficulty}
	if archetype := m.preferredArchetype(ctx, topic); archetype != nil {
		filter.Archetype = archetype
	}

	if req.ObservationCardID != "" {
		card, err := m.cardRepo.GetByID(ctx, req.ObservationCardID)
		if err != nil {
			return picked, err
		}
		if card == nil || card.TopicID != topic.ID || card.Phase != model.PhaseObservation || !card.Active {
			return picked, ErrCardNotObservation
		}
		picked.observation = card.ID
	} else {
		card, err := m.selectFor(ctx, filter, model.PhaseObservation)
		if err != nil {
			return picked, err
		}
		picked.observation = card.ID
	}

	gap, err := m.selectFor(ctx, filter, model.PhaseGap)
	if err != nil {
		return picked, err
	}
	picked.gap = gap.ID

	reinforcement, err := m.selectFor(ctx, filter, model.PhaseReinforcement)
	if err != nil {
		return picked, err
	}
	picked.reinforcement = reinforcement.ID

	return picked, nil
}

func (m *SessionManager) selectFor(ctx context.Context, filter model.CardFilter, phase model.Phase) (*model.Card, error) {
	filter.Phase = &phase
	return m.selector.SelectBest(ctx, filter)
}

// preferredArchetype looks up the user's diagnosed archetype for the topic's
// category. Lookup failures only cost the preference.
func (m *SessionManager) preferredArchetype(ctx context.Context, topic *model.Topic) *model.Archetype {
	if m.diagnosisRepo == nil {
		return nil
	}
	profile, err := m.diagnosisRepo.GetByUser(ctx, topic.UserID, topic.Category)
	if err != nil {
		m.log.Warn("diagnosis lookup failed", "user_id", topic.UserID, "error", err)
		return nil
	}
	if profile == nil {
		return nil
	}
	primary := profile.Result.Primary
	return &primary
}

// ============================================================================
// Phase operations
// ============================================================================

// SubmitObservation records the answer to the observation card. N ends the
// session without completion; Y moves on to the gap.
func (m *SessionManager) SubmitObservation(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error) {
	if err := validateAnswer(req); err != nil {
		return nil, err
	}

	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if sess.state.Phase != model.SessionPhaseObservation {
		return nil, ErrWrongPhase
	}

	now := m.clock.Now().UTC()
	if err := m.record(ctx, sess, sess.state.ObservationCardID, req, req.Answer == model.AnswerYes, now); err != nil {
		return nil, err
	}

	answer := req.Answer
	sess.state.ObservationAnswer = &answer
	sess.observationTime = req.ResponseTimeSeconds
	sess.lastActivity = now

	if answer == model.AnswerNo {
		m.finish(sess, false)
		return transition(sess), nil
	}

	if err := m.present(ctx, sess.state.SessionID, sess.state.TopicID, sess.state.GapCardID, model.PhaseGap, now); err != nil {
		m.log.Error("failed to record gap presentation", "session_id", sess.state.SessionID, "error", err)
	}
	sess.state.Phase = model.SessionPhaseGap
	return transition(sess), nil
}

// ElapseGap reports how long the user paused. Pauses shorter than the
// configured minimum are rejected and the session stays in the gap.
func (m *SessionManager) ElapseGap(ctx context.Context, userID, sessionID string, durationSeconds float64) (*model.PhaseTransition, error) {
	if !(durationSeconds >= 0) {
		return nil, ErrInvalidGapDuration
	}

	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if sess.state.Phase != model.SessionPhaseGap {
		return nil, ErrWrongPhase
	}
	if durationSeconds < m.gapMinimum.Seconds() {
		return nil, ErrGapTooShort
	}

	now := m.clock.Now().UTC()
	if err := m.present(ctx, sess.state.SessionID, sess.state.TopicID, sess.state.ReinforcementCardID, model.PhaseReinforcement, now); err != nil {
		m.log.Error("failed to record reinforcement presentation", "session_id", sess.state.SessionID, "error", err)
	}
	sess.state.GapElapsed = true
	sess.state.Phase = model.SessionPhaseReinforcement
	sess.lastActivity = now
	return transition(sess), nil
}

// SubmitReinforcement records the reinforcement answer, completes the
// session and advances the topic. Either answer completes the session.
// If the topic cannot be advanced the completed transition is returned
// together with an error wrapping ErrProgressPending, and ApplyProgress can
// retry the advance.
func (m *SessionManager) SubmitReinforcement(ctx context.Context, userID, sessionID string, req *model.AnswerRequest) (*model.PhaseTransition, error) {
	if err := validateAnswer(req); err != nil {
		return nil, err
	}

	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if sess.state.Phase != model.SessionPhaseReinforcement {
		return nil, ErrWrongPhase
	}

	now := m.clock.Now().UTC()
	if err := m.record(ctx, sess, sess.state.ReinforcementCardID, req, true, now); err != nil {
		return nil, err
	}

	answer := req.Answer
	sess.state.ReinforcementAnswer = &answer
	sess.reinforceTime = req.ResponseTimeSeconds
	sess.lastActivity = now
	m.finish(sess, true)

	if err := m.applyProgress(ctx, sess); err != nil {
		return transition(sess), fmt.Errorf("%w: %w", ErrProgressPending, err)
	}
	return transition(sess), nil
}

// ApplyProgress re-applies a completed session to its topic. It is safe to
// call repeatedly; the topic only advances once per session.
func (m *SessionManager) ApplyProgress(ctx context.Context, userID, sessionID string) (*model.Topic, error) {
	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if sess.state.Result == nil || !sess.state.Result.Completed {
		return nil, ErrSessionNotCompleted
	}
	if m.progress == nil {
		return nil, nil
	}
	return m.progress.AdvanceTopicProgress(ctx, sess.state.TopicID, sess.state.Result)
}

func (m *SessionManager) applyProgress(ctx context.Context, sess *liveSession) error {
	if m.progress == nil {
		return nil
	}
	if _, err := m.progress.AdvanceTopicProgress(ctx, sess.state.TopicID, sess.state.Result); err != nil {
		m.log.Error("failed to advance topic progress",
			"session_id", sess.state.SessionID,
			"topic_id", sess.state.TopicID,
			"error", err,
		)
		return err
	}
	return nil
}

// AbortSession discards a session. Responses already written are kept.
func (m *SessionManager) AbortSession(ctx context.Context, userID, sessionID string) error {
	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	m.drop(sess)
	m.log.Debug("session aborted", "session_id", sessionID, "phase", string(sess.state.Phase))
	return nil
}

// GetSession returns a snapshot of a session
func (m *SessionManager) GetSession(ctx context.Context, userID, sessionID string) (*model.SessionState, error) {
	sess, err := m.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return snapshot(sess), nil
}

// ExpireIdle drops every session with no activity for longer than the TTL
// and returns how many were removed
func (m *SessionManager) ExpireIdle(ctx context.Context) int {
	cutoff := m.clock.Now().UTC().Add(-m.ttl)

	m.mu.Lock()
	candidates := make([]*liveSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		candidates = append(candidates, sess)
	}
	m.mu.Unlock()

	expired := 0
	for _, sess := range candidates {
		sess.mu.Lock()
		if !sess.closed && sess.lastActivity.Before(cutoff) {
			m.drop(sess)
			expired++
		}
		sess.mu.Unlock()
	}
	return expired
}

// ActiveCount returns the number of sessions currently held
func (m *SessionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ============================================================================
// Helpers
// ============================================================================

func validateAnswer(req *model.AnswerRequest) error {
	if !req.Answer.IsValid() {
		return ErrInvalidAnswer
	}
	if !(req.ResponseTimeSeconds >= 0) {
		return ErrInvalidResponseTime
	}
	return nil
}

// acquire looks up a session and returns it locked. Sessions owned by
// another user are reported as not found.
func (m *SessionManager) acquire(userID, sessionID string) (*liveSession, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.closed || sess.state.UserID != userID {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *SessionManager) reserveTopic(topicID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.byTopic[topicID]; busy {
		return false
	}
	m.byTopic[topicID] = sessionID
	return true
}

func (m *SessionManager) releaseTopic(topicID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byTopic[topicID] == sessionID {
		delete(m.byTopic, topicID)
	}
}

// finish moves a session to complete and frees its topic. The session
// itself stays readable until it expires or is aborted. Caller holds sess.mu.
func (m *SessionManager) finish(sess *liveSession, completed bool) {
	sess.state.Phase = model.SessionPhaseComplete
	result := &model.SessionResult{
		SessionID:                sess.state.SessionID,
		TopicID:                  sess.state.TopicID,
		GapCompleted:             sess.state.GapElapsed,
		TotalResponseTimeSeconds: sess.observationTime + sess.reinforceTime,
		Completed:                completed,
	}
	if sess.state.ObservationAnswer != nil {
		result.ObservationAnswer = *sess.state.ObservationAnswer
	}
	if sess.state.ReinforcementAnswer != nil {
		a := *sess.state.ReinforcementAnswer
		result.ReinforcementAnswer = &a
	}
	sess.state.Result = result
	m.releaseTopic(sess.state.TopicID, sess.state.SessionID)
}

// drop removes a session entirely. Caller holds sess.mu.
func (m *SessionManager) drop(sess *liveSession) {
	sess.closed = true
	m.mu.Lock()
	delete(m.sessions, sess.state.SessionID)
	if m.byTopic[sess.state.TopicID] == sess.state.SessionID {
		delete(m.byTopic, sess.state.TopicID)
	}
	m.mu.Unlock()
}

func (m *SessionManager) present(ctx context.Context, sessionID, topicID, cardID string, phase model.Phase, at time.Time) error {
	return m.presentationRepo.Create(ctx, &model.Presentation{
		CardID:    cardID,
		TopicID:   topicID,
		SessionID: sessionID,
		Phase:     phase,
		Timestamp: at,
	})
}

// record appends a response row and queues the card for an efficiency
// recompute. Caller holds sess.mu.
func (m *SessionManager) record(ctx context.Context, sess *liveSession, cardID string, req *model.AnswerRequest, completed bool, at time.Time) error {
	rc := req.Context
	if rc.TimeOfDay == "" {
		rc.TimeOfDay = timeOfDay(at.In(m.location))
	}
	resp := &model.Response{
		UserID:              sess.state.UserID,
		CardID:              cardID,
		TopicID:             sess.state.TopicID,
		Answer:              req.Answer,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		Completed:           completed,
		Timestamp:           at,
		Context:             rc,
	}
	if err := m.responseRepo.Create(ctx, resp); err != nil {
		return err
	}
	if m.efficiency != nil {
		m.efficiency.Enqueue(cardID)
	}
	return nil
}

// timeOfDay buckets a local time into morning, afternoon or evening
func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func snapshot(sess *liveSession) *model.SessionState {
	s := sess.state
	if s.ObservationAnswer != nil {
		a := *s.ObservationAnswer
		s.ObservationAnswer = &a
	}
	if s.ReinforcementAnswer != nil {
		a := *s.ReinforcementAnswer
		s.ReinforcementAnswer = &a
	}
	if s.Result != nil {
		r := *s.Result
		if r.ReinforcementAnswer != nil {
			a := *r.ReinforcementAnswer
			r.ReinforcementAnswer = &a
		}
		s.Result = &r
	}
	return &s
}

func transition(sess *liveSession) *model.PhaseTransition {
	snap := snapshot(sess)
	return &model.PhaseTransition{
		SessionID: snap.SessionID,
		Phase:     snap.Phase,
		Result:    snap.Result,
	}
}
