package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pausemo/api/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockCardRepo struct {
	getByIDFunc             func(ctx context.Context, id string) (*model.Card, error)
	listByTopicFunc         func(ctx context.Context, filter model.CardFilter) ([]*model.Card, error)
	createBatchFunc         func(ctx context.Context, cards []*model.Card) error
	updateEffectivenessFunc func(ctx context.Context, id string, eff model.Effectiveness) error
	setActiveFunc           func(ctx context.Context, id string, active bool) error
}

func (m *mockCardRepo) GetByID(ctx context.Context, id string) (*model.Card, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCardRepo) ListByTopic(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
	if m.listByTopicFunc != nil {
		return m.listByTopicFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockCardRepo) CreateBatch(ctx context.Context, cards []*model.Card) error {
	if m.createBatchFunc != nil {
		return m.createBatchFunc(ctx, cards)
	}
	return nil
}

func (m *mockCardRepo) UpdateEffectiveness(ctx context.Context, id string, eff model.Effectiveness) error {
	if m.updateEffectivenessFunc != nil {
		return m.updateEffectivenessFunc(ctx, id, eff)
	}
	return nil
}

func (m *mockCardRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, id, active)
	}
	return nil
}

type mockResponseRepo struct {
	mu          sync.Mutex
	created     []*model.Response
	createFunc  func(ctx context.Context, response *model.Response) error
	countByCard func(ctx context.Context, cardID string) (int, int, error)
}

func (m *mockResponseRepo) Create(ctx context.Context, response *model.Response) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, response); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	response.ID = fmt.Sprintf("response:%d", len(m.created)+1)
	m.created = append(m.created, response)
	return nil
}

func (m *mockResponseRepo) CountByCard(ctx context.Context, cardID string) (int, int, error) {
	if m.countByCard != nil {
		return m.countByCard(ctx, cardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total, completed := 0, 0
	for _, r := range m.created {
		if r.CardID == cardID {
			total++
			if r.Completed {
				completed++
			}
		}
	}
	return total, completed, nil
}

func (m *mockResponseRepo) all() []*model.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Response, len(m.created))
	copy(out, m.created)
	return out
}

type mockPresentationRepo struct {
	mu          sync.Mutex
	created     []*model.Presentation
	createFunc  func(ctx context.Context, p *model.Presentation) error
	countByCard func(ctx context.Context, cardID string) (int, error)
}

func (m *mockPresentationRepo) Create(ctx context.Context, p *model.Presentation) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = fmt.Sprintf("presentation:%d", len(m.created)+1)
	m.created = append(m.created, p)
	return nil
}

func (m *mockPresentationRepo) CountByCard(ctx context.Context, cardID string) (int, error) {
	if m.countByCard != nil {
		return m.countByCard(ctx, cardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.created {
		if p.CardID == cardID {
			n++
		}
	}
	return n, nil
}

func (m *mockPresentationRepo) phases() []model.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Phase, 0, len(m.created))
	for _, p := range m.created {
		out = append(out, p.Phase)
	}
	return out
}

type mockDiagnosisRepo struct {
	upsertFunc    func(ctx context.Context, profile *model.DiagnosisProfile) error
	getByUserFunc func(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error)
}

func (m *mockDiagnosisRepo) Upsert(ctx context.Context, profile *model.DiagnosisProfile) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, profile)
	}
	return nil
}

func (m *mockDiagnosisRepo) GetByUser(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error) {
	if m.getByUserFunc != nil {
		return m.getByUserFunc(ctx, userID, category)
	}
	return nil, nil
}

// memTopicRepo is an in-memory TopicRepository with real compare-and-swap
// semantics on Version
type memTopicRepo struct {
	mu     sync.Mutex
	topics map[string]*model.Topic
	nextID int

	// beforeUpdate runs inside UpdateProgress before the version check
	beforeUpdate func(id string)
	updateCalls  int
}

func newMemTopicRepo(topics ...*model.Topic) *memTopicRepo {
	r := &memTopicRepo{topics: make(map[string]*model.Topic)}
	for _, t := range topics {
		c := *t
		r.topics[t.ID] = &c
	}
	return r
}

func (r *memTopicRepo) Create(ctx context.Context, topic *model.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	topic.ID = fmt.Sprintf("topic:t%d", r.nextID)
	c := *topic
	r.topics[topic.ID] = &c
	return nil
}

func (r *memTopicRepo) GetByID(ctx context.Context, id string) (*model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *memTopicRepo) ListByUser(ctx context.Context, userID string, state *model.TopicState) ([]*model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Topic
	for _, t := range r.topics {
		if t.UserID != userID {
			continue
		}
		if state != nil && t.State != *state {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTopicRepo) UpdateProgress(ctx context.Context, id string, expectedVersion int, u model.TopicProgressUpdate) (*model.Topic, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	t, ok := r.topics[id]
	if !ok {
		return nil, fmt.Errorf("no topic %s", id)
	}
	if t.Version != expectedVersion {
		return nil, ErrVersionMismatch
	}
	day := u.LastResponseDate
	t.State = u.State
	t.Progress = u.Progress
	t.DaysActive = u.DaysActive
	t.TodayResponded = u.TodayResponded
	t.LastResponseDate = &day
	t.ConsecutiveDays = u.ConsecutiveDays
	t.TotalResponses = u.TotalResponses
	t.LastSessionID = u.LastSessionID
	t.Version++
	c := *t
	return &c, nil
}

func (r *memTopicRepo) SetState(ctx context.Context, id string, expectedVersion int, state model.TopicState) (*model.Topic, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	t, ok := r.topics[id]
	if !ok {
		return nil, fmt.Errorf("no topic %s", id)
	}
	if t.Version != expectedVersion {
		return nil, ErrVersionMismatch
	}
	t.State = state
	t.Version++
	c := *t
	return &c, nil
}

func (r *memTopicRepo) ResetStreaks(ctx context.Context, staleBefore, today time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		touched := false
		if t.LastResponseDate != nil && t.LastResponseDate.Before(staleBefore) && t.ConsecutiveDays != 0 {
			t.ConsecutiveDays = 0
			touched = true
		}
		if t.TodayResponded && (t.LastResponseDate == nil || t.LastResponseDate.Before(today)) {
			t.TodayResponded = false
			touched = true
		}
		if touched {
			t.Version++
			n++
		}
	}
	return n, nil
}

// bump simulates a concurrent writer
func (r *memTopicRepo) bump(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[id].Version++
}

// memCardRepo stores cards in memory
type memCardRepo struct {
	mu    sync.Mutex
	cards map[string]*model.Card
	next  int
}

func newMemCardRepo(cards ...*model.Card) *memCardRepo {
	r := &memCardRepo{cards: make(map[string]*model.Card)}
	for _, c := range cards {
		cc := *c
		r.cards[c.ID] = &cc
	}
	return r
}

func (r *memCardRepo) GetByID(ctx context.Context, id string) (*model.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (r *memCardRepo) ListByTopic(ctx context.Context, filter model.CardFilter) ([]*model.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Card
	for _, c := range r.cards {
		if cardMatches(c, filter) {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (r *memCardRepo) CreateBatch(ctx context.Context, cards []*model.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cards {
		r.next++
		c.ID = fmt.Sprintf("card:c%d", r.next)
		cc := *c
		r.cards[c.ID] = &cc
	}
	return nil
}

func (r *memCardRepo) UpdateEffectiveness(ctx context.Context, id string, eff model.Effectiveness) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("no card %s", id)
	}
	c.Effectiveness = eff
	return nil
}

func (r *memCardRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("no card %s", id)
	}
	c.Active = active
	return nil
}

// ============================================================================
// Other fakes
// ============================================================================

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{now: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingQueue struct {
	mu    sync.Mutex
	cards []string
}

func (q *recordingQueue) Enqueue(cardID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cards = append(q.cards, cardID)
}

func (q *recordingQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.cards))
	copy(out, q.cards)
	return out
}

type mockProgress struct {
	mu      sync.Mutex
	calls   []*model.SessionResult
	advance func(ctx context.Context, topicID string, result *model.SessionResult) (*model.Topic, error)
}

func (p *mockProgress) AdvanceTopicProgress(ctx context.Context, topicID string, result *model.SessionResult) (*model.Topic, error) {
	p.mu.Lock()
	p.calls = append(p.calls, result)
	p.mu.Unlock()
	if p.advance != nil {
		return p.advance(ctx, topicID, result)
	}
	return &model.Topic{ID: topicID}, nil
}

type countingLocker struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	calls  int
	failOn string
}

func (l *countingLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	l.calls++
	if key == l.failOn {
		l.mu.Unlock()
		return nil, fmt.Errorf("lock unavailable")
	}
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	km, ok := l.locks[key]
	if !ok {
		km = &sync.Mutex{}
		l.locks[key] = km
	}
	l.mu.Unlock()
	km.Lock()
	return km.Unlock, nil
}

// ============================================================================
// Builders
// ============================================================================

func ptr[T any](v T) *T { return &v }

func testCard(id, topicID string, phase model.Phase, difficulty int, rate float64) *model.Card {
	return &model.Card{
		ID:              id,
		TopicID:         topicID,
		Phase:           phase,
		Difficulty:      difficulty,
		Text:            id,
		Category:        model.CategoryEmotionStress,
		TargetArchetype: model.ArchetypePair{Primary: model.ArchetypeVolatileAnxious},
		Active:          true,
		Effectiveness:   model.Effectiveness{ResponseRate: rate},
	}
}
