package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/terptaster/internal/domain/training"
	"github.com/okian/terptaster/pkg/metrics"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 10_000
)

type sessionItem struct {
	session *training.Session
	touched time.Time
}

// SessionStore keeps training sessions in memory. Sessions idle longer than
// the TTL are dropped, and when the store is full the least recently used
// session is evicted.
type SessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	now   func() time.Time
	order *list.List // front = most recently touched
	byID  map[string]*list.Element
}

// NewSessionStore constructs a session store with configuration options.
func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		ttl:   defaultSessionTTL,
		max:   defaultMaxSessions,
		now:   time.Now,
		order: list.New(),
		byID:  make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a copy of sess under a fresh id and returns that copy.
func (s *SessionStore) Create(_ context.Context, sess *training.Session) (*training.Session, error) {
	stored := sess.Clone()
	stored.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	if s.max > 0 {
		for s.order.Len() >= s.max {
			s.removeLocked(s.order.Back())
		}
	}
	s.byID[stored.ID] = s.order.PushFront(&sessionItem{session: stored, touched: s.now()})
	metrics.UpdateTrainingSessionsActive(s.order.Len())
	return stored.Clone(), nil
}

// Get returns a copy of the session and refreshes its idle timer.
func (s *SessionStore) Get(_ context.Context, id string) (*training.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.touchLocked(id)
	if err != nil {
		return nil, fmt.Errorf("repository.session_get: %w", err)
	}
	return item.session.Clone(), nil
}

// Update applies fn to the stored session under the store lock. The session
// is only changed when fn succeeds; the result is returned as a copy.
func (s *SessionStore) Update(_ context.Context, id string, fn func(*training.Session) error) (*training.Session, error) {
	const op = "repository.session_update"

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.touchLocked(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	working := item.session.Clone()
	if err := fn(working); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	working.ID = id
	item.session = working
	return working.Clone(), nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	el, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("repository.session_delete: %w", ErrSessionMissing)
	}
	s.removeLocked(el)
	metrics.UpdateTrainingSessionsActive(s.order.Len())
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.order.Len()
}

func (s *SessionStore) touchLocked(id string) (*sessionItem, error) {
	s.expireLocked()
	el, ok := s.byID[id]
	if !ok {
		return nil, ErrSessionMissing
	}
	item := el.Value.(*sessionItem) //nolint:forcetypeassert // list only holds *sessionItem
	item.touched = s.now()
	s.order.MoveToFront(el)
	return item, nil
}

// expireLocked drops idle sessions from the back of the list.
func (s *SessionStore) expireLocked() {
	cutoff := s.now().Add(-s.ttl)
	before := s.order.Len()
	for el := s.order.Back(); el != nil; el = s.order.Back() {
		if el.Value.(*sessionItem).touched.After(cutoff) { //nolint:forcetypeassert // list only holds *sessionItem
			break
		}
		s.removeLocked(el)
	}
	if s.order.Len() != before {
		metrics.UpdateTrainingSessionsActive(s.order.Len())
	}
}

func (s *SessionStore) removeLocked(el *list.Element) {
	item := s.order.Remove(el).(*sessionItem) //nolint:forcetypeassert // list only holds *sessionItem
	delete(s.byID, item.session.ID)
}
