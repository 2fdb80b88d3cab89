// Package session keeps per-browser page shell state in memory.
package session

import (
	"container/list"
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fraudlens/internal/domain/scoring"
	"github.com/okian/fraudlens/internal/domain/shell"
)

const defaultMaxSize = 10_000

// Session is the state of one browser.
type Session struct {
	ID   string
	View shell.View
	// Values is the last prediction form submission.
	Values url.Values
	// Last is the last successful prediction.
	Last      *scoring.Result
	UpdatedAt time.Time
}

// Store keeps sessions by id.
type Store interface {
	// Get returns the session for id.
	Get(ctx context.Context, id string) (Session, bool)
	// Create starts a session at the initial view.
	Create(ctx context.Context) Session
	// Save stores s, replacing the session with the same id.
	Save(ctx context.Context, s Session)
	// Len returns the number of sessions held.
	Len() int
}

// InMemoryStore is a bounded Store. When full, the least recently used
// session is dropped; a dropped browser starts over at the initial view.
type InMemoryStore struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	newID   func() string
	observe func(int)
}

// NewInMemoryStore creates a store with configuration options.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for id and marks it used.
func (s *InMemoryStore) Get(_ context.Context, id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[id]
	if !ok {
		return Session{}, false
	}
	s.order.MoveToFront(el)
	return el.Value.(Session), true
}

// Create starts a new session at the initial view.
func (s *InMemoryStore) Create(ctx context.Context) Session {
	sess := Session{ID: s.newID(), View: shell.Initial, UpdatedAt: time.Now()}
	s.Save(ctx, sess)
	return sess
}

// Save stores sess, evicting the least recently used session when full.
func (s *InMemoryStore) Save(_ context.Context, sess Session) {
	s.mu.Lock()
	if el, ok := s.items[sess.ID]; ok {
		el.Value = sess
		s.order.MoveToFront(el)
	} else {
		for len(s.items) >= s.maxSize {
			s.evictOldest()
		}
		s.items[sess.ID] = s.order.PushFront(sess)
	}
	n := len(s.items)
	s.mu.Unlock()

	if s.observe != nil {
		s.observe(n)
	}
}

// evictOldest must be called with mu held.
func (s *InMemoryStore) evictOldest() {
	el := s.order.Back()
	if el == nil {
		return
	}
	s.order.Remove(el)
	delete(s.items, el.Value.(Session).ID)
}

// Len returns the number of sessions held.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
