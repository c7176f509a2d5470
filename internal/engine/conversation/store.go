package conversation

import (
	"context"
	"sync"
	"time"

	"intent-engine/internal/common/logger"
	"intent-engine/internal/common/metrics"
)

// Persister saves and hydrates session state outside the process.
type Persister interface {
	// Load returns nil, nil when nothing is stored for userID.
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, st State, ttl time.Duration) error
}

// Store holds exactly one Session per user id. Entries are created lazily and
// expire lazily: an expired session is replaced on the next GetOrCreate, never
// purged in the background.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxHistory  int
	statusField string
	now         func() time.Time
	persister   Persister
	logger      logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPersister enables hydration and saving through p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithStatusField names the row field summarized per category.
func WithStatusField(field string) Option {
	return func(s *Store) { s.statusField = field }
}

// NewStore creates a store with the given inactivity TTL and history cap.
func NewStore(ttl time.Duration, maxHistory int, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxHistory:  maxHistory,
		statusField: "status",
		now:         time.Now,
		logger:      logger.ForComponent(log, "context-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the live session for userID. Missing sessions are hydrated
// from the persister when one is configured, else created empty; expired ones are
// replaced by a fresh session.
func (s *Store) GetOrCreate(ctx context.Context, userID string) *Session {
	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok && !sess.IsExpired() {
		s.mu.Unlock()
		return sess
	}
	s.mu.Unlock()

	hydrated := s.hydrate(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok && !sess.IsExpired() {
		return sess
	}
	sess := hydrated
	if sess == nil {
		sess = newSession(userID, s.ttl, s.maxHistory, s.statusField, s.now)
	}
	s.sessions[userID] = sess
	metrics.ContextSessions.Set(float64(len(s.sessions)))
	return sess
}

func (s *Store) hydrate(ctx context.Context, userID string) *Session {
	if s.persister == nil {
		return nil
	}
	st, err := s.persister.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("context hydration failed", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return nil
	}
	if st == nil {
		return nil
	}
	st.Context.TTL = s.ttl
	sess := restoreSession(*st, s.maxHistory, s.statusField, s.now)
	if sess.IsExpired() {
		return nil
	}
	return sess
}

// Lookup returns the stored session without replacing it, expired or not.
func (s *Store) Lookup(userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Save persists sess when a persister is configured. Failures are logged and
// otherwise ignored.
func (s *Store) Save(ctx context.Context, sess *Session) {
	if s.persister == nil || sess == nil {
		return
	}
	if err := s.persister.Save(ctx, sess.State(), s.ttl); err != nil {
		s.logger.Warn("context persistence failed", map[string]interface{}{
			"userId": sess.UserID(),
			"error":  err,
		})
	}
}

// Len is the number of sessions held, including expired ones not yet replaced.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
