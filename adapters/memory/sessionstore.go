package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voxway/voxgate/domain/session"
	"github.com/voxway/voxgate/ports"
)

// SessionStore is an in-memory implementation of ports.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session // by deterministic key
	users    *UserStore                 // optional, for joined views
}

// NewSessionStore creates a new in-memory session store. The user
// store may be nil; joined views then carry empty identities.
func NewSessionStore(users *UserStore) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session.Session),
		users:    users,
	}
}

// Upsert creates or refreshes the session keyed by user and type.
func (s *SessionStore) Upsert(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = session.Key(sess.UserID, sess.Type)
	}
	sess.EndedAt = nil
	s.sessions[sess.ID] = sess
	return nil
}

// End closes the session keyed by user and type, if open.
func (s *SessionStore) End(ctx context.Context, userID, typ string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := session.Key(userID, typ)
	if sess, ok := s.sessions[key]; ok && sess.EndedAt == nil {
		sess.EndedAt = &at
		s.sessions[key] = sess
	}
	return nil
}

// List returns sessions newest first.
func (s *SessionStore) List(ctx context.Context, activeOnly bool, now time.Time, limit int) ([]ports.SessionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var views []ports.SessionView
	for _, sess := range s.sessions {
		if activeOnly && !sess.IsActive(now) {
			continue
		}
		v := ports.SessionView{Session: sess}
		if s.users != nil {
			if u, err := s.users.Get(ctx, sess.UserID); err == nil {
				v.UserEmail = u.Email
				v.UserName = u.Name
			}
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].LastSeenAt.After(views[j].LastSeenAt) })
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views, nil
}

// CountActive returns the number of sessions active at now.
func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.IsActive(now) {
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.SessionStore = (*SessionStore)(nil)
