package memory

import (
	"context"
	"sync"
	"time"

	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// AuditStore is an in-memory implementation of ports.AuditStore.
type AuditStore struct {
	mu       sync.RWMutex
	authLog  []ledger.AuthEntry
	errorLog []ledger.ErrorEntry
	users    *UserStore // optional, for joined views
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore(users *UserStore) *AuditStore {
	return &AuditStore{users: users}
}

// RecordAuth appends an auth log entry.
func (s *AuditStore) RecordAuth(ctx context.Context, e ledger.AuthEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authLog = append(s.authLog, e)
	return nil
}

// RecordError appends an error log entry.
func (s *AuditStore) RecordError(ctx context.Context, e ledger.ErrorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorLog = append(s.errorLog, e)
	return nil
}

// AuthEntries returns a copy of the auth log, for assertions.
func (s *AuditStore) AuthEntries() []ledger.AuthEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.AuthEntry, len(s.authLog))
	copy(out, s.authLog)
	return out
}

// ErrorEntries returns a copy of the error log, for assertions.
func (s *AuditStore) ErrorEntries() []ledger.ErrorEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.ErrorEntry, len(s.errorLog))
	copy(out, s.errorLog)
	return out
}

// ListAuth returns auth entries newest first, with the total count.
func (s *AuditStore) ListAuth(ctx context.Context, limit, offset int) ([]ledger.AuthEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.authLog)
	var out []ledger.AuthEntry
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		e := s.authLog[i]
		if s.users != nil && e.UserID != "" {
			if u, err := s.users.Get(ctx, e.UserID); err == nil {
				e.UserEmail = u.Email
				e.UserName = u.Name
			}
		}
		out = append(out, e)
	}
	return out, total, nil
}

// ListErrors returns error entries newest first, with the total count.
func (s *AuditStore) ListErrors(ctx context.Context, limit, offset int) ([]ledger.ErrorEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.errorLog)
	var out []ledger.ErrorEntry
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		e := s.errorLog[i]
		if s.users != nil && e.UserID != "" {
			if u, err := s.users.Get(ctx, e.UserID); err == nil {
				e.UserEmail = u.Email
				e.UserName = u.Name
			}
		}
		out = append(out, e)
	}
	return out, total, nil
}

// CountAuthSince returns the number of auth entries for an action
// recorded at or after t.
func (s *AuditStore) CountAuthSince(ctx context.Context, action string, t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.authLog {
		if e.Action == action && !e.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// CountErrorsSince returns the number of error entries recorded at or
// after t.
func (s *AuditStore) CountErrorsSince(ctx context.Context, t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.errorLog {
		if !e.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.AuditStore = (*AuditStore)(nil)
