// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/voxway/voxgate/domain/account"
	"github.com/voxway/voxgate/ports"
)

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]account.User // by ID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]account.User)}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return account.User{}, ErrNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return account.User{}, ErrNotFound
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	s.users[u.ID] = u
	return nil
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	s.users[u.ID] = u
	return nil
}

// Delete removes a user.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// List returns users with pagination, newest first.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]account.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Count returns total user count.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// TouchLogin records a successful login time.
func (s *UserStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &at
	s.users[id] = u
	return nil
}

// IncrementSTTMinutes atomically adds minutes to a user's STT usage.
func (s *UserStore) IncrementSTTMinutes(ctx context.Context, id string, minutes int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, 0, ErrNotFound
	}
	u.STTMinutesUsed += minutes
	s.users[id] = u
	return u.STTMinutesUsed, u.STTMinutesLimit, nil
}

// IncrementAICredits atomically adds credits to a user's AI usage.
func (s *UserStore) IncrementAICredits(ctx context.Context, id string, credits float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	u.AICreditsUsed += credits
	s.users[id] = u
	return u.AICreditsUsed, nil
}

// CountByStatus returns the number of users in a status.
func (s *UserStore) CountByStatus(ctx context.Context, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

// CountCreatedSince returns the number of users created at or after t.
func (s *UserStore) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if !u.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// SumUsage returns the totals of used STT minutes and AI credits.
func (s *UserStore) SumUsage(ctx context.Context) (int, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mins int
	var credits float64
	for _, u := range s.users {
		mins += u.STTMinutesUsed
		credits += u.AICreditsUsed
	}
	return mins, credits, nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
