package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// LedgerStore is an in-memory implementation of ports.LedgerStore.
type LedgerStore struct {
	mu     sync.RWMutex
	events []ledger.UsageEvent
	users  *UserStore // optional, for joined views
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore(users *UserStore) *LedgerStore {
	return &LedgerStore{users: users}
}

// Record appends a usage event.
func (s *LedgerStore) Record(ctx context.Context, e ledger.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of all recorded events, for assertions.
func (s *LedgerStore) Events() []ledger.UsageEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.UsageEvent, len(s.events))
	copy(out, s.events)
	return out
}

// TotalsByProvider aggregates events per provider since t.
func (s *LedgerStore) TotalsByProvider(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error) {
	return s.aggregate(since, false), nil
}

// TotalsByProviderType aggregates events per provider and type since t.
func (s *LedgerStore) TotalsByProviderType(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error) {
	return s.aggregate(since, true), nil
}

func (s *LedgerStore) aggregate(since time.Time, byType bool) []ledger.ProviderTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := make(map[string]*ledger.ProviderTotal)
	var order []string
	for _, e := range s.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		key := e.Provider
		if byType {
			key += "|" + e.Type
		}
		t, ok := acc[key]
		if !ok {
			t = &ledger.ProviderTotal{Provider: e.Provider}
			if byType {
				t.Type = e.Type
			}
			acc[key] = t
			order = append(order, key)
		}
		t.Events++
		t.Units += e.Units
		t.CostUSD += e.CostUSD
	}

	out := make([]ledger.ProviderTotal, 0, len(order))
	for _, key := range order {
		out = append(out, *acc[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CostUSD > out[j].CostUSD })
	return out
}

// TopUsers returns the highest-spending users since t.
func (s *LedgerStore) TopUsers(ctx context.Context, since time.Time, limit int) ([]ledger.UserTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := make(map[string]*ledger.UserTotal)
	var order []string
	for _, e := range s.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		t, ok := acc[e.UserID]
		if !ok {
			t = &ledger.UserTotal{UserID: e.UserID}
			if s.users != nil {
				if u, err := s.users.Get(ctx, e.UserID); err == nil {
					t.Email = u.Email
					t.Name = u.Name
				}
			}
			acc[e.UserID] = t
			order = append(order, e.UserID)
		}
		t.Events++
		t.Units += e.Units
		t.CostUSD += e.CostUSD
	}

	out := make([]ledger.UserTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CostUSD > out[j].CostUSD })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// TotalCost returns the summed cost of all events since t.
func (s *LedgerStore) TotalCost(ctx context.Context, since time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, e := range s.events {
		if !e.CreatedAt.Before(since) {
			total += e.CostUSD
		}
	}
	return total, nil
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
