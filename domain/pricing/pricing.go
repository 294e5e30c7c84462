// Package pricing computes provider usage cost from a rate table.
// Adding a provider is a data change, not a code change.
package pricing

import "sync"

// Known provider identifiers.
const (
	ProviderOpenRouter   = "openrouter"
	ProviderElevenLabs   = "elevenlabs"
	ProviderSpeechmatics = "speechmatics"
)

// Table maps a provider id to its USD cost per unit. For the LLM
// provider the unit is one thousand tokens; for STT providers it is
// one minute of audio.
type Table map[string]float64

// DefaultTable returns the built-in rates. Unlisted providers cost zero.
func DefaultTable() Table {
	return Table{
		ProviderOpenRouter:   0.001,
		ProviderElevenLabs:   0.0,
		ProviderSpeechmatics: 0.0,
	}
}

// Cost returns the USD cost for units consumed of the given provider.
func (t Table) Cost(provider string, units float64) float64 {
	if units <= 0 {
		return 0
	}
	return units * t[provider]
}

// Store holds the active rate table behind a lock so a config reload
// can swap rates under running services.
type Store struct {
	mu sync.RWMutex
	t  Table
}

// NewStore wraps a table. A nil table falls back to the defaults.
func NewStore(t Table) *Store {
	if t == nil {
		t = DefaultTable()
	}
	return &Store{t: t}
}

// Cost returns the USD cost under the current table.
func (s *Store) Cost(provider string, units float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.Cost(provider, units)
}

// Replace swaps the active table. A nil table is ignored.
func (s *Store) Replace(t Table) {
	if t == nil {
		return
	}
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
}

// Snapshot returns a copy of the current table.
func (s *Store) Snapshot() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.Merge(nil)
}

// Merge overlays rates from other onto a copy of the table, leaving the
// receiver unchanged. Used to apply config overrides on the defaults.
func (t Table) Merge(other map[string]float64) Table {
	merged := make(Table, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
