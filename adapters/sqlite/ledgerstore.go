package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// LedgerStore implements ports.LedgerStore using SQLite.
// usage_events rows are append-only; nothing here updates or deletes.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Record appends a usage event.
func (s *LedgerStore) Record(ctx context.Context, e ledger.UsageEvent) error {
	meta, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, user_id, provider, type, units, cost_usd, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Provider, e.Type, e.Units, e.CostUSD, meta, e.CreatedAt)
	return err
}

// TotalsByProvider aggregates events per provider since t.
func (s *LedgerStore) TotalsByProvider(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, COUNT(*), COALESCE(SUM(units), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE created_at >= ?
		GROUP BY provider
		ORDER BY SUM(cost_usd) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ledger.ProviderTotal
	for rows.Next() {
		var t ledger.ProviderTotal
		if err := rows.Scan(&t.Provider, &t.Events, &t.Units, &t.CostUSD); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// TotalsByProviderType aggregates events per provider and type since t.
func (s *LedgerStore) TotalsByProviderType(ctx context.Context, since time.Time) ([]ledger.ProviderTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, type, COUNT(*), COALESCE(SUM(units), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE created_at >= ?
		GROUP BY provider, type
		ORDER BY SUM(cost_usd) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ledger.ProviderTotal
	for rows.Next() {
		var t ledger.ProviderTotal
		if err := rows.Scan(&t.Provider, &t.Type, &t.Events, &t.Units, &t.CostUSD); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// TopUsers returns the highest-spending users since t.
func (s *LedgerStore) TopUsers(ctx context.Context, since time.Time, limit int) ([]ledger.UserTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.user_id, COALESCE(u.email, ''), COALESCE(u.name, ''),
			COUNT(*), COALESCE(SUM(e.units), 0), COALESCE(SUM(e.cost_usd), 0)
		FROM usage_events e
		LEFT JOIN users u ON u.id = e.user_id
		WHERE e.created_at >= ?
		GROUP BY e.user_id
		ORDER BY SUM(e.cost_usd) DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ledger.UserTotal
	for rows.Next() {
		var t ledger.UserTotal
		if err := rows.Scan(&t.UserID, &t.Email, &t.Name, &t.Events, &t.Units, &t.CostUSD); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// TotalCost returns the summed cost of all events since t.
func (s *LedgerStore) TotalCost(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0) FROM usage_events WHERE created_at >= ?
	`, since).Scan(&total)
	return total, err
}

func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
