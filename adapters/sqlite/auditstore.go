package sqlite

import (
	"context"
	"time"

	"github.com/voxway/voxgate/domain/ledger"
	"github.com/voxway/voxgate/ports"
)

// AuditStore implements ports.AuditStore using SQLite.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new SQLite audit store.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// RecordAuth appends an auth log entry.
func (s *AuditStore) RecordAuth(ctx context.Context, e ledger.AuthEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_log (id, user_id, email, action, ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, nullString(e.UserID), e.Email, e.Action, e.IP, e.UserAgent, e.CreatedAt)
	return err
}

// RecordError appends an error log entry.
func (s *AuditStore) RecordError(ctx context.Context, e ledger.ErrorEntry) error {
	meta, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO error_log (id, user_id, type, provider, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, nullString(e.UserID), e.Type, e.Provider, e.Message, meta, e.CreatedAt)
	return err
}

// ListAuth returns auth entries newest first, with the total count.
func (s *AuditStore) ListAuth(ctx context.Context, limit, offset int) ([]ledger.AuthEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, COALESCE(a.user_id, ''), a.email, a.action, a.ip, a.user_agent, a.created_at,
			COALESCE(u.email, ''), COALESCE(u.name, '')
		FROM auth_log a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []ledger.AuthEntry
	for rows.Next() {
		var e ledger.AuthEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.Action, &e.IP, &e.UserAgent,
			&e.CreatedAt, &e.UserEmail, &e.UserName)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ListErrors returns error entries newest first, with the total count.
func (s *AuditStore) ListErrors(ctx context.Context, limit, offset int) ([]ledger.ErrorEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, COALESCE(e.user_id, ''), e.type, e.provider, e.message, e.metadata, e.created_at,
			COALESCE(u.email, ''), COALESCE(u.name, '')
		FROM error_log e
		LEFT JOIN users u ON u.id = e.user_id
		ORDER BY e.created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []ledger.ErrorEntry
	for rows.Next() {
		var e ledger.ErrorEntry
		var meta string
		err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Provider, &e.Message, &meta,
			&e.CreatedAt, &e.UserEmail, &e.UserName)
		if err != nil {
			return nil, 0, err
		}
		e.Metadata = decodeMetadata(meta)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// CountAuthSince returns the number of auth entries for an action
// recorded at or after t.
func (s *AuditStore) CountAuthSince(ctx context.Context, action string, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM auth_log WHERE action = ? AND created_at >= ?
	`, action, t).Scan(&count)
	return count, err
}

// CountErrorsSince returns the number of error entries recorded at or
// after t.
func (s *AuditStore) CountErrorsSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM error_log WHERE created_at >= ?
	`, t).Scan(&count)
	return count, err
}

// Ensure interface compliance.
var _ ports.AuditStore = (*AuditStore)(nil)
